package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"docsflow/internal/auth"
	"docsflow/internal/http/middleware"
	"docsflow/internal/workspace"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type authStateResponse struct {
	Status auth.Status `json:"status"`
	User   any         `json:"user"`
}

// Login signs the browser session in.
func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		user, err := ws.Auth.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return writeFailure(c, ws, err, "login failed")
		}
		log.Ctx(c.UserContext()).Info().Int64("user_id", user.ID).Msg("signed in")
		return c.JSON(authStateResponse{Status: ws.Auth.Status(), User: user})
	}
}

// Logout clears the credential and forgets everything the workspace loaded.
func Logout(reg *workspace.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		if err := ws.Auth.Logout(c.UserContext()); err != nil {
			log.Ctx(c.UserContext()).Error().Err(err).Msg("error clearing session")
		}
		reg.Drop(ws.ID)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Me reports the auth state of the browser session. It never fails; the
// SPA uses it to decide between the login page and the app.
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		res := authStateResponse{Status: ws.Auth.Status()}
		if u := ws.Auth.User(); u != nil {
			res.User = u
		}
		return c.JSON(res)
	}
}

func ForgotPassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		var req forgotPasswordRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		msg, err := ws.Auth.ForgotPassword(c.UserContext(), req.Email)
		if err != nil {
			return writeFailure(c, ws, err, "failed to send reset email")
		}
		return c.JSON(fiber.Map{"message": msg})
	}
}

func ResetPassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		var req resetPasswordRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		msg, err := ws.Auth.ResetPassword(c.UserContext(), req.Token, req.Password, req.ConfirmPassword)
		if err != nil {
			return writeFailure(c, ws, err, "failed to reset password")
		}
		return c.JSON(fiber.Map{"message": msg})
	}
}

// ValidateResetToken checks the shape of ?token= without calling the backend.
func ValidateResetToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"valid": auth.ValidateResetToken(c.Query("token"))})
	}
}
