package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docsflow/internal/http/middleware"
	"docsflow/internal/model"
	"docsflow/internal/service"
)

type uploadsResponse struct {
	Records       []service.UploadRecord `json:"records"`
	Uploading     bool                   `json:"uploading"`
	TotalProgress int                    `json:"totalProgress"`
}

type uploadBatchResponse struct {
	Documents     []model.Document       `json:"documents"`
	Failed        []service.UploadRecord `json:"failed"`
	TotalProgress int                    `json:"totalProgress"`
}

// splitTags turns "a, b,,c" into [a b c].
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// UploadFiles serves POST /api/uploads. Every part named "files" becomes one
// upload; optional form fields title, content, type, tags and department_id
// apply to all of them.
func UploadFiles() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "multipart form expected")
		}
		headers := form.File["files"]
		if len(headers) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "at least one file is required")
		}

		meta := model.UploadMetadata{
			Title:   c.FormValue("title"),
			Content: c.FormValue("content"),
			Type:    c.FormValue("type"),
			Tags:    splitTags(c.FormValue("tags")),
		}
		if raw := c.FormValue("department_id"); raw != "" {
			dep, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || dep <= 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DEPARTMENT", "invalid department_id")
			}
			meta.DepartmentID = dep
		}

		files := make([]model.File, len(headers))
		for i, h := range headers {
			files[i] = service.MultipartFile(h)
		}
		batch := ws.Uploads.UploadBatch(c.UserContext(), files, meta)

		if ws.TakeLoginRedirect() {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "session expired, please sign in again")
		}
		return c.JSON(uploadBatchResponse{
			Documents:     batch.Documents,
			Failed:        batch.Failed,
			TotalProgress: ws.Uploads.TotalProgress(),
		})
	}
}

func ListUploads() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		return c.JSON(uploadsResponse{
			Records:       ws.Uploads.Records(),
			Uploading:     ws.Uploads.IsUploading(),
			TotalProgress: ws.Uploads.TotalProgress(),
		})
	}
}

func ClearUploads() fiber.Handler {
	return func(c *fiber.Ctx) error {
		middleware.WorkspaceFrom(c).Uploads.Clear()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func RemoveUpload() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !middleware.WorkspaceFrom(c).Uploads.Remove(c.Params("id")) {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "upload not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
