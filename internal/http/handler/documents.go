package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"docsflow/internal/http/middleware"
	"docsflow/internal/model"
	"docsflow/internal/service"
)

type listResponse struct {
	Documents  []model.Document `json:"documents"`
	Pagination model.Pagination `json:"pagination"`
	HasNext    bool             `json:"hasNext"`
	HasPrev    bool             `json:"hasPrev"`
}

func listResponseOf(docs *service.DocumentController) listResponse {
	p := docs.Pagination()
	return listResponse{
		Documents:  docs.Documents(),
		Pagination: p,
		HasNext:    p.HasNext(),
		HasPrev:    p.HasPrev(),
	}
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(c *fiber.Ctx, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// paramID parses the :id route parameter as a positive document id.
func paramID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ListDocuments serves GET /api/documents?page&limit&q. A non-empty q
// searches instead of listing.
func ListDocuments() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		page, ok := queryInt(c, "page")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		limit, ok := queryInt(c, "limit")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		params := model.ListParams{Page: page, Limit: limit}

		docs := ws.Documents.Checked()
		var err error
		if q := c.Query("q"); q != "" {
			err = docs.Search(c.UserContext(), q, params)
		} else {
			err = docs.Fetch(c.UserContext(), params)
		}
		if errors.Is(err, service.ErrSuperseded) {
			// A newer list request from the same session won.
			return writeError(c, fiber.StatusConflict, "SUPERSEDED", "superseded by a newer request")
		}
		if err != nil {
			return writeFailure(c, ws, err, "")
		}
		return c.JSON(listResponseOf(ws.Documents))
	}
}

func GetDocument() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		id, ok := paramID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := ws.Documents.Checked().FetchByID(c.UserContext(), id)
		if err != nil {
			return writeFailure(c, ws, err, "")
		}
		return c.JSON(doc)
	}
}

func CreateDocument() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		var data model.CreateDocumentData
		if err := c.BodyParser(&data); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		doc, err := ws.Documents.Checked().Create(c.UserContext(), data)
		if err != nil {
			return writeFailure(c, ws, err, "")
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

func UpdateDocument() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		id, ok := paramID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var data model.UpdateDocumentData
		if err := c.BodyParser(&data); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		doc, err := ws.Documents.Checked().Update(c.UserContext(), id, data)
		if err != nil {
			return writeFailure(c, ws, err, "")
		}
		return c.JSON(doc)
	}
}

func DeleteDocument() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		id, ok := paramID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := ws.Documents.Checked().Delete(c.UserContext(), id); err != nil {
			return writeFailure(c, ws, err, "")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AttachFile uploads the multipart field "file" to an existing document.
func AttachFile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ws := middleware.WorkspaceFrom(c)
		id, ok := paramID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		doc, err := ws.Documents.Checked().UploadFile(c.UserContext(), id, service.MultipartFile(fh))
		if err != nil {
			return writeFailure(c, ws, err, "")
		}
		return c.JSON(doc)
	}
}
