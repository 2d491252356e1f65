package repository

import (
	"context"
	"errors"

	"docsflow/internal/api"
	"docsflow/internal/model"
)

// ErrNotFound is wrapped by GetByID when the backend has no such document.
var ErrNotFound = errors.New("document not found")

// ErrIDRequired is returned before any request when an operation needs a
// positive document id. It is also an *api.ValidationError.
var ErrIDRequired error = &api.ValidationError{Field: "id", Message: "is required"}

// DocumentRepository is the only place that knows backend routes and row
// shapes. It caches nothing; every call hits the backend.
type DocumentRepository interface {
	// List returns one page. Zero params fall back to the configured defaults.
	List(ctx context.Context, params model.ListParams) (*model.DocumentPage, error)

	// GetByID returns a single document, wrapping ErrNotFound on 404.
	GetByID(ctx context.Context, id int64) (*model.Document, error)

	Create(ctx context.Context, data model.CreateDocumentData) (*model.Document, error)

	// Update sends only the non-nil fields of data.
	Update(ctx context.Context, id int64, data model.UpdateDocumentData) (*model.Document, error)

	Delete(ctx context.Context, id int64) error

	// Search filters one fetched page client-side. A blank query is List.
	Search(ctx context.Context, query string, params model.ListParams) (*model.DocumentPage, error)

	// UploadFile attaches a file to an existing document.
	UploadFile(ctx context.Context, id int64, file model.File) (*model.Document, error)

	// UploadFileAndCreateDocument uploads file and materializes a new document.
	UploadFileAndCreateDocument(ctx context.Context, file model.File, meta model.UploadMetadata, onProgress func(int)) (*model.Document, error)

	// UploadFileOnly stores a file without creating a document.
	UploadFileOnly(ctx context.Context, file model.File, onProgress func(int)) (*model.FileRef, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Page   int
	Limit  int
	Offset int
}

// Resolve applies defaultLimit and page 1 to zero params and computes the offset.
func Resolve(params model.ListParams, defaultLimit int) PageQuery {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	page := params.Page
	if page <= 0 {
		page = 1
	}
	return PageQuery{Page: page, Limit: limit, Offset: (page - 1) * limit}
}
