package model

import "strings"

// Status is the lifecycle state of a document.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ParseStatus normalizes a backend status value. Unknown or empty values become StatusDraft.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPublished:
		return StatusPublished
	case StatusArchived:
		return StatusArchived
	default:
		return StatusDraft
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Document is the canonical document entity exposed to callers.
// It is decoupled from the backend row shape; see repository/remote for the mapping.
type Document struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content,omitempty"`
	Type      string   `json:"type,omitempty"`
	Status    Status   `json:"status"`
	UserID    int64    `json:"userId"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
	Tags      []string `json:"tags"`
	FileURL   string   `json:"fileUrl,omitempty"`
	FileName  string   `json:"fileName,omitempty"`
	FileSize  int64    `json:"fileSize,omitempty"`
}

// CreateDocumentData is the payload for a metadata-only document.
type CreateDocumentData struct {
	Title   string   `json:"title"`
	Content string   `json:"content,omitempty"`
	Type    string   `json:"type,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// UpdateDocumentData is a partial update; nil fields are not sent.
type UpdateDocumentData struct {
	Title   *string  `json:"title,omitempty"`
	Content *string  `json:"content,omitempty"`
	Type    *string  `json:"type,omitempty"`
	Status  *Status  `json:"status,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// UploadMetadata accompanies a file upload that creates a new document.
// DepartmentID zero means the configured default department.
type UploadMetadata struct {
	Title        string
	Content      string
	Type         string
	Tags         []string
	DepartmentID int64
}

// FileRef describes a file stored without an owning document.
type FileRef struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

// ListParams are 1-based pagination parameters. Zero values mean "use the default".
type ListParams struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// Merge returns p with every non-zero field of override applied on top.
func (p ListParams) Merge(override ListParams) ListParams {
	if override.Page > 0 {
		p.Page = override.Page
	}
	if override.Limit > 0 {
		p.Limit = override.Limit
	}
	return p
}

// DocumentPage is one page of documents plus the pagination it was fetched with.
type DocumentPage struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
}

// Pagination is the authoritative paging state after the last successful fetch.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Offset returns the zero-based row offset for the current page.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// HasNext reports whether rows exist after the current page.
func (p Pagination) HasNext() bool {
	return p.Page*p.Limit < p.Total
}

// HasPrev reports whether the current page is past the first one.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}
