package remote

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"docsflow/internal/model"
)

// row is the union of every document shape the backend has been seen to return.
type row struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Filename     string   `json:"filename"`
	FileNameAlt  string   `json:"file_name"`
	Content      string   `json:"content"`
	DocumentType string   `json:"document_type"`
	Status       string   `json:"status"`
	UploadedBy   int64    `json:"uploaded_by"`
	UserID       int64    `json:"user_id"`
	UploadedAt   string   `json:"uploaded_at"`
	CreatedAt    string   `json:"created_at"`
	ProcessedAt  string   `json:"processed_at"`
	UpdatedAt    string   `json:"updated_at"`
	Tags         []string `json:"tags"`
	Filepath     string   `json:"filepath"`
	FileURL      string   `json:"file_url"`
	FileSize     int64    `json:"fileSize"`
	FileSizeAlt  int64    `json:"file_size"`
	Size         int64    `json:"size"`
}

// listBody is GET /documents/. Total is absent on some deployments.
type listBody struct {
	Items []row `json:"items"`
	Total *int  `json:"total"`
}

// envelope unwraps responses that nest the payload under data.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func unwrap(body json.RawMessage) json.RawMessage {
	var env envelope
	if json.Unmarshal(body, &env) == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return env.Data
	}
	return body
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func formatDate(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if i := strings.IndexAny(s, "T "); i > 0 {
		return s[:i]
	}
	return s
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func (r row) document() model.Document {
	doc := model.Document{
		ID:        r.ID,
		Title:     firstString(r.Filename, r.Title, fmt.Sprintf("Document %d", r.ID)),
		Content:   r.Content,
		Type:      r.DocumentType,
		Status:    model.ParseStatus(r.Status),
		UserID:    firstInt(r.UploadedBy, r.UserID),
		CreatedAt: firstString(r.UploadedAt, r.CreatedAt),
		Tags:      r.Tags,
		FileURL:   firstString(r.Filepath, r.FileURL),
		FileName:  firstString(r.Filename, r.FileNameAlt),
		FileSize:  firstInt(r.FileSize, r.FileSizeAlt, r.Size),
	}
	if doc.Content == "" && r.UploadedAt != "" {
		doc.Content = "Uploaded on " + formatDate(r.UploadedAt)
	}
	if doc.Type == "" && r.Filename != "" {
		doc.Type = extension(r.Filename)
	}
	doc.UpdatedAt = firstString(r.ProcessedAt, r.UpdatedAt, doc.CreatedAt)
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return doc
}

func documents(rows []row) []model.Document {
	docs := make([]model.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.document())
	}
	return docs
}

func decodeDocument(body json.RawMessage) (*model.Document, error) {
	var r row
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc := r.document()
	return &doc, nil
}

// matches is a case-insensitive substring test over title, file name, content and type.
func matches(doc model.Document, needle string) bool {
	for _, field := range []string{doc.Title, doc.FileName, doc.Content, doc.Type} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
