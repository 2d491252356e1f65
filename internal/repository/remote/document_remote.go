package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"docsflow/internal/api"
	"docsflow/internal/config"
	"docsflow/internal/model"
	"docsflow/internal/repository"
)

// DocumentRemote is a repository.DocumentRepository over the backend HTTP API.
type DocumentRemote struct {
	client              *api.Client
	pageSize            int
	searchLimit         int
	defaultDepartmentID int64
	now                 func() time.Time
}

// NewDocumentRemote creates a repository using the paging defaults from cfg.
func NewDocumentRemote(client *api.Client, cfg config.APIConfig) *DocumentRemote {
	r := &DocumentRemote{
		client:              client,
		pageSize:            cfg.PageSize,
		searchLimit:         cfg.SearchLimit,
		defaultDepartmentID: cfg.DefaultDepartmentID,
		now:                 time.Now,
	}
	if r.pageSize <= 0 {
		r.pageSize = 10
	}
	if r.searchLimit <= 0 {
		r.searchLimit = 50
	}
	if r.defaultDepartmentID <= 0 {
		r.defaultDepartmentID = 1
	}
	return r
}

var _ repository.DocumentRepository = (*DocumentRemote)(nil)

func listPath(pq repository.PageQuery) string {
	return fmt.Sprintf("/documents/?limit=%d&offset=%d", pq.Limit, pq.Offset)
}

func documentPath(id int64, suffix string) string {
	return "/documents/" + strconv.FormatInt(id, 10) + suffix
}

func (r *DocumentRemote) fetchPage(ctx context.Context, pq repository.PageQuery) ([]model.Document, *int, error) {
	var body listBody
	if err := r.client.Do(ctx, http.MethodGet, listPath(pq), nil, &body); err != nil {
		return nil, nil, err
	}
	return documents(body.Items), body.Total, nil
}

// List returns documents using LIMIT/OFFSET pagination and the backend total.
func (r *DocumentRemote) List(ctx context.Context, params model.ListParams) (*model.DocumentPage, error) {
	return r.list(ctx, repository.Resolve(params, r.pageSize))
}

func (r *DocumentRemote) list(ctx context.Context, pq repository.PageQuery) (*model.DocumentPage, error) {
	docs, total, err := r.fetchPage(ctx, pq)
	if err != nil {
		return nil, err
	}
	page := &model.DocumentPage{Documents: docs, Total: len(docs), Page: pq.Page, Limit: pq.Limit}
	if total != nil {
		page.Total = *total
	}
	return page, nil
}

// Search fetches one page and filters it locally. Total is the filtered count
// of that page, not a global match count.
func (r *DocumentRemote) Search(ctx context.Context, query string, params model.ListParams) (*model.DocumentPage, error) {
	pq := repository.Resolve(params, r.searchLimit)
	if strings.TrimSpace(query) == "" {
		return r.list(ctx, pq)
	}
	// Only the emptiness check trims; matching uses the query as typed.
	needle := strings.ToLower(query)

	docs, _, err := r.fetchPage(ctx, pq)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.Document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, needle) {
			filtered = append(filtered, doc)
		}
	}
	log.Ctx(ctx).Debug().
		Str("query", query).
		Int("fetched", len(docs)).
		Int("matched", len(filtered)).
		Msg("document search")

	return &model.DocumentPage{Documents: filtered, Total: len(filtered), Page: pq.Page, Limit: pq.Limit}, nil
}

// GetByID fetches a single document by its ID.
func (r *DocumentRemote) GetByID(ctx context.Context, id int64) (*model.Document, error) {
	if id <= 0 {
		return nil, repository.ErrIDRequired
	}
	var body json.RawMessage
	if err := r.client.Do(ctx, http.MethodGet, documentPath(id, ""), nil, &body); err != nil {
		if api.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %d: %w", repository.ErrNotFound, id, err)
		}
		return nil, err
	}
	return decodeDocument(body)
}

// Create posts metadata for a document without a file.
func (r *DocumentRemote) Create(ctx context.Context, data model.CreateDocumentData) (*model.Document, error) {
	if strings.TrimSpace(data.Title) == "" {
		return nil, api.Invalid("title", "is required")
	}
	var body json.RawMessage
	if err := r.client.Do(ctx, http.MethodPost, "/documents/", data, &body); err != nil {
		return nil, err
	}
	return decodeDocument(body)
}

// Update sends a partial PUT.
func (r *DocumentRemote) Update(ctx context.Context, id int64, data model.UpdateDocumentData) (*model.Document, error) {
	if id <= 0 {
		return nil, repository.ErrIDRequired
	}
	if data.Status != nil && !data.Status.Valid() {
		return nil, api.Invalid("status", "must be draft, published or archived")
	}
	var body json.RawMessage
	if err := r.client.Do(ctx, http.MethodPut, documentPath(id, ""), data, &body); err != nil {
		return nil, err
	}
	return decodeDocument(body)
}

// Delete removes a document by ID.
func (r *DocumentRemote) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return repository.ErrIDRequired
	}
	return r.client.Do(ctx, http.MethodDelete, documentPath(id, ""), nil, nil)
}

// UploadFile attaches file to document id.
func (r *DocumentRemote) UploadFile(ctx context.Context, id int64, file model.File) (*model.Document, error) {
	if id <= 0 {
		return nil, repository.ErrIDRequired
	}
	if file == nil {
		return nil, api.Invalid("file", "is required")
	}
	var body json.RawMessage
	if err := r.client.Upload(ctx, documentPath(id, "/upload"), &api.Form{File: file}, nil, &body); err != nil {
		return nil, err
	}
	return decodeDocument(unwrap(body))
}

type uploadCreated struct {
	Message    string `json:"message"`
	DocumentID int64  `json:"document_id"`
}

// UploadFileAndCreateDocument uploads file to /documents/upload and returns
// the created document. When the follow-up fetch fails the result is a
// locally built placeholder with UserID 0 and the current timestamp.
func (r *DocumentRemote) UploadFileAndCreateDocument(ctx context.Context, file model.File, meta model.UploadMetadata, onProgress func(int)) (*model.Document, error) {
	if file == nil {
		return nil, api.Invalid("file", "is required")
	}

	department := meta.DepartmentID
	if department <= 0 {
		department = r.defaultDepartmentID
	}
	form := &api.Form{
		Fields: []api.Field{{Name: "department_id", Value: strconv.FormatInt(department, 10)}},
		File:   file,
	}
	if meta.Type != "" {
		form.Fields = append(form.Fields, api.Field{Name: "document_type", Value: meta.Type})
	}

	var body json.RawMessage
	if err := r.client.Upload(ctx, "/documents/upload", form, onProgress, &body); err != nil {
		return nil, err
	}

	var created uploadCreated
	_ = json.Unmarshal(body, &created)
	if created.DocumentID == 0 {
		return decodeDocument(unwrap(body))
	}

	doc, err := r.GetByID(ctx, created.DocumentID)
	if err == nil {
		return doc, nil
	}

	log.Ctx(ctx).Warn().
		Err(err).
		Int64("document_id", created.DocumentID).
		Msg("created document could not be fetched, returning placeholder")

	ts := r.now().UTC().Format(time.RFC3339)
	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}
	title := meta.Title
	if title == "" {
		title = file.Name()
	}
	return &model.Document{
		ID:        created.DocumentID,
		Title:     title,
		Content:   meta.Content,
		Type:      meta.Type,
		Status:    model.StatusDraft,
		UserID:    0,
		CreatedAt: ts,
		UpdatedAt: ts,
		Tags:      tags,
		FileName:  file.Name(),
		FileSize:  file.Size(),
	}, nil
}

type fileRefBody struct {
	FileURL     string `json:"fileUrl"`
	FileURLAlt  string `json:"file_url"`
	FileName    string `json:"fileName"`
	FileNameAlt string `json:"file_name"`
	FileSize    int64  `json:"fileSize"`
	FileSizeAlt int64  `json:"file_size"`
}

// UploadFileOnly stores file without creating a document.
func (r *DocumentRemote) UploadFileOnly(ctx context.Context, file model.File, onProgress func(int)) (*model.FileRef, error) {
	if file == nil {
		return nil, api.Invalid("file", "is required")
	}
	var body json.RawMessage
	if err := r.client.Upload(ctx, "/upload/file", &api.Form{File: file}, onProgress, &body); err != nil {
		return nil, err
	}
	var ref fileRefBody
	if err := json.Unmarshal(unwrap(body), &ref); err != nil {
		return nil, fmt.Errorf("decode file reference: %w", err)
	}
	return &model.FileRef{
		FileURL:  firstString(ref.FileURL, ref.FileURLAlt),
		FileName: firstString(ref.FileName, ref.FileNameAlt),
		FileSize: firstInt(ref.FileSize, ref.FileSizeAlt),
	}, nil
}
