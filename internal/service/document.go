package service

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"docsflow/internal/api"
	"docsflow/internal/model"
	"docsflow/internal/repository"
)

// State is the observable phase of a DocumentController.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateError   State = "error"
)

// ErrSuperseded is the outcome of a list call overtaken by a newer one.
var ErrSuperseded = errors.New("superseded by a newer list request")

// Failure is the error a checked call returns. Message is the text Err reports
// for the same failure.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// ControllerOptions configure a DocumentController.
type ControllerOptions struct {
	// AutoFetch makes Initialize run one fetch with InitialParams.
	AutoFetch     bool
	InitialParams model.ListParams
	// DefaultLimit seeds the pagination state before the first fetch.
	DefaultLimit int
}

// DocumentController holds the document list, the current document and the
// pagination of the last successful list call. Operations never return errors;
// failures are exposed through Err and LastError. Callers sharing a controller
// that need the outcome of their own call use Checked.
//
// Fetch and Search share one list slot: starting either cancels the one in
// flight, and a superseded call leaves state untouched.
type DocumentController struct {
	repo repository.DocumentRepository
	opts ControllerOptions

	mu          sync.Mutex
	documents   []model.Document
	current     *model.Document
	pagination  model.Pagination
	inflight    int
	errMsg      string
	lastErr     error
	lastParams  model.ListParams
	initialized bool
	listGen     uint64
	cancelList  context.CancelFunc
}

// NewDocumentController creates a controller over repo.
func NewDocumentController(repo repository.DocumentRepository, opts ControllerOptions) *DocumentController {
	limit := opts.DefaultLimit
	if limit <= 0 {
		limit = 10
	}
	return &DocumentController{
		repo:       repo,
		opts:       opts,
		documents:  []model.Document{},
		pagination: model.Pagination{Total: 0, Page: 1, Limit: limit},
		lastParams: opts.InitialParams,
	}
}

// Initialize performs the automatic initial fetch at most once per instance.
// It reports whether the fetch was started by this call.
func (c *DocumentController) Initialize(ctx context.Context) bool {
	c.mu.Lock()
	if c.initialized || !c.opts.AutoFetch {
		c.mu.Unlock()
		return false
	}
	c.initialized = true
	c.mu.Unlock()

	c.Fetch(ctx, c.opts.InitialParams)
	return true
}

// Fetch merges params over the last-used params and replaces the list.
func (c *DocumentController) Fetch(ctx context.Context, params model.ListParams) bool {
	return c.fetch(ctx, params) == nil
}

func (c *DocumentController) fetch(ctx context.Context, params model.ListParams) error {
	c.mu.Lock()
	merged := c.lastParams.Merge(params)
	c.lastParams = merged
	lctx, gen := c.beginListLocked(ctx)
	c.mu.Unlock()

	page, err := c.repo.List(lctx, merged)
	return c.finishList(ctx, gen, page, err, "error fetching documents", "failed to load documents")
}

// Refetch repeats the last Fetch.
func (c *DocumentController) Refetch(ctx context.Context) bool {
	return c.Fetch(ctx, model.ListParams{})
}

// Search replaces the list with the filtered page. params are used as given.
func (c *DocumentController) Search(ctx context.Context, query string, params model.ListParams) bool {
	return c.search(ctx, query, params) == nil
}

func (c *DocumentController) search(ctx context.Context, query string, params model.ListParams) error {
	c.mu.Lock()
	lctx, gen := c.beginListLocked(ctx)
	c.mu.Unlock()

	page, err := c.repo.Search(lctx, query, params)
	return c.finishList(ctx, gen, page, err, "error searching documents", "search failed")
}

func (c *DocumentController) beginListLocked(ctx context.Context) (context.Context, uint64) {
	if c.cancelList != nil {
		c.cancelList()
	}
	lctx, cancel := context.WithCancel(ctx)
	c.listGen++
	c.cancelList = cancel
	c.beginLocked()
	return lctx, c.listGen
}

func (c *DocumentController) finishList(ctx context.Context, gen uint64, page *model.DocumentPage, err error, logMsg, fallback string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	if gen != c.listGen {
		log.Ctx(ctx).Debug().Uint64("generation", gen).Msg("discarding superseded list result")
		return ErrSuperseded
	}
	c.cancelList()
	c.cancelList = nil

	if err != nil {
		return c.failLocked(ctx, err, logMsg, fallback)
	}
	c.documents = page.Documents
	if c.documents == nil {
		c.documents = []model.Document{}
	}
	c.pagination = model.Pagination{Total: page.Total, Page: page.Page, Limit: page.Limit}
	return nil
}

// FetchByID loads one document into the current slot.
func (c *DocumentController) FetchByID(ctx context.Context, id int64) (*model.Document, bool) {
	doc, err := c.fetchByID(ctx, id)
	return doc, err == nil
}

func (c *DocumentController) fetchByID(ctx context.Context, id int64) (*model.Document, error) {
	c.begin()
	doc, err := c.repo.GetByID(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if err != nil {
		return nil, c.failLocked(ctx, err, "error fetching document", "failed to load document")
	}
	c.current = cloneDocument(doc)
	return cloneDocument(doc), nil
}

// Create posts data and prepends the result locally, incrementing the total.
func (c *DocumentController) Create(ctx context.Context, data model.CreateDocumentData) (*model.Document, bool) {
	doc, err := c.create(ctx, data)
	return doc, err == nil
}

func (c *DocumentController) create(ctx context.Context, data model.CreateDocumentData) (*model.Document, error) {
	c.begin()
	doc, err := c.repo.Create(ctx, data)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if err != nil {
		return nil, c.failLocked(ctx, err, "error creating document", "failed to create document")
	}
	c.documents = append([]model.Document{*cloneDocument(doc)}, c.documents...)
	c.pagination.Total++
	return cloneDocument(doc), nil
}

// Update applies a partial update and replaces the matching entry in place.
func (c *DocumentController) Update(ctx context.Context, id int64, data model.UpdateDocumentData) (*model.Document, bool) {
	doc, err := c.update(ctx, id, data)
	return doc, err == nil
}

func (c *DocumentController) update(ctx context.Context, id int64, data model.UpdateDocumentData) (*model.Document, error) {
	c.begin()
	doc, err := c.repo.Update(ctx, id, data)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if err != nil {
		return nil, c.failLocked(ctx, err, "error updating document", "failed to update document")
	}
	c.replaceLocked(id, doc)
	return cloneDocument(doc), nil
}

// UploadFile attaches file to document id and replaces the entry in place.
func (c *DocumentController) UploadFile(ctx context.Context, id int64, file model.File) (*model.Document, bool) {
	doc, err := c.uploadFile(ctx, id, file)
	return doc, err == nil
}

func (c *DocumentController) uploadFile(ctx context.Context, id int64, file model.File) (*model.Document, error) {
	c.begin()
	doc, err := c.repo.UploadFile(ctx, id, file)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if err != nil {
		return nil, c.failLocked(ctx, err, "error uploading file", "failed to upload file")
	}
	c.replaceLocked(id, doc)
	return cloneDocument(doc), nil
}

// Delete removes the document remotely, then locally. A successful delete
// always takes one off the total, whether or not the id was on the loaded page.
func (c *DocumentController) Delete(ctx context.Context, id int64) bool {
	return c.remove(ctx, id) == nil
}

func (c *DocumentController) remove(ctx context.Context, id int64) error {
	c.begin()
	err := c.repo.Delete(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if err != nil {
		return c.failLocked(ctx, err, "error deleting document", "failed to delete document")
	}
	c.documents = slices.DeleteFunc(c.documents, func(d model.Document) bool { return d.ID == id })
	c.pagination.Total = max(c.pagination.Total-1, 0)
	if c.current != nil && c.current.ID == id {
		c.current = nil
	}
	return nil
}

func (c *DocumentController) replaceLocked(id int64, doc *model.Document) {
	for i := range c.documents {
		if c.documents[i].ID == id {
			c.documents[i] = *cloneDocument(doc)
		}
	}
	if c.current != nil && c.current.ID == id {
		c.current = cloneDocument(doc)
	}
}

func (c *DocumentController) begin() {
	c.mu.Lock()
	c.beginLocked()
	c.mu.Unlock()
}

func (c *DocumentController) beginLocked() {
	c.inflight++
	c.errMsg = ""
	c.lastErr = nil
}

func (c *DocumentController) failLocked(ctx context.Context, err error, logMsg, fallback string) *Failure {
	log.Ctx(ctx).Error().Err(err).Msg(logMsg)
	c.errMsg = api.Message(err, fallback)
	c.lastErr = err
	return &Failure{Message: c.errMsg, Err: err}
}

// Documents returns a copy of the current list.
func (c *DocumentController) Documents() []model.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Document, len(c.documents))
	for i := range c.documents {
		out[i] = *cloneDocument(&c.documents[i])
	}
	return out
}

// Current returns the current document, or nil.
func (c *DocumentController) Current() *model.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneDocument(c.current)
}

// SetCurrent replaces the current document slot. nil clears it.
func (c *DocumentController) SetCurrent(doc *model.Document) {
	c.mu.Lock()
	c.current = cloneDocument(doc)
	c.mu.Unlock()
}

func (c *DocumentController) Pagination() model.Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagination
}

// LastParams returns the params the next Refetch will use.
func (c *DocumentController) LastParams() model.ListParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastParams
}

func (c *DocumentController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.inflight > 0:
		return StateLoading
	case c.errMsg != "":
		return StateError
	default:
		return StateIdle
	}
}

func (c *DocumentController) Loading() bool { return c.State() == StateLoading }

// Err returns the human-readable message of the last failure.
func (c *DocumentController) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// LastError returns the typed error behind Err.
func (c *DocumentController) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *DocumentController) ClearError() {
	c.mu.Lock()
	c.errMsg = ""
	c.lastErr = nil
	c.mu.Unlock()
}

// CheckedController runs DocumentController operations and also returns the
// outcome of that one call, so concurrent callers never read each other's
// error state. Shared state changes exactly as with the unchecked methods.
// Failed calls return a *Failure; superseded list calls return ErrSuperseded.
type CheckedController struct {
	c *DocumentController
}

// Checked returns the error-returning view of c.
func (c *DocumentController) Checked() CheckedController { return CheckedController{c: c} }

func (k CheckedController) Fetch(ctx context.Context, params model.ListParams) error {
	return k.c.fetch(ctx, params)
}

func (k CheckedController) Search(ctx context.Context, query string, params model.ListParams) error {
	return k.c.search(ctx, query, params)
}

func (k CheckedController) FetchByID(ctx context.Context, id int64) (*model.Document, error) {
	return k.c.fetchByID(ctx, id)
}

func (k CheckedController) Create(ctx context.Context, data model.CreateDocumentData) (*model.Document, error) {
	return k.c.create(ctx, data)
}

func (k CheckedController) Update(ctx context.Context, id int64, data model.UpdateDocumentData) (*model.Document, error) {
	return k.c.update(ctx, id, data)
}

func (k CheckedController) UploadFile(ctx context.Context, id int64, file model.File) (*model.Document, error) {
	return k.c.uploadFile(ctx, id, file)
}

func (k CheckedController) Delete(ctx context.Context, id int64) error {
	return k.c.remove(ctx, id)
}

func cloneDocument(doc *model.Document) *model.Document {
	if doc == nil {
		return nil
	}
	out := *doc
	out.Tags = slices.Clone(doc.Tags)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return &out
}
