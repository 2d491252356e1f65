package service

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"docsflow/internal/api"
	"docsflow/internal/model"
	"docsflow/internal/repository"
)

// UploadStatus is the lifecycle of one UploadRecord.
type UploadStatus string

const (
	UploadIdle      UploadStatus = "idle"
	UploadUploading UploadStatus = "uploading"
	UploadSuccess   UploadStatus = "success"
	UploadError     UploadStatus = "error"
)

// UploadRecord tracks one file submitted to the orchestrator.
type UploadRecord struct {
	ID          string          `json:"id"`
	FileName    string          `json:"fileName"`
	FileSize    int64           `json:"fileSize"`
	ContentType string          `json:"contentType"`
	Progress    int             `json:"progress"`
	Status      UploadStatus    `json:"status"`
	Error       string          `json:"error,omitempty"`
	Document    *model.Document `json:"document,omitempty"`
}

// Batch is the outcome of one UploadBatch call. It only holds this call's
// files, whatever else runs on the orchestrator meanwhile.
type Batch struct {
	// IDs are the record ids of the batch in submission order.
	IDs       []string
	Documents []model.Document
	Failed    []UploadRecord
}

var uploadSeq atomic.Uint64

// UploadOrchestrator runs independent uploads and keeps one record per file.
// Records leave only through Clear and Remove.
type UploadOrchestrator struct {
	repo        repository.DocumentRepository
	concurrency int
	now         func() time.Time

	mu      sync.RWMutex
	order   []string
	records map[string]*UploadRecord
}

// NewUploadOrchestrator creates an orchestrator. concurrency bounds UploadMany;
// zero or less means unlimited.
func NewUploadOrchestrator(repo repository.DocumentRepository, concurrency int) *UploadOrchestrator {
	return &UploadOrchestrator{
		repo:        repo,
		concurrency: concurrency,
		now:         time.Now,
		records:     make(map[string]*UploadRecord),
	}
}

func (o *UploadOrchestrator) newID(file model.File) string {
	return fmt.Sprintf("%s-%d-%d-%d", file.Name(), file.Size(), o.now().UnixNano(), uploadSeq.Add(1))
}

// register inserts a record in uploading state at 0%.
func (o *UploadOrchestrator) register(file model.File) string {
	id := o.newID(file)
	o.mu.Lock()
	o.records[id] = &UploadRecord{
		ID:          id,
		FileName:    file.Name(),
		FileSize:    file.Size(),
		ContentType: file.ContentType(),
		Status:      UploadUploading,
	}
	o.order = append(o.order, id)
	o.mu.Unlock()
	return id
}

// DefaultMetadata fills every field of meta the caller left empty.
func DefaultMetadata(file model.File, meta model.UploadMetadata) model.UploadMetadata {
	name := file.Name()
	if meta.Title == "" {
		meta.Title = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if meta.Content == "" {
		meta.Content = "Uploaded file: " + name
	}
	if meta.Type == "" {
		meta.Type = file.ContentType()
	}
	if meta.Type == "" {
		meta.Type = "application/octet-stream"
	}
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	return meta
}

// UploadOne uploads file and creates a document. It returns nil on failure;
// the reason is on the file's record.
func (o *UploadOrchestrator) UploadOne(ctx context.Context, file model.File, meta model.UploadMetadata) *model.Document {
	doc, _ := o.run(ctx, o.register(file), file, meta)
	return doc
}

// UploadMany uploads every file concurrently and waits for all of them. One
// failure never affects another file. Successes come back in submission order.
func (o *UploadOrchestrator) UploadMany(ctx context.Context, files []model.File, meta model.UploadMetadata) []model.Document {
	return o.UploadBatch(ctx, files, meta).Documents
}

// UploadBatch is UploadMany reporting the records of this batch alone.
func (o *UploadOrchestrator) UploadBatch(ctx context.Context, files []model.File, meta model.UploadMetadata) Batch {
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = o.register(f)
	}

	var g errgroup.Group
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}
	docs := make([]*model.Document, len(files))
	recs := make([]UploadRecord, len(files))
	for i, f := range files {
		g.Go(func() error {
			docs[i], recs[i] = o.run(ctx, ids[i], f, meta)
			return nil
		})
	}
	_ = g.Wait()

	b := Batch{IDs: ids, Documents: make([]model.Document, 0, len(files)), Failed: []UploadRecord{}}
	for i, doc := range docs {
		if doc != nil {
			b.Documents = append(b.Documents, *doc)
		} else if recs[i].Status == UploadError {
			b.Failed = append(b.Failed, recs[i])
		}
	}
	return b
}

// run uploads one file and returns the document together with a snapshot of
// the finished record. The snapshot stays valid if the record is removed
// meanwhile.
func (o *UploadOrchestrator) run(ctx context.Context, id string, file model.File, meta model.UploadMetadata) (*model.Document, UploadRecord) {
	meta = DefaultMetadata(file, meta)

	doc, err := o.repo.UploadFileAndCreateDocument(ctx, file, meta, func(p int) {
		o.progress(id, p)
	})

	o.mu.Lock()
	defer o.mu.Unlock()
	rec, ok := o.records[id]
	if !ok {
		rec = &UploadRecord{ID: id, FileName: file.Name(), FileSize: file.Size(), ContentType: file.ContentType()}
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("upload_id", id).Str("file", file.Name()).Msg("error uploading file")
		rec.Status = UploadError
		rec.Error = api.Message(err, "unknown error uploading file")
		return nil, copyRecord(rec)
	}
	rec.Status = UploadSuccess
	rec.Progress = 100
	rec.Document = cloneDocument(doc)
	return cloneDocument(doc), copyRecord(rec)
}

// progress applies p to an uploading record, clamped and never decreasing.
func (o *UploadOrchestrator) progress(id string, p int) {
	p = min(max(p, 0), 100)
	o.mu.Lock()
	defer o.mu.Unlock()
	rec, ok := o.records[id]
	if !ok || rec.Status != UploadUploading || p < rec.Progress {
		return
	}
	rec.Progress = p
}

// Records returns a copy of every record in submission order.
func (o *UploadOrchestrator) Records() []UploadRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]UploadRecord, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, copyRecord(o.records[id]))
	}
	return out
}

func (o *UploadOrchestrator) Record(id string) (UploadRecord, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	rec, ok := o.records[id]
	if !ok {
		return UploadRecord{}, false
	}
	return copyRecord(rec), true
}

// IsUploading reports whether at least one record is uploading.
func (o *UploadOrchestrator) IsUploading() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, rec := range o.records {
		if rec.Status == UploadUploading {
			return true
		}
	}
	return false
}

// TotalProgress is the rounded mean progress of all records, 0 when empty.
func (o *UploadOrchestrator) TotalProgress() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if len(o.records) == 0 {
		return 0
	}
	sum := 0
	for _, rec := range o.records {
		sum += rec.Progress
	}
	return int(math.Round(float64(sum) / float64(len(o.records))))
}

// Successful returns the documents of successful records in submission order.
func (o *UploadOrchestrator) Successful() []model.Document {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := []model.Document{}
	for _, id := range o.order {
		if rec := o.records[id]; rec.Status == UploadSuccess && rec.Document != nil {
			out = append(out, *cloneDocument(rec.Document))
		}
	}
	return out
}

// Failed returns the records in error state in submission order.
func (o *UploadOrchestrator) Failed() []UploadRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := []UploadRecord{}
	for _, id := range o.order {
		if rec := o.records[id]; rec.Status == UploadError {
			out = append(out, copyRecord(rec))
		}
	}
	return out
}

// Clear discards every record.
func (o *UploadOrchestrator) Clear() {
	o.mu.Lock()
	o.order = nil
	o.records = make(map[string]*UploadRecord)
	o.mu.Unlock()
}

// Remove discards one record and reports whether it existed.
func (o *UploadOrchestrator) Remove(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.records[id]; !ok {
		return false
	}
	delete(o.records, id)
	o.order = slices.DeleteFunc(o.order, func(s string) bool { return s == id })
	return true
}

func copyRecord(rec *UploadRecord) UploadRecord {
	out := *rec
	out.Document = cloneDocument(rec.Document)
	return out
}
