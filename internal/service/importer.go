package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"docsflow/internal/model"
	"docsflow/internal/storage"
)

// ImportResult reports one bucket import.
type ImportResult struct {
	Listed    int              `json:"listed"`
	Documents []model.Document `json:"documents"`
	Failed    []UploadRecord   `json:"failed"`
}

// Importer feeds objects from a bucket into an UploadOrchestrator.
type Importer struct {
	store   storage.Storage
	uploads *UploadOrchestrator
}

func NewImporter(store storage.Storage, uploads *UploadOrchestrator) *Importer {
	return &Importer{store: store, uploads: uploads}
}

// Import uploads every object under prefix. Listing errors abort the import;
// per-object failures only show up in Failed.
func (i *Importer) Import(ctx context.Context, prefix string, meta model.UploadMetadata) (*ImportResult, error) {
	objects, err := i.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list bucket: %w", err)
	}

	files := make([]model.File, 0, len(objects))
	for _, obj := range objects {
		files = append(files, ObjectFile(ctx, i.store, obj))
	}

	log.Ctx(ctx).Info().Str("prefix", prefix).Int("objects", len(files)).Msg("bucket import started")

	batch := i.uploads.UploadBatch(ctx, files, meta)
	res := &ImportResult{Listed: len(objects), Documents: batch.Documents, Failed: batch.Failed}

	log.Ctx(ctx).Info().
		Int("imported", len(res.Documents)).
		Int("failed", len(res.Failed)).
		Msg("bucket import finished")
	return res, nil
}
