package service

import (
	"cmp"
	"context"
	"slices"

	"docsflow/internal/model"
	"docsflow/internal/repository"
)

// dashboardParams mirrors the single large page the dashboard loads.
var dashboardParams = model.ListParams{Page: 1, Limit: 100}

const recentCount = 5

// Summary aggregates the documents loaded by a Dashboard.
type Summary struct {
	Total        int                  `json:"total"`
	BackendTotal int                  `json:"backendTotal"`
	ByStatus     map[model.Status]int `json:"byStatus"`
	ByType       map[string]int       `json:"byType"`
	TotalBytes   int64                `json:"totalBytes"`
	Recent       []model.Document     `json:"recent"`
}

// Dashboard owns its own controller so it never disturbs a list view.
type Dashboard struct {
	docs *DocumentController
}

func NewDashboard(repo repository.DocumentRepository) *Dashboard {
	return &Dashboard{
		docs: NewDocumentController(repo, ControllerOptions{InitialParams: dashboardParams, DefaultLimit: dashboardParams.Limit}),
	}
}

// Refresh reloads the dashboard page. On failure the previous documents are
// kept and Err explains why.
func (d *Dashboard) Refresh(ctx context.Context) (Summary, bool) {
	s, err := d.Load(ctx)
	return s, err == nil
}

// Load is Refresh returning the error of this call, as CheckedController does.
// The summary is returned even on failure.
func (d *Dashboard) Load(ctx context.Context) (Summary, error) {
	err := d.docs.Checked().Fetch(ctx, dashboardParams)
	return d.Summary(), err
}

func (d *Dashboard) Err() string { return d.docs.Err() }

func (d *Dashboard) LastError() error { return d.docs.LastError() }

func (d *Dashboard) Loading() bool { return d.docs.Loading() }

// Summary computes the aggregate over the currently loaded documents.
func (d *Dashboard) Summary() Summary {
	return Summarize(d.docs.Documents(), d.docs.Pagination().Total)
}

// Summarize aggregates docs. backendTotal is reported as is.
func Summarize(docs []model.Document, backendTotal int) Summary {
	s := Summary{
		Total:        len(docs),
		BackendTotal: backendTotal,
		ByStatus: map[model.Status]int{
			model.StatusDraft:     0,
			model.StatusPublished: 0,
			model.StatusArchived:  0,
		},
		ByType: map[string]int{},
	}
	for _, doc := range docs {
		s.ByStatus[model.ParseStatus(string(doc.Status))]++
		t := doc.Type
		if t == "" {
			t = "unknown"
		}
		s.ByType[t]++
		s.TotalBytes += doc.FileSize
	}

	recent := slices.Clone(docs)
	slices.SortStableFunc(recent, func(a, b model.Document) int {
		return cmp.Compare(b.UpdatedAt, a.UpdatedAt)
	})
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}
	if recent == nil {
		recent = []model.Document{}
	}
	s.Recent = recent
	return s
}
