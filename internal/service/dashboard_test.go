package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docsflow/internal/api"
	"docsflow/internal/model"
	repoMocks "docsflow/internal/repository/mocks"
)

func TestSummarize(t *testing.T) {
	docs := []model.Document{
		{ID: 1, Status: model.StatusPublished, Type: "pdf", FileSize: 100, UpdatedAt: "2024-01-03T00:00:00Z"},
		{ID: 2, Status: model.StatusDraft, Type: "pdf", FileSize: 50, UpdatedAt: "2024-01-05T00:00:00Z"},
		{ID: 3, Status: model.StatusArchived, Type: "docx", UpdatedAt: "2024-01-01T00:00:00Z"},
		{ID: 4, Status: "", UpdatedAt: "2024-01-04T00:00:00Z"},
		{ID: 5, Status: model.StatusDraft, Type: "txt", UpdatedAt: "2024-01-02T00:00:00Z"},
		{ID: 6, Status: model.StatusPublished, Type: "txt", UpdatedAt: "2023-12-31T00:00:00Z"},
	}

	s := Summarize(docs, 40)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 40, s.BackendTotal)
	assert.Equal(t, map[model.Status]int{model.StatusDraft: 3, model.StatusPublished: 2, model.StatusArchived: 1}, s.ByStatus)
	assert.Equal(t, map[string]int{"pdf": 2, "docx": 1, "txt": 2, "unknown": 1}, s.ByType)
	assert.Equal(t, int64(150), s.TotalBytes)

	require.Len(t, s.Recent, 5)
	ids := make([]int64, 0, 5)
	for _, d := range s.Recent {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []int64{2, 4, 1, 5, 3}, ids)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 0)
	assert.Zero(t, s.Total)
	assert.Equal(t, []model.Document{}, s.Recent)
	assert.Equal(t, 0, s.ByStatus[model.StatusDraft])
}

func TestDashboardRefresh(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockDocumentRepository)
	repo.On("List", mock.Anything, model.ListParams{Page: 1, Limit: 100}).
		Return(docPage(2, 1, 100, doc(1, "a"), doc(2, "b")), nil).Once()
	repo.On("List", mock.Anything, model.ListParams{Page: 1, Limit: 100}).
		Return(nil, &api.ServerError{StatusCode: 503, Message: "maintenance"}).Once()

	d := NewDashboard(repo)
	s, ok := d.Refresh(ctx)
	require.True(t, ok)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 2, s.ByStatus[model.StatusDraft])

	s, ok = d.Refresh(ctx)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Total, "previous documents are kept")
	assert.Equal(t, "maintenance", d.Err())
	assert.Error(t, d.LastError())
	assert.False(t, d.Loading())
}

func TestDashboardLoad(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockDocumentRepository)
	repo.On("List", mock.Anything, model.ListParams{Page: 1, Limit: 100}).
		Return(docPage(1, 1, 100, doc(1, "a")), nil).Once()
	repo.On("List", mock.Anything, model.ListParams{Page: 1, Limit: 100}).
		Return(nil, &api.NetworkError{Method: "GET", URL: "/documents/"}).Once()

	d := NewDashboard(repo)
	s, err := d.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Total)

	s, err = d.Load(ctx)
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "unable to reach the server", f.Message)
	assert.Equal(t, 1, s.Total)
}
