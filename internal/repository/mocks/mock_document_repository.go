package mocks

import (
	"context"

	"docsflow/internal/model"
	"docsflow/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

var _ repository.DocumentRepository = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) List(ctx context.Context, params model.ListParams) (*model.DocumentPage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentPage), args.Error(1)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id int64) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Create(ctx context.Context, data model.CreateDocumentData) (*model.Document, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, id int64, data model.UpdateDocumentData) (*model.Document, error) {
	args := m.Called(ctx, id, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) Search(ctx context.Context, query string, params model.ListParams) (*model.DocumentPage, error) {
	args := m.Called(ctx, query, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentPage), args.Error(1)
}

func (m *MockDocumentRepository) UploadFile(ctx context.Context, id int64, file model.File) (*model.Document, error) {
	args := m.Called(ctx, id, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) UploadFileAndCreateDocument(ctx context.Context, file model.File, meta model.UploadMetadata, onProgress func(int)) (*model.Document, error) {
	args := m.Called(ctx, file, meta, onProgress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) UploadFileOnly(ctx context.Context, file model.File, onProgress func(int)) (*model.FileRef, error) {
	args := m.Called(ctx, file, onProgress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FileRef), args.Error(1)
}
