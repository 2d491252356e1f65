package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"

	"docsflow/internal/model"
	"docsflow/internal/storage"
)

func contentTypeByName(name string) string {
	return mime.TypeByExtension(filepath.Ext(name))
}

type localFile struct {
	path        string
	name        string
	size        int64
	contentType string
}

// LocalFile describes a file on disk. The content type is guessed from the
// extension and left empty when unknown.
func LocalFile(p string) (model.File, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p)
	}
	return &localFile{
		path:        p,
		name:        filepath.Base(p),
		size:        info.Size(),
		contentType: contentTypeByName(p),
	}, nil
}

func (f *localFile) Name() string { return f.name }

func (f *localFile) Size() int64 { return f.size }

func (f *localFile) ContentType() string { return f.contentType }

func (f *localFile) Open() (io.ReadCloser, error) { return os.Open(f.path) }

type bytesFile struct {
	name        string
	contentType string
	data        []byte
}

// BytesFile wraps an in-memory payload.
func BytesFile(name, contentType string, data []byte) model.File {
	return &bytesFile{name: name, contentType: contentType, data: data}
}

func (f *bytesFile) Name() string { return f.name }

func (f *bytesFile) Size() int64 { return int64(len(f.data)) }

func (f *bytesFile) ContentType() string { return f.contentType }

func (f *bytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type multipartFile struct {
	header *multipart.FileHeader
}

// MultipartFile adapts a file received by the gateway.
func MultipartFile(h *multipart.FileHeader) model.File {
	return &multipartFile{header: h}
}

func (f *multipartFile) Name() string { return filepath.Base(f.header.Filename) }

func (f *multipartFile) Size() int64 { return f.header.Size }

func (f *multipartFile) ContentType() string {
	if ct := f.header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return contentTypeByName(f.header.Filename)
}

func (f *multipartFile) Open() (io.ReadCloser, error) { return f.header.Open() }

type objectFile struct {
	ctx   context.Context
	store storage.Storage
	info  storage.ObjectInfo
}

// ObjectFile streams an object from store. ctx bounds every Open.
func ObjectFile(ctx context.Context, store storage.Storage, info storage.ObjectInfo) model.File {
	return &objectFile{ctx: ctx, store: store, info: info}
}

func (f *objectFile) Name() string { return path.Base(f.info.Key) }

func (f *objectFile) Size() int64 { return f.info.Size }

func (f *objectFile) ContentType() string {
	if f.info.ContentType != "" {
		return f.info.ContentType
	}
	return contentTypeByName(f.info.Key)
}

func (f *objectFile) Open() (io.ReadCloser, error) {
	rc, _, err := f.store.Get(f.ctx, f.info.Key)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", f.info.Key, err)
	}
	return rc, nil
}
