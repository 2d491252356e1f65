package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"

	"docsflow/internal/model"
)

// Field is a plain multipart form value.
type Field struct {
	Name  string
	Value string
}

// Form is a multipart body: fields first, then an optional single file.
type Form struct {
	Fields    []Field
	FileField string
	File      model.File
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encode stages the whole body in memory so its length is known up front.
func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f.Fields {
		if err := w.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.Name, err)
		}
	}

	if f.File != nil {
		name := f.FileField
		if name == "" {
			name = "file"
		}
		contentType := f.File.ContentType()
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(name), quoteEscaper.Replace(f.File.Name())))
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		src, err := f.File.Open()
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", f.File.Name(), err)
		}
		_, err = io.Copy(part, src)
		src.Close()
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", f.File.Name(), err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// progressReader reports round(sent*100/total) each time the value changes.
type progressReader struct {
	r     io.Reader
	total int64

	mu   sync.Mutex
	sent int64
	last int
	fn   func(int)
}

func newProgressReader(r io.Reader, total int64, fn func(int)) *progressReader {
	return &progressReader{r: r, total: total, last: -1, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.mu.Lock()
		p.sent += int64(n)
		pct := int((p.sent*100 + p.total/2) / p.total)
		changed := pct != p.last
		p.last = pct
		p.mu.Unlock()
		if changed {
			p.fn(pct)
		}
	}
	return n, err
}
