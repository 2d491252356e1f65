package model

import "io"

// User is the authenticated principal as reported by GET /users/me.
type User struct {
	ID           int64  `json:"id"`
	Role         string `json:"role"`
	DepartmentID *int64 `json:"department_id"`
	Email        string `json:"email,omitempty"`
	Name         string `json:"name,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// File is an upload payload. Open may be called more than once; each call
// returns a fresh reader positioned at the start.
type File interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}
