// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["ops"], "summary": "Session store health", "responses": {"200": {"description": "healthy"}, "503": {"description": "dependency unavailable"}}}
        },
        "/healthz": {
            "get": {"tags": ["ops"], "summary": "Liveness probe", "responses": {"200": {"description": "alive"}}}
        },
        "/api/auth/login": {
            "post": {
                "tags": ["auth"], "summary": "Sign in", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "credentials", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "signed in"}, "400": {"description": "validation error"}, "401": {"description": "invalid credentials"}, "409": {"description": "already signed in"}}
            }
        },
        "/api/auth/logout": {
            "post": {"tags": ["auth"], "summary": "Sign out", "responses": {"204": {"description": "signed out"}}}
        },
        "/api/auth/me": {
            "get": {"tags": ["auth"], "summary": "Current auth state", "produces": ["application/json"], "responses": {"200": {"description": "auth state"}}}
        },
        "/api/auth/forgot-password": {
            "post": {"tags": ["auth"], "summary": "Request a reset email", "consumes": ["application/json"], "responses": {"200": {"description": "message"}}}
        },
        "/api/auth/reset-password": {
            "post": {"tags": ["auth"], "summary": "Reset password with a token", "consumes": ["application/json"], "responses": {"200": {"description": "message"}, "400": {"description": "validation error"}}}
        },
        "/api/auth/reset-password/validate": {
            "get": {
                "tags": ["auth"], "summary": "Check reset token shape",
                "parameters": [{"in": "query", "name": "token", "type": "string"}],
                "responses": {"200": {"description": "validity"}}
            }
        },
        "/api/documents": {
            "get": {
                "tags": ["documents"], "summary": "List or search documents", "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "limit", "type": "integer"},
                    {"in": "query", "name": "q", "type": "string"}
                ],
                "responses": {"200": {"description": "page of documents"}, "401": {"description": "sign in required"}, "502": {"description": "backend unavailable"}}
            },
            "post": {
                "tags": ["documents"], "summary": "Create a metadata-only document", "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "document", "required": true, "schema": {"$ref": "#/definitions/CreateDocument"}}],
                "responses": {"201": {"description": "created"}, "400": {"description": "validation error"}}
            }
        },
        "/api/documents/{id}": {
            "get": {"tags": ["documents"], "summary": "Get a document", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "document"}, "404": {"description": "not found"}}},
            "put": {"tags": ["documents"], "summary": "Update a document", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"200": {"description": "document"}, "400": {"description": "validation error"}}},
            "delete": {"tags": ["documents"], "summary": "Delete a document", "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}], "responses": {"204": {"description": "deleted"}}}
        },
        "/api/documents/{id}/file": {
            "post": {
                "tags": ["documents"], "summary": "Attach a file", "consumes": ["multipart/form-data"],
                "parameters": [{"in": "path", "name": "id", "type": "integer", "required": true}, {"in": "formData", "name": "file", "type": "file", "required": true}],
                "responses": {"200": {"description": "document"}}
            }
        },
        "/api/uploads": {
            "get": {"tags": ["uploads"], "summary": "Upload records of this session", "responses": {"200": {"description": "records"}}},
            "post": {
                "tags": ["uploads"], "summary": "Upload files, one document each", "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "formData", "name": "files", "type": "file", "required": true},
                    {"in": "formData", "name": "title", "type": "string"},
                    {"in": "formData", "name": "content", "type": "string"},
                    {"in": "formData", "name": "type", "type": "string"},
                    {"in": "formData", "name": "tags", "type": "string"},
                    {"in": "formData", "name": "department_id", "type": "integer"}
                ],
                "responses": {"200": {"description": "batch result"}}
            },
            "delete": {"tags": ["uploads"], "summary": "Clear upload records", "responses": {"204": {"description": "cleared"}}}
        },
        "/api/uploads/{id}": {
            "delete": {"tags": ["uploads"], "summary": "Remove one upload record", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"204": {"description": "removed"}, "404": {"description": "not found"}}}
        },
        "/api/dashboard": {
            "get": {"tags": ["dashboard"], "summary": "Document summary", "responses": {"200": {"description": "summary"}}}
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "CreateDocument": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "type": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "DocsFlow Gateway",
	Description:      "Browser-facing gateway over the DocsFlow document backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
