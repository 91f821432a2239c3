package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tuition Planning API",
        "description": "Session planning and tuition billing engine",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Plans", "description": "Session planning, manual overrides and ledger commit"},
        {"name": "Catalog", "description": "Class catalog reads and cache maintenance"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/plans/regenerate": {
            "post": {
                "tags": ["Plans"],
                "summary": "Rebuild the session plan for the current selection",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegeneratePlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/{id}": {
            "get": {
                "tags": ["Plans"],
                "summary": "Get the current overlayed plan view",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/{id}/toggle": {
            "post": {
                "tags": ["Plans"],
                "summary": "Toggle a single calendar date on the plan",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ToggleDateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plans/{id}/commit": {
            "post": {
                "tags": ["Plans"],
                "summary": "Commit the plan to the tuition ledger",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/ledger": {
            "get": {
                "tags": ["Plans"],
                "summary": "List a student's committed ledger records for a billing period",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "month", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Get one class with its weekly schedule rules",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/cache": {
            "delete": {
                "tags": ["Catalog"],
                "summary": "Drop cached catalog entries for one class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "cache invalidated"}
                }
            }
        }
    },
    "definitions": {
        "StudentSelection": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "classId": {"type": "string"}
            },
            "required": ["studentId", "classId"]
        },
        "DateOverride": {
            "type": "object",
            "properties": {
                "classId": {"type": "string"},
                "date": {"type": "string", "format": "date"}
            },
            "required": ["classId", "date"]
        },
        "RegeneratePlanRequest": {
            "type": "object",
            "properties": {
                "planId": {"type": "string"},
                "year": {"type": "integer"},
                "month": {"type": "integer"},
                "selection": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/StudentSelection"}
                },
                "startOverrides": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/DateOverride"}
                },
                "endOverrides": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/DateOverride"}
                },
                "autoStart": {"type": "array", "items": {"type": "string"}},
                "autoEnd": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["year", "month"]
        },
        "ToggleDateRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"},
                "classId": {"type": "string"}
            },
            "required": ["date"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
