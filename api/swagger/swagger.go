package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Gradebook API",
        "description": "Grades aggregation engine for the school dashboards",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Hierarchy", "description": "Levels, class sections and subjects"},
        {"name": "Journal", "description": "Score journal loading, entry and export"},
        {"name": "Summaries", "description": "Per-student subject grade summaries"}
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
        "/levels": {
            "get": {
                "tags": ["Hierarchy"],
                "summary": "Resolve grade levels visible to the actor",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes": {
            "get": {
                "tags": ["Hierarchy"],
                "summary": "Resolve class sections",
                "parameters": [
                    {"name": "levelId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/mine": {
            "get": {
                "tags": ["Hierarchy"],
                "summary": "Flat list of the acting teacher's class sections",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/subjects": {
            "get": {
                "tags": ["Hierarchy"],
                "summary": "List a class section's subjects",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/quarters": {
            "get": {
                "tags": ["Journal"],
                "summary": "List the global grading quarters",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/subjects/{sid}/journal": {
            "get": {
                "tags": ["Journal"],
                "summary": "Load the journal table for one class+subject+quarter",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "sid", "in": "path", "required": true, "type": "string"},
                    {"name": "quarterId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{id}/subjects/{sid}/journal/export": {
            "get": {
                "tags": ["Journal"],
                "summary": "Export the journal table as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "sid", "in": "path", "required": true, "type": "string"},
                    {"name": "quarterId", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/scores": {
            "post": {
                "tags": ["Journal"],
                "summary": "Upsert one score cell",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/WriteScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/summaries": {
            "get": {
                "tags": ["Summaries"],
                "summary": "Per-subject grade summaries for one student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "WriteScoreRequest": {
            "type": "object",
            "required": ["student_id", "lesson_id", "quarter_id"],
            "properties": {
                "student_id": {"type": "string"},
                "lesson_id": {"type": "string"},
                "quarter_id": {"type": "string"},
                "score": {"type": "number"}
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
