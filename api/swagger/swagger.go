package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutor Availability API",
        "description": "Recurring availability scheduling for the tutoring platform",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Availability", "description": "Availability rules, calendars and conflict checks"}
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
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unavailable"}
                }
            }
        },
        "/tutors/{id}/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "Expanded availability calendar for a tutor",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "timezone", "in": "query", "type": "string", "description": "IANA zone for display times"}
                ],
                "responses": {
                    "200": {"description": "Calendar window", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid window or timezone"}
                }
            }
        },
        "/tutors/{id}/availability/import": {
            "post": {
                "tags": ["Availability"],
                "summary": "Import availability from a legacy payload",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "timezone", "in": "query", "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Imported", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unrecognized payload shape"}
                }
            }
        },
        "/tutors/{id}/availability/export": {
            "get": {
                "tags": ["Availability"],
                "summary": "Download a tutor schedule as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "timezone", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Rendered file"},
                    "400": {"description": "Unsupported format"},
                    "403": {"description": "Export disabled"}
                }
            }
        },
        "/availability/rules": {
            "post": {
                "tags": ["Availability"],
                "summary": "Create a recurring availability series",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRuleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlap conflict"}
                }
            }
        },
        "/availability/rules/{id}": {
            "put": {
                "tags": ["Availability"],
                "summary": "Apply a scoped edit (single, future or series)",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScopedEditRequest"}}
                ],
                "responses": {
                    "200": {"description": "Mutation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Rule not found"},
                    "409": {"description": "Overlap conflict"}
                }
            },
            "delete": {
                "tags": ["Availability"],
                "summary": "Delete a rule, instance or future portion",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScopedEditRequest"}}
                ],
                "responses": {
                    "200": {"description": "Mutation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Rule not found"}
                }
            }
        },
        "/availability/slots": {
            "post": {
                "tags": ["Availability"],
                "summary": "Create a one-off availability slot",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlap conflict"}
                }
            }
        },
        "/availability/conflicts/check": {
            "post": {
                "tags": ["Availability"],
                "summary": "Check a candidate slot for overlap",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "Conflict result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateRuleRequest": {
            "type": "object",
            "required": ["tutor_id", "recurrence_days", "start_time", "end_time", "series_start", "series_end"],
            "properties": {
                "tutor_id": {"type": "string"},
                "course_id": {"type": "string"},
                "recurrence_days": {"type": "array", "items": {"type": "integer"}, "description": "Sunday-first weekday indexes (0-6)"},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "10:00"},
                "timezone": {"type": "string", "example": "America/Chicago"},
                "series_start": {"type": "string", "format": "date"},
                "series_end": {"type": "string", "format": "date"},
                "force": {"type": "boolean", "description": "Skip the overlap check"}
            }
        },
        "CreateSlotRequest": {
            "type": "object",
            "required": ["tutor_id", "date", "start_time", "end_time"],
            "properties": {
                "tutor_id": {"type": "string"},
                "course_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "timezone": {"type": "string"},
                "force": {"type": "boolean"}
            }
        },
        "ScopedEditRequest": {
            "type": "object",
            "required": ["scope"],
            "properties": {
                "scope": {"type": "string", "enum": ["single", "future", "series"]},
                "target_date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "course_id": {"type": "string"},
                "clear_course": {"type": "boolean"},
                "recurrence_days": {"type": "array", "items": {"type": "integer"}},
                "force": {"type": "boolean"}
            }
        },
        "ConflictCheckRequest": {
            "type": "object",
            "required": ["tutor_id", "date", "start_time", "end_time"],
            "properties": {
                "tutor_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "timezone": {"type": "string"},
                "exclude_id": {"type": "string"}
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
                "pagination": {"type": "object"},
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
