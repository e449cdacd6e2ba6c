package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Batch API",
        "description": "Course end dates, offerable slots and batch waiting lists",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Scheduling", "description": "End date projection and offerable slots"},
        {"name": "Batches", "description": "Batch assignment and waiting lists"},
        {"name": "Reports", "description": "Staff completion reports"}
    ],
    "paths": {
        "/scheduling/end-date": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Project a course end date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EndDateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/end-date": {
            "post": {
                "tags": ["Scheduling"],
                "summary": "Recompute an enrollment's total hours and end date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/{id}/slots": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "List offerable slots for a staff member",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "session_length", "in": "query", "required": true, "type": "number"},
                    {"name": "frequency", "in": "query", "type": "string", "enum": ["DAILY", "ALTERNATE_DAYS", "WEEKEND", "ONLY_SUNDAY", "ONLY_SATURDAY"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No offerable slot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/{id}/frequencies": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "List frequencies a staff member can offer",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/{id}/session-lengths": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "List session lengths a staff member can host",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batches/assign": {
            "post": {
                "tags": ["Batches"],
                "summary": "Assign a student to a batch or its waiting list",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignBatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Waitlisted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Unauthorized role", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batches": {
            "get": {
                "tags": ["Batches"],
                "summary": "List batches with occupancy",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "staff_id", "in": "query", "type": "string"},
                    {"name": "frequency", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batches/waiting-list": {
            "get": {
                "tags": ["Batches"],
                "summary": "List pending waiting-list entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "staff_id", "in": "query", "type": "string"},
                    {"name": "frequency", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batches/vacant": {
            "get": {
                "tags": ["Batches"],
                "summary": "List batches with free seats",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "staff_id", "in": "query", "type": "string"},
                    {"name": "frequency", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batches/delayed": {
            "get": {
                "tags": ["Batches"],
                "summary": "List students whose enrollment end date has passed",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "as_of", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batches/{id}/waiting/{studentId}/approve": {
            "post": {
                "tags": ["Batches"],
                "summary": "Approve a waiting-list entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "402": {"description": "Payment required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Capacity exceeded or invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batches/{id}/waiting/{studentId}/disapprove": {
            "post": {
                "tags": ["Batches"],
                "summary": "Disapprove a waiting-list entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/WaitingDecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/batches/{id}/students/{studentId}/complete": {
            "post": {
                "tags": ["Batches"],
                "summary": "Mark a seated student as completed",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/staff-completions": {
            "get": {
                "tags": ["Reports"],
                "summary": "Monthly completions per staff member",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "staff_id", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "description": "YYYY-MM"},
                    {"name": "to", "in": "query", "type": "string", "description": "YYYY-MM"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "EndDateRequest": {
            "type": "object",
            "properties": {
                "total_duration_hours": {"type": "number"},
                "session_length_hours": {"type": "number"},
                "frequency": {"type": "string", "enum": ["DAILY", "ALTERNATE_DAYS", "WEEKEND", "ONLY_SUNDAY", "ONLY_SATURDAY"]},
                "start_date": {"type": "string", "format": "date"},
                "break_dates": {"type": "array", "items": {"type": "string", "format": "date"}}
            }
        },
        "AssignBatchRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "enrollment_id": {"type": "string"},
                "course_id": {"type": "string"},
                "staff_id": {"type": "string"},
                "time_slot": {"type": "string", "example": "10:00-12:00"},
                "frequency": {"type": "string", "enum": ["DAILY", "ALTERNATE_DAYS", "WEEKEND", "ONLY_SUNDAY", "ONLY_SATURDAY"]},
                "session_length_hours": {"type": "number"}
            },
            "required": ["student_id", "enrollment_id", "course_id", "staff_id", "frequency"]
        },
        "WaitingDecisionRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
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
