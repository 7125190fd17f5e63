package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Portal API",
        "description": "School administration and AI content portal",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Registration, login and session lifecycle"},
        {"name": "Schools", "description": "School profile and book catalogue"},
        {"name": "Teachers", "description": "Teacher roster management"},
        {"name": "Papers", "description": "Exam paper editor and lifecycle"},
        {"name": "Patterns", "description": "Reusable paper blueprints"},
        {"name": "Approvals", "description": "Exam approval workflow"},
        {"name": "Curriculum", "description": "Curriculum tracking and teaching logs"},
        {"name": "Leave", "description": "Teacher leave applications"},
        {"name": "Generation", "description": "AI content generation"},
        {"name": "Exports", "description": "Background exports and CSV reports"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a school with its admin account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterSchoolRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Exchange refresh token for new access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/papers": {
            "get": {
                "tags": ["Papers"],
                "summary": "List papers",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Papers"],
                "summary": "Create a blank draft paper",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePaperRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/papers/{id}": {
            "get": {
                "tags": ["Papers"],
                "summary": "Get a paper with its full tree",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Papers"],
                "summary": "Save the full paper tree",
                "description": "Overwrites the stored paper. The payload version must match the stored version.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SavePaperRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version conflict"}
                }
            },
            "delete": {
                "tags": ["Papers"],
                "summary": "Delete paper",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/papers/{id}/marks": {
            "get": {
                "tags": ["Papers"],
                "summary": "Report declared versus computed marks",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MarksSummary"}}
                }
            }
        },
        "/papers/{id}/confirm": {
            "post": {
                "tags": ["Papers"],
                "summary": "Confirm a paper",
                "description": "Moves the paper to SET. A marks mismatch blocks confirmation unless acknowledged.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmPaperRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Unacknowledged marks mismatch or version conflict"}
                }
            }
        },
        "/papers/{id}/send-for-approval": {
            "post": {
                "tags": ["Approvals"],
                "summary": "Send a paper for approval",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendForApprovalRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already pending or version conflict"}
                }
            }
        },
        "/papers/{id}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a paper export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "json"]}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/generate/paper": {
            "post": {
                "tags": ["Generation"],
                "summary": "Generate an exam paper draft with AI",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Generation failed"}
                }
            }
        },
        "/generate/quiz": {
            "post": {
                "tags": ["Generation"],
                "summary": "Generate a practice quiz with AI",
                "description": "Malformed model output is retried up to the configured cap before failing.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Generation failed"}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ExportJob"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export via signed URL",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "RegisterSchoolRequest": {
            "type": "object",
            "properties": {
                "school_name": {"type": "string"},
                "address": {"type": "string"},
                "city": {"type": "string"},
                "board": {"type": "string"},
                "admin_name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["school_name", "admin_name", "email", "password"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CreatePaperRequest": {
            "type": "object",
            "properties": {
                "class": {"type": "string"},
                "subject": {"type": "string"},
                "exam_type": {"type": "string"},
                "duration": {"type": "string"},
                "declared_total_marks": {"type": "integer"}
            },
            "required": ["class", "subject", "exam_type"]
        },
        "SavePaperRequest": {
            "type": "object",
            "properties": {
                "version": {"type": "integer"},
                "class": {"type": "string"},
                "subject": {"type": "string"},
                "exam_type": {"type": "string"},
                "duration": {"type": "string"},
                "declared_total_marks": {"type": "integer"},
                "status": {"type": "string"},
                "sections": {"type": "array", "items": {"type": "object"}}
            },
            "required": ["version"]
        },
        "ConfirmPaperRequest": {
            "type": "object",
            "properties": {
                "version": {"type": "integer"},
                "acknowledge_mismatch": {"type": "boolean"}
            },
            "required": ["version"]
        },
        "SendForApprovalRequest": {
            "type": "object",
            "properties": {
                "version": {"type": "integer"},
                "approver_id": {"type": "string"},
                "message": {"type": "string"}
            },
            "required": ["version", "approver_id"]
        },
        "MarksSummary": {
            "type": "object",
            "properties": {
                "declared_total_marks": {"type": "integer"},
                "computed_total": {"type": "integer"},
                "mismatch": {"type": "boolean"},
                "sections": {"type": "array", "items": {"type": "object"}}
            }
        },
        "ExportJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "paper_id": {"type": "string"},
                "format": {"type": "string"},
                "status": {"type": "string"},
                "download_url": {"type": "string"},
                "created_at": {"type": "string"},
                "finished_at": {"type": "string"},
                "error_message": {"type": "string"}
            }
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
