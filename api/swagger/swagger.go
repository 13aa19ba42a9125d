package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Pediforte Registration API",
        "description": "Student registration, passport upload and admin dashboard",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "SessionCookie": {"type": "apiKey", "in": "header", "name": "Cookie"},
        "SessionHeader": {"type": "apiKey", "in": "header", "name": "X-Session-ID"}
    },
    "tags": [
        {"name": "Students", "description": "Public registration and admin student management"},
        {"name": "Passports", "description": "Passport photo uploads and downloads"},
        {"name": "Rules", "description": "Versioned student rules and agreements"},
        {"name": "Admin", "description": "Admin sessions, dashboard and exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/api/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "course", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["all", "registered", "pending"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get a student",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/students/{id}/passport": {
            "post": {
                "tags": ["Passports"],
                "summary": "Upload a passport photo",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing, unsupported or oversized file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/students/{id}/agreement": {
            "post": {
                "tags": ["Rules"],
                "summary": "Record a rules agreement decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AgreementRequest"}}
                ],
                "responses": {"201": {"description": "Recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "get": {
                "tags": ["Rules"],
                "summary": "Agreement history of a student",
                "security": [{"SessionCookie": []}, {"SessionHeader": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/student-rules": {
            "get": {
                "tags": ["Rules"],
                "summary": "Active rules version",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No active rules", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/course-options": {
            "get": {
                "tags": ["Students"],
                "summary": "Course and payment options",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/passports/{token}": {
            "get": {
                "tags": ["Passports"],
                "summary": "Download a passport through a signed link",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/admin/login": {
            "post": {
                "tags": ["Admin"],
                "summary": "Start an admin session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/admin/logout": {
            "post": {
                "tags": ["Admin"],
                "summary": "End the current session",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/admin/me": {
            "get": {
                "tags": ["Admin"],
                "summary": "Current admin",
                "security": [{"SessionCookie": []}, {"SessionHeader": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/admin/students/{id}": {
            "put": {
                "tags": ["Students"],
                "summary": "Update a student",
                "security": [{"SessionCookie": []}, {"SessionHeader": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete a student",
                "security": [{"SessionCookie": []}, {"SessionHeader": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/admin/students/{id}/passport/link": {
            "get": {
                "tags": ["Passports"],
                "summary": "Issue a signed passport link",
                "security": [{"SessionCookie": []}, {"SessionHeader": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/admin/student-rules": {
            "get": {
                "tags": ["Rules"],
                "summary": "List rules versions",
                "security": [{"SessionCookie": []}, {"SessionHeader": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Rules"],
                "summary": "Create a rules version",
                "security": [{"SessionCookie": []}, {"SessionHeader": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRulesRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Rules"],
                "summary": "Activate a rules version",
                "security": [{"SessionCookie": []}, {"SessionHeader": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ActivateRulesRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/admin/rules-analytics": {
            "get": {
                "tags": ["Rules"],
                "summary": "Agreement coverage",
                "security": [{"SessionCookie": []}, {"SessionHeader": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/admin/dashboard": {
            "get": {
                "tags": ["Admin"],
                "summary": "Registration statistics",
                "security": [{"SessionCookie": []}, {"SessionHeader": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/admin/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export students",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"SessionCookie": []}, {"SessionHeader": []}],
                "parameters": [
                    {"name": "type", "in": "query", "type": "string", "enum": ["all", "registered", "pending"]},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        }
    },
    "definitions": {
        "CourseRequest": {
            "type": "object",
            "required": ["preferred_course"],
            "properties": {
                "preferred_course": {"type": "string"},
                "objectives": {"type": "object"},
                "prior_computer_knowledge": {"type": "string"},
                "seek_employment_opportunities": {"type": "boolean"},
                "hear_about_pediforte": {"type": "string"},
                "registration_date": {"type": "string", "format": "date"},
                "resumption_date": {"type": "string", "format": "date"}
            }
        },
        "StudentRequest": {
            "type": "object",
            "required": ["surname", "given_name", "email_address", "terms_agreed", "course_info"],
            "properties": {
                "surname": {"type": "string"},
                "given_name": {"type": "string"},
                "other_names": {"type": "string"},
                "email_address": {"type": "string", "format": "email"},
                "phone_number": {"type": "string"},
                "home_address": {"type": "string"},
                "dob": {"type": "string", "format": "date"},
                "gender": {"type": "string"},
                "terms_agreed": {"type": "boolean"},
                "course_info": {"$ref": "#/definitions/CourseRequest"},
                "payment_info": {"$ref": "#/definitions/PaymentRequest"}
            }
        },
        "PaymentRequest": {
            "type": "object",
            "description": "Fee record; accepted and returned on admin routes only.",
            "properties": {
                "course_price": {"type": "number", "minimum": 0},
                "amount_paid": {"type": "number", "minimum": 0},
                "payment_method": {"type": "string"},
                "receipt_no": {"type": "string", "maxLength": 50},
                "payment_status": {"type": "string", "enum": ["pending", "partial", "completed"]}
            }
        },
        "AgreementRequest": {
            "type": "object",
            "required": ["agreed"],
            "properties": {"agreed": {"type": "boolean"}}
        },
        "CreateRulesRequest": {
            "type": "object",
            "required": ["rules_content"],
            "properties": {
                "rules_content": {"type": "string"},
                "version": {"type": "string"},
                "activate": {"type": "boolean"}
            }
        },
        "ActivateRulesRequest": {
            "type": "object",
            "required": ["version"],
            "properties": {
                "version": {"type": "string"},
                "rules_content": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
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
