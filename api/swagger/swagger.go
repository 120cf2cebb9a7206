package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "UMS API",
        "description": "University management backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Login, tokens and password management"},
        {"name": "Accounts", "description": "Teacher, staff and admin account lifecycle"},
        {"name": "Courses", "description": "Course catalog and prerequisite graph"},
        {"name": "SessionCourses", "description": "Courses offered within an academic session"},
        {"name": "Schedules", "description": "Weekly timetable"},
        {"name": "References", "description": "Departments, sessions and batches"},
        {"name": "Enrollments", "description": "Batch fan-out and per-student enrollment"},
        {"name": "Library", "description": "Catalog, circulation, reservations and fines"},
        {"name": "Workspaces", "description": "Course-batch collaboration spaces"},
        {"name": "Chat", "description": "Batch and course group messaging"},
        {"name": "Quizzes", "description": "Assessments and attempts"},
        {"name": "Proposals", "description": "Generated schedule proposals"},
        {"name": "Committee", "description": "Grade approval pipeline"},
        {"name": "Alerts", "description": "Operational alerts"},
        {"name": "FaceRecognition", "description": "Face recognition service proxy"},
        {"name": "Reports", "description": "Asynchronous exports"}
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
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
