// Package swagger holds the OpenAPI document served at /swagger. It is
// maintained by hand and lists each route with its summary; keep it in step
// with the handler annotations when routes change.
package swagger

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
        "/api/auth/login": {"post": {"tags": ["auth"], "summary": "Login user"}},
        "/api/auth/register": {"post": {"tags": ["auth"], "summary": "Register"}},
        "/api/auth/refresh": {"post": {"tags": ["auth"], "summary": "Refresh token"}},
        "/api/auth/logout": {"post": {"tags": ["auth"], "summary": "Logout"}},
        "/api/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Get current user"}},
        "/api/users": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List users"}},
        "/api/users/{id}/roles": {"put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Set a user's roles and department"}},
        "/api/request": {"post": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Submit a request"}},
        "/api/requests": {"get": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "List requests"}},
        "/api/request/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Get a request"},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Edit a pending request"}
        },
        "/api/request/{id}/status": {"post": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Change request status"}},
        "/api/request/{id}/assign": {"post": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Assign personnel to a job"}},
        "/api/request/{id}/job-status": {"post": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Move an approved job through its own states"}},
        "/api/request/{id}/in-progress": {"post": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Mark an approved venue, vehicle or resource as in use"}},
        "/api/request/{id}/actions": {"get": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Action panel"}},
        "/api/request/{id}/activity": {"get": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Request activity log"}},
        "/api/request/{id}/items": {"post": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Add an item to a pending resource request"}},
        "/api/request/{id}/items/{itemId}": {
            "patch": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Change an item quantity"},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Remove an item"}
        },
        "/api/request/{id}/files": {"post": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Attach a file to a job request"}},
        "/api/request/{id}/files/{fileId}": {"get": {"security": [{"BearerAuth": []}], "tags": ["requests"], "summary": "Presigned download URL for an attachment"}},
        "/api/departments": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["departments"], "summary": "List departments"},
            "post": {"security": [{"BearerAuth": []}], "tags": ["departments"], "summary": "Create a department"}
        },
        "/api/department/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["departments"], "summary": "Department overview"}},
        "/api/department/{id}/insights": {"get": {"security": [{"BearerAuth": []}], "tags": ["departments"], "summary": "Department insights"}},
        "/api/dashboard/overview": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Dashboard overview"}},
        "/api/reports/user-job-report/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Job report for one member of personnel"}},
        "/api/calendar": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Scheduled venue bookings, trips and job due dates"}},
        "/api/meta/statuses": {"get": {"security": [{"BearerAuth": []}], "tags": ["meta"], "summary": "Every status and priority with its display badge"}},
        "/api/venues": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "List venues"},
            "post": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "Add a venue"}
        },
        "/api/vehicles": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "List vehicles"},
            "post": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "Add a vehicle"}
        },
        "/api/supply-items": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "List supply items"},
            "post": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "Add a supply item"}
        },
        "/api/notifications": {"get": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "List my notifications"}},
        "/api/notifications/{id}/read": {"put": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Mark a notification read"}},
        "/api/notifications/read-all": {"put": {"security": [{"BearerAuth": []}], "tags": ["notifications"], "summary": "Mark every notification read"}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Request Desk API",
	Description:      "Job, venue, transport and resource requests with review and approval workflow.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
