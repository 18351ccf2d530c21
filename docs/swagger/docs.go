// Package swagger registers the OpenAPI document served at /docs.
// Regenerate with: swag init -g main.go -o docs/swagger
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/killallgit/study-api"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/studies": {
            "get": {
                "description": "Scan the samples directory and report each study with its model count. Missing study structure is created on the fly.",
                "produces": ["application/json"],
                "tags": ["studies"],
                "summary": "List studies",
                "responses": {
                    "200": {"description": "Studies", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.StudySummary"}}},
                    "500": {"description": "Samples directory unreadable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/studies/{id}": {
            "get": {
                "description": "Model urls are built from the scheme and host the request used, so LAN clients receive reachable addresses.",
                "produces": ["application/json"],
                "tags": ["studies"],
                "summary": "Get study",
                "parameters": [
                    {"type": "string", "example": "case-001", "description": "Study ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Study detail", "schema": {"$ref": "#/definitions/models.Study"}},
                    "400": {"description": "Invalid study id", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Study not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/studies/{id}/annotations": {
            "post": {
                "description": "Overwrites the model's annotation file with exactly the given array. Last writer wins.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["studies"],
                "summary": "Save annotations for a model",
                "parameters": [
                    {"type": "string", "example": "case-001", "description": "Study ID", "name": "id", "in": "path", "required": true},
                    {"description": "Model id and its complete annotation list", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.SaveAnnotationsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SuccessResponse"}},
                    "400": {"description": "Missing modelId or invalid body", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Study or model not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/studies/{id}/videos": {
            "post": {
                "description": "Appends the descriptor with a server timestamp. Extra fields are stored verbatim.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["studies"],
                "summary": "Append video reference",
                "parameters": [
                    {"type": "string", "example": "case-001", "description": "Study ID", "name": "id", "in": "path", "required": true},
                    {"description": "Video descriptor (name, url, ...)", "name": "video", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Video"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SuccessResponse"}},
                    "400": {"description": "Missing name or invalid body", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Study not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/studies/{id}/activity": {
            "get": {
                "description": "Recent annotation saves and video appends, newest first",
                "produces": ["application/json"],
                "tags": ["studies"],
                "summary": "List study activity",
                "parameters": [
                    {"type": "string", "example": "case-001", "description": "Study ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Maximum entries (default 50, max 500)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Activity"}}},
                    "400": {"description": "Invalid limit", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Study not found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Activity log disabled", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports samples directory and activity database status",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}},
                    "503": {"description": "Unhealthy", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/version": {
            "get": {
                "produces": ["application/json"],
                "tags": ["version"],
                "summary": "Service version",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.VersionResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.Activity": {
            "type": "object",
            "properties": {
                "ID": {"type": "integer"},
                "CreatedAt": {"type": "string"},
                "study_id": {"type": "string"},
                "model_id": {"type": "string"},
                "action": {"type": "string", "enum": ["annotations_saved", "video_appended"]},
                "count": {"type": "integer"},
                "subject": {"type": "string"},
                "client": {"type": "string"}
            }
        },
        "models.Annotation": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "a1"},
                "modelId": {"type": "string", "example": "molar.stl"},
                "modelName": {"type": "string", "example": "molar.stl"},
                "position": {"type": "array", "items": {"type": "number"}},
                "text": {"type": "string", "example": "crack"},
                "createdAt": {"type": "integer", "example": 1760000000000},
                "author": {"type": "string", "example": "User"}
            }
        },
        "models.Model": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "molar.stl"},
                "name": {"type": "string", "example": "molar.stl"},
                "url": {"type": "string"},
                "type": {"type": "string", "enum": ["mesh-surface", "point-cloud-or-mesh", "gaussian-splat"], "example": "mesh-surface"},
                "opacity": {"type": "number", "example": 1},
                "visible": {"type": "boolean", "example": true},
                "position": {"type": "array", "items": {"type": "number"}},
                "rotation": {"type": "array", "items": {"type": "number"}},
                "scale": {"type": "array", "items": {"type": "number"}}
            }
        },
        "models.Study": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "models": {"type": "array", "items": {"$ref": "#/definitions/models.Model"}},
                "annotations": {"type": "array", "items": {"$ref": "#/definitions/models.Annotation"}},
                "videos": {"type": "array", "items": {"$ref": "#/definitions/models.Video"}}
            }
        },
        "models.StudySummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "case-001"},
                "name": {"type": "string", "example": "case-001"},
                "path": {"type": "string", "example": "/samples/case-001"},
                "modelCount": {"type": "integer", "example": 2}
            }
        },
        "models.Video": {
            "type": "object",
            "additionalProperties": true,
            "properties": {
                "name": {"type": "string", "example": "recording-1760000000000.webm"},
                "url": {"type": "string", "example": "/samples/case-001/videos/recording-1760000000000.webm"},
                "timestamp": {"type": "integer", "example": 1760000000000}
            }
        },
        "types.ComponentStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "error": {"type": "string"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Study not found"},
                "details": {}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "timestamp": {"type": "string"},
                "storage": {"$ref": "#/definitions/types.ComponentStatus"},
                "database": {"$ref": "#/definitions/types.ComponentStatus"}
            }
        },
        "types.SaveAnnotationsRequest": {
            "type": "object",
            "properties": {
                "modelId": {"type": "string", "example": "molar.stl"},
                "annotations": {"type": "array", "items": {"$ref": "#/definitions/models.Annotation"}}
            }
        },
        "types.SuccessResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true}
            }
        },
        "types.VersionResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Study Sync API"},
                "version": {"type": "string", "example": "1.0.0"},
                "description": {"type": "string"},
                "status": {"type": "string", "example": "running"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:3001",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Study Sync API",
	Description:      "Study, annotation and video ledger sync service for the 3D model viewer",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
