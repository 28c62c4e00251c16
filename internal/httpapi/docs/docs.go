// Package docs registers the OpenAPI document served by the Swagger UI.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/prompt": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/x-ndjson"],
                "summary": "Queue a prompt and stream its lifecycle",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.PromptRequest"}}],
                "responses": {
                    "200": {"description": "NDJSON stream of events", "schema": {"$ref": "#/definitions/types.PromptEvent"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/settings": {
            "get": {
                "produces": ["application/json"],
                "summary": "Current provider settings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SettingsResponse"}}}
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Change provider, model or system prompt",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/types.SettingsUpdate"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SettingsResponse"}},
                    "400": {"description": "Unknown provider", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/providers": {
            "get": {
                "produces": ["application/json"],
                "summary": "Configured providers",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ProvidersResponse"}}}
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "summary": "Models offered by the current provider",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}},
                    "501": {"description": "Not supported by provider", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Provider error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Queue status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/healthz": {"get": {"summary": "Liveness", "responses": {"200": {"description": "ok"}}}},
        "/readyz": {"get": {"summary": "Readiness", "responses": {"200": {"description": "ready"}, "503": {"description": "starting"}}}}
    },
    "definitions": {
        "types.PromptRequest": {
            "type": "object",
            "required": ["prompt"],
            "properties": {
                "id": {"type": "string", "example": "msg-1234"},
                "prompt": {"type": "string", "example": "Write a haiku about the ocean."}
            }
        },
        "types.PromptEvent": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["queued", "started", "success", "timeout", "error", "rate_limited"]},
                "id": {"type": "string"},
                "position": {"type": "integer"},
                "ahead": {"type": "integer"},
                "text": {"type": "string"},
                "segments": {"type": "array", "items": {"type": "string"}},
                "error": {"type": "string"},
                "reset_at_unix_ms": {"type": "integer"},
                "provider": {"type": "string"},
                "model": {"type": "string"},
                "waited_ms": {"type": "integer"},
                "elapsed_ms": {"type": "integer"}
            }
        },
        "types.SettingsResponse": {
            "type": "object",
            "properties": {
                "provider": {"type": "string", "example": "ollama"},
                "model": {"type": "string"},
                "system_prompt": {"type": "string"}
            }
        },
        "types.SettingsUpdate": {
            "type": "object",
            "properties": {
                "provider": {"type": "string", "example": "deepseek"},
                "model": {"type": "string"},
                "system_prompt": {"type": "string"}
            }
        },
        "types.ProvidersResponse": {
            "type": "object",
            "properties": {
                "providers": {"type": "array", "items": {"type": "string"}},
                "current": {"type": "string"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "provider": {"type": "string"},
                "models": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "running": {"type": "boolean"},
                "busy": {"type": "boolean"},
                "current": {"type": "string"},
                "pending": {"type": "integer"},
                "settings": {"$ref": "#/definitions/types.SettingsResponse"},
                "deadline_ms": {"type": "integer"},
                "totals": {"type": "object", "additionalProperties": {"type": "integer"}},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "promptq API",
	Description:      "Single-flight prompt queue in front of LLM backends.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
