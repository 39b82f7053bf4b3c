// Package docs registers the gateway's OpenAPI description with swag.
package docs

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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "status, session", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/sensors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Read telemetry",
                "description": "Reads the device parameters from the portal. Missing values are reported as 0.",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Reading"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/set/co/{state}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Switch central heating on or off",
                "parameters": [{"enum": [0, 1], "type": "integer", "description": "0 or 1", "name": "state", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "co_status", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/set/cwu/{state}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Switch hot water on or off",
                "parameters": [{"enum": [0, 1], "type": "integer", "description": "0 or 1", "name": "state", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "cwu_status", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/set/temperature/co/{value}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Set the central heating setpoint",
                "parameters": [{"type": "number", "description": "Setpoint in °C", "name": "value", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "co_zadana", "schema": {"type": "object", "additionalProperties": {"type": "number"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/set/temperature/cwu/{value}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Set the hot water setpoint",
                "parameters": [{"type": "number", "description": "Setpoint in °C", "name": "value", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "cwu_zadana", "schema": {"type": "object", "additionalProperties": {"type": "number"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Per-request portal login",
                "parameters": [{"description": "Portal credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}],
                "responses": {
                    "200": {"description": "cookies", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "error, cookies", "schema": {"type": "object", "additionalProperties": true}},
                    "502": {"description": "error, cookies", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/session/relogin": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Force a new cached session",
                "responses": {
                    "200": {"description": "status, obtained_at", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/logs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "Audit log",
                "description": "Gateway events, oldest first. A date-only 'to' is inclusive of the whole day.",
                "parameters": [
                    {"type": "string", "description": "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')", "name": "from", "in": "query"},
                    {"type": "string", "description": "End of range. Date-only treated as end of day.", "name": "to", "in": "query"},
                    {"enum": ["LOGIN", "LOGIN_FAILED", "SESSION_EXPIRED", "SET_PARAMETER", "TELEMETRY"], "type": "string", "description": "Event type", "name": "type", "in": "query"},
                    {"type": "integer", "description": "Newest N events (default 200, max 1000)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, events", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["device"],
                "summary": "Live telemetry stream",
                "description": "WebSocket. Sends {\"type\":\"sensors\",\"data\":Reading} on connect and every interval.",
                "parameters": [
                    {"type": "string", "description": "Go duration, 1s..5m", "name": "interval", "in": "query"},
                    {"type": "integer", "description": "Milliseconds, 1000..300000", "name": "interval_ms", "in": "query"}
                ],
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string", "example": "secret"},
                "username": {"type": "string", "example": "jan@example.com"}
            }
        },
        "handlers.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "models.Reading": {
            "type": "object",
            "properties": {
                "temp_zewnetrzna": {"type": "number"},
                "temp_co": {"type": "number"},
                "temp_cwu": {"type": "number"},
                "temp_zasilania": {"type": "number"},
                "temp_powrotu": {"type": "number"},
                "co_zadana": {"type": "number"},
                "cwu_zadana": {"type": "number"},
                "co_status": {"type": "integer"},
                "cwu_status": {"type": "integer"},
                "sprezarka_status": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "GSJ heat pump gateway",
	Description:      "Local HTTP API in front of the GSJ Energia portal.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
