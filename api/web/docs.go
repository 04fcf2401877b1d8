// Package web registers the Swagger document of the web front end. It is
// kept in sync with the swag annotations in internal/web/http.
package web

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
        "/auth/login": {
            "post": {
                "description": "Checks identifier and password against the backend. On success a pending\nlogin ticket is stored in the session; it does not authenticate anything.\nWrong identifier and wrong password produce the same answer.",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Password step",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Pending login", "schema": {"$ref": "#/definitions/http.LoginResponse"}},
                    "400": {"description": "Missing or invalid fields", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "invalid_credentials", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/auth/login/verify": {
            "post": {
                "description": "Submits the one-time code for the pending login. On success the session is\nauthenticated and the ticket is gone. A wrong code keeps the ticket.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Second factor step",
                "parameters": [
                    {
                        "description": "Code and method",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.VerifyRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Authenticated", "schema": {"$ref": "#/definitions/http.StateResponse"}},
                    "400": {"description": "validation_error or code_rejected", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "ticket_expired, start over at restart", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/auth/login/resend": {
            "post": {
                "description": "Asks the backend to deliver a new code for the pending login. The ticket\nkeeps its original expiry.",
                "tags": ["Auth"],
                "summary": "Resend the one-time code",
                "responses": {
                    "204": {"description": "Code sent"},
                    "401": {"description": "ticket_expired", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "description": "Removes every session value, pending or finished. No backend call is made.",
                "tags": ["Auth"],
                "summary": "End the session",
                "responses": {
                    "204": {"description": "Logged out"}
                }
            }
        },
        "/auth/session": {
            "get": {
                "description": "Reports the stored session state and, when a finished session exists,\nwhether the backend accepts it right now. Never renews the session.",
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.SessionResponse"}}
                }
            }
        },
        "/api/{path}": {
            "get": {
                "description": "Relays the request to the backend with the session's access token. A 401\nis answered by renewing the session once and replaying once. If that is\nnot possible the browser is sent to the login page.\n\nWith X-Empty-On-Not-Found: true a backend 404 becomes 204 with X-Empty-Result: true.",
                "tags": ["API"],
                "summary": "Authenticated backend call",
                "parameters": [
                    {"type": "string", "description": "Backend path, e.g. v1/progress/js-basics", "name": "path", "in": "path", "required": true},
                    {"type": "boolean", "description": "Answer 204 instead of 404", "name": "X-Empty-On-Not-Found", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "Backend response"},
                    "204": {"description": "Empty result"},
                    "303": {"description": "Session expired, redirect to login"},
                    "502": {"description": "Backend unreachable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/livez": {
            "get": {
                "description": "Liveness probe. Always 200 while the process is serving.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/identity.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "description": "Readiness probe running the configured dependency checks (session store, backend).",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/identity.HealthResponse"}},
                    "503": {"description": "one or more checks failed", "schema": {"$ref": "#/definitions/identity.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "ticket_expired"},
                "error_description": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}},
                "restart": {"description": "Restart is where the user starts over after a ticket expired.", "type": "string", "example": "/login"}
            }
        },
        "http.LoginRequest": {
            "type": "object",
            "properties": {
                "identifier": {"type": "string", "example": "alice@example.com"},
                "password": {"type": "string", "example": "correct horse battery staple"}
            }
        },
        "http.LoginResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "pending"},
                "method": {"type": "string", "example": "email"},
                "user_id": {"type": "string", "example": "01JB3Z6Q0M8V6X4N2C7T9R5K1D"},
                "expires_at": {"type": "string"}
            }
        },
        "http.VerifyRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "123456"},
                "method": {"type": "string", "example": "email"}
            }
        },
        "http.StateResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "authenticated"}
            }
        },
        "http.SessionResponse": {
            "type": "object",
            "properties": {
                "state": {"description": "State is derived from the stored values only.", "type": "string", "example": "authenticated"},
                "authenticated": {"description": "Authenticated is true when the backend accepted the access token just now.", "type": "boolean"},
                "user": {"$ref": "#/definitions/identity.User"}
            }
        },
        "identity.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "username": {"type": "string"},
                "two_factor_enabled": {"type": "boolean"}
            }
        },
        "identity.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"description": "Status is \"ok\" or \"degraded\".", "type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "checks": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "jsninja Web API",
	Description:      "Browser facing session endpoints. Tokens never leave the server: the\nsession lives in HttpOnly cookies (or in Redis behind a handle cookie).\n\nBackend calls under /api are made on behalf of the session and renewed\ntransparently. An unrecoverable session answers 303 to the login page.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
