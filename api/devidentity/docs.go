// Package devidentity registers the Swagger document of the development
// identity service under its own instance name so it can share a binary with
// the web front end's document.
package devidentity

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
        "/v1/auth/login": {
            "post": {
                "description": "Checks identifier (username or email) and password. Returns a pending token pair\nthat only authorizes the one-time code endpoints. Email users are sent a code.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Password step",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/identity.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Pending token pair and account", "schema": {"$ref": "#/definitions/identity.LoginResponse"}},
                    "400": {"description": "Invalid request or credentials", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/otp/verify": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Verifies a TOTP or emailed code for the login ticket named by the pending token.\nSuccess consumes the ticket and returns an access token and a refresh token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Second factor step",
                "parameters": [
                    {"description": "Code and method", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/identity.VerifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session tokens", "schema": {"$ref": "#/definitions/identity.TokenPair"}},
                    "400": {"description": "Invalid code or request", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}},
                    "401": {"description": "Ticket expired or token invalid", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/otp/resend": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Mails a fresh code for the login ticket. The ticket keeps its expiry.\nAnswers 204 for TOTP tickets without doing anything.",
                "tags": ["Auth"],
                "summary": "Resend one-time code",
                "responses": {
                    "204": {"description": "Code sent"},
                    "401": {"description": "Ticket expired or token invalid", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/refresh": {
            "post": {
                "description": "Exchanges a session refresh token for a new access token and a rotated refresh token.\nReusing a rotated refresh token revokes the session.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Refresh session tokens",
                "parameters": [
                    {"description": "Refresh token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/identity.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "New tokens", "schema": {"$ref": "#/definitions/identity.TokenPair"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}},
                    "401": {"description": "Refresh token invalid, expired or revoked", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}}
                }
            }
        },
        "/v1/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the account the access token was issued to.",
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "Account", "schema": {"$ref": "#/definitions/identity.User"}},
                    "401": {"description": "Invalid or missing access token", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}}
                }
            }
        },
        "/v1/users/me/totp": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Generates a TOTP secret. Logins keep using emailed codes until the secret is confirmed.",
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Enroll in TOTP",
                "responses": {
                    "200": {"description": "Secret and otpauth URL", "schema": {"$ref": "#/definitions/http.TOTPEnrollResponse"}},
                    "400": {"description": "TOTP already enabled", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}},
                    "401": {"description": "Invalid or missing access token", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}}
                }
            }
        },
        "/v1/users/me/totp/confirm": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Enables TOTP for logins once a code from the enrolled secret is accepted.",
                "consumes": ["application/json"],
                "tags": ["Users"],
                "summary": "Confirm TOTP enrollment",
                "parameters": [
                    {"description": "Code", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.TOTPConfirmRequest"}}
                ],
                "responses": {
                    "204": {"description": "TOTP enabled"},
                    "400": {"description": "Invalid code or not enrolled", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}},
                    "401": {"description": "Invalid or missing access token", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}}
                }
            }
        },
        "/v1/progress/{course}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Progress"],
                "summary": "Read course progress",
                "parameters": [
                    {"type": "string", "description": "Course slug", "name": "course", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Progress document", "schema": {"$ref": "#/definitions/http.ProgressResponse"}},
                    "401": {"description": "Invalid or missing access token", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}},
                    "404": {"description": "No progress recorded", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Replaces the progress document for the course. The body can be any JSON value.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Progress"],
                "summary": "Store course progress",
                "parameters": [
                    {"type": "string", "description": "Course slug", "name": "course", "in": "path", "required": true},
                    {"description": "Progress document", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "Stored document", "schema": {"$ref": "#/definitions/http.ProgressResponse"}},
                    "400": {"description": "Body is not JSON", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}},
                    "401": {"description": "Invalid or missing access token", "schema": {"$ref": "#/definitions/identity.ErrorResponse"}}
                }
            }
        },
        "/livez": {
            "get": {
                "description": "Liveness probe returning uptime and build version.",
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
                "description": "Readiness probe. Fails with 503 when the database cannot be reached.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/identity.HealthResponse"}},
                    "503": {"description": "service not ready", "schema": {"$ref": "#/definitions/identity.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "identity.LoginRequest": {
            "type": "object",
            "properties": {
                "identifier": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "identity.LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "user": {"$ref": "#/definitions/identity.User"}
            }
        },
        "identity.VerifyRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "method": {"type": "string"}
            }
        },
        "identity.RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "identity.TokenPair": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"}
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
        "identity.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "identity.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "checks": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "http.TOTPEnrollResponse": {
            "type": "object",
            "properties": {
                "secret": {"type": "string", "example": "JBSWY3DPEHPK3PXP"},
                "url": {"type": "string"},
                "issuer": {"type": "string", "example": "jsninja"},
                "account": {"type": "string", "example": "alice"}
            }
        },
        "http.TOTPConfirmRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "123456"}
            }
        },
        "http.ProgressResponse": {
            "type": "object",
            "properties": {
                "course": {"type": "string", "example": "javascript-basics"},
                "data": {"type": "object"},
                "updated_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Pending or access JWT. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "jsninja Development Identity Service API",
	Description:      "Local stand-in for the identity and content backend used by the web front end.\nPassword login is followed by a TOTP or emailed one-time code. Tokens are HS256 JWTs.",
	InfoInstanceName: "devidentity",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
