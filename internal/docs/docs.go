// Package docs registers the OpenAPI description of the JSON API with swag so
// echo-swagger can serve it under /swagger/.
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
        "/auth/token": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Issue an admin API token",
                "parameters": [
                    {
                        "in": "body",
                        "name": "credentials",
                        "required": true,
                        "schema": {"$ref": "#/definitions/Credentials"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TokenResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/carousel": {
            "get": {
                "produces": ["application/json"],
                "tags": ["carousel"],
                "summary": "List active carousel slides",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CarouselList"}}
                }
            }
        },
        "/admin/carousel": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List all carousel slides",
                "parameters": [
                    {"type": "integer", "default": 50, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CarouselList"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create a carousel slide",
                "parameters": [
                    {"type": "file", "name": "img", "in": "formData", "required": true},
                    {"type": "string", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "name": "caption", "in": "formData", "required": true},
                    {"type": "string", "name": "link", "in": "formData", "required": true},
                    {"type": "boolean", "name": "active", "in": "formData"},
                    {"type": "string", "format": "uuid", "name": "product_id", "in": "formData"},
                    {"type": "integer", "name": "sort_order", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/CarouselImage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/admin/carousel/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Get a carousel slide",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CarouselImage"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Update a carousel slide, optionally replacing its image",
                "parameters": [
                    {"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true},
                    {"type": "file", "name": "img", "in": "formData"},
                    {"type": "string", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "name": "caption", "in": "formData", "required": true},
                    {"type": "string", "name": "link", "in": "formData", "required": true},
                    {"type": "boolean", "name": "active", "in": "formData"},
                    {"type": "string", "format": "uuid", "name": "product_id", "in": "formData"},
                    {"type": "integer", "name": "sort_order", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CarouselImage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Delete a carousel slide and its stored image",
                "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/admin/carousel/{id}/image-url": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Presign a download URL for the slide image",
                "parameters": [
                    {"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "seconds, capped at 7 days", "name": "expiry", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"url": {"type": "string"}}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "Credentials": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "user_id": {"type": "string"},
                "username": {"type": "string"},
                "token_id": {"type": "string"},
                "issued_at": {"type": "string", "format": "date-time"}
            }
        },
        "CarouselImage": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "img": {"type": "string"},
                "title": {"type": "string", "maxLength": 200},
                "caption": {"type": "string", "maxLength": 400},
                "link": {"type": "string", "maxLength": 200},
                "active": {"type": "boolean"},
                "product_id": {"type": "string", "format": "uuid"},
                "sort_order": {"type": "integer"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"},
                "image_url": {"type": "string"}
            }
        },
        "CarouselList": {
            "type": "object",
            "properties": {
                "carousel_images": {"type": "array", "items": {"$ref": "#/definitions/CarouselImage"}},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "details": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        }
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
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "PLUG-IN storefront API",
	Description:      "Staff administration of the homepage carousel and the public carousel feed.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
