// Package docs registers the OpenAPI document served at /swagger/.
// Regenerate with: swag init -g cmd/server/main.go
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
        "/api/items": {
            "get": {
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "List items",
                "parameters": [
                    {"type": "string", "description": "Item type slug", "name": "type", "in": "query"},
                    {"type": "string", "description": "Material slug", "name": "material", "in": "query"},
                    {"type": "string", "description": "Rarity slug", "name": "rarity", "in": "query"},
                    {"type": "string", "description": "Text search on title and description", "name": "search", "in": "query"},
                    {"type": "integer", "description": "Page, starting at 1", "name": "page", "in": "query"},
                    {"type": "string", "description": "Page size (1-100) or all", "name": "page_size", "in": "query"},
                    {"type": "boolean", "description": "Publication state", "name": "is_published", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ItemPage"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ValidationErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Create item",
                "parameters": [
                    {"description": "Item", "name": "item", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.NewItem"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Item"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ValidationErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/items/{id}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["items"],
                "summary": "Update item",
                "parameters": [
                    {"type": "integer", "description": "Item ID", "name": "id", "in": "path", "required": true},
                    {"description": "Changes", "name": "patch", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.ItemPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Item"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["items"],
                "summary": "Delete item",
                "parameters": [
                    {"type": "integer", "description": "Item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/enchantments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["lookups"],
                "summary": "List enchantments",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Enchantment"}}}
                }
            }
        },
        "/auth/discord/login": {
            "get": {
                "tags": ["auth"],
                "summary": "Start Discord login",
                "parameters": [
                    {"type": "string", "description": "Where to return after login", "name": "redirect_uri", "in": "query", "required": true}
                ],
                "responses": {
                    "302": {"description": "Found"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Enchantment": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "slug": {"type": "string"},
                "label": {"type": "string"},
                "max_level": {"type": "integer"}
            }
        },
        "domain.ItemEnchantment": {
            "type": "object",
            "required": ["enchantment_id", "level"],
            "properties": {
                "enchantment_id": {"type": "integer"},
                "level": {"type": "integer"}
            }
        },
        "domain.ItemSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "rarity": {"type": "string"},
                "type": {"type": "string"},
                "material": {"type": "string"},
                "image_url": {"type": "string"},
                "lore_image_url": {"type": "string"},
                "star_level": {"type": "integer"},
                "is_published": {"type": "boolean"},
                "created_at": {"type": "string"},
                "owner_id": {"type": "string"}
            }
        },
        "domain.Item": {
            "type": "object",
            "allOf": [{"$ref": "#/definitions/domain.ItemSummary"}],
            "properties": {
                "item_type_id": {"type": "integer"},
                "material_id": {"type": "integer"},
                "rarity_id": {"type": "integer"},
                "enchantments": {"type": "array", "items": {"$ref": "#/definitions/domain.ItemEnchantment"}},
                "updated_at": {"type": "string"}
            }
        },
        "domain.ItemPage": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.ItemSummary"}},
                "total": {"type": "integer"}
            }
        },
        "domain.NewItem": {
            "type": "object",
            "required": ["title", "item_type_id", "material_id", "rarity_id"],
            "properties": {
                "title": {"type": "string", "maxLength": 120, "minLength": 1},
                "description": {"type": "string", "maxLength": 500},
                "image_url": {"type": "string"},
                "lore_image_url": {"type": "string"},
                "item_type_id": {"type": "integer"},
                "material_id": {"type": "integer"},
                "rarity_id": {"type": "integer"},
                "star_level": {"type": "integer", "maximum": 3, "minimum": 0},
                "is_published": {"type": "boolean"},
                "enchantments": {"type": "array", "items": {"$ref": "#/definitions/domain.ItemEnchantment"}}
            }
        },
        "domain.ItemPatch": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "maxLength": 120, "minLength": 1},
                "description": {"type": "string", "maxLength": 500},
                "star_level": {"type": "integer", "maximum": 3, "minimum": 0},
                "is_published": {"type": "boolean"}
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "handler.ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "OP Item DB API",
	Description:      "Catalog of community-submitted items with moderation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
