// Package docs contém a especificação Swagger servida em /swagger/.
// Regenerar com: swag init -g cmd/main.go
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Autentica um usuário e retorna um JWT",
                "parameters": [
                    {"in": "body", "name": "login", "required": true, "schema": {"$ref": "#/definitions/user.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token JWT emitido", "schema": {"$ref": "#/definitions/domain.APIResponse"}},
                    "401": {"description": "Credenciais inválidas", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Registra um novo usuário",
                "parameters": [
                    {"in": "body", "name": "registration", "required": true, "schema": {"$ref": "#/definitions/domain.UserRegistration"}}
                ],
                "responses": {
                    "201": {"description": "Usuário criado com sucesso", "schema": {"$ref": "#/definitions/domain.APIResponse"}},
                    "409": {"description": "Email já cadastrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "422": {"description": "Dados inválidos", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/configuraciones": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["configuraciones"],
                "summary": "Lista as configurações",
                "parameters": [
                    {"type": "string", "description": "Filtra por grupo", "name": "grupo", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/configuracion.DataResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/configuraciones/todas": {
            "get": {
                "produces": ["application/json"],
                "tags": ["configuraciones"],
                "summary": "Todas as configurações como objeto chave-valor já decodificado",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/configuraciones/imagen/{clave}": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["configuraciones"],
                "summary": "Envia a imagem referenciada por uma configuração",
                "parameters": [
                    {"type": "string", "description": "Chave da configuração", "name": "clave", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.MessageResponse"}}
                }
            }
        },
        "/configuraciones/{id}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["configuraciones"],
                "summary": "Atualiza o valor de uma configuração",
                "parameters": [
                    {"type": "integer", "description": "ID da configuração", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Novo valor", "name": "valor", "in": "formData"},
                    {"type": "file", "description": "Arquivo (somente configurações do tipo imagen)", "name": "archivo", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/configuracion.DataResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.MessageResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/configuraciones/actualizar-multiple": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["configuraciones"],
                "summary": "Atualiza várias configurações de uma vez",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/configuracion.BulkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.MessageResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/banners": {
            "get": {
                "produces": ["application/json"],
                "tags": ["banners"],
                "summary": "Lista os banners ativos",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/banner.DataResponse"}}
                }
            }
        }
    },
    "definitions": {
        "banner.DataResponse": {
            "type": "object",
            "properties": {"data": {}}
        },
        "configuracion.DataResponse": {
            "type": "object",
            "properties": {"data": {}}
        },
        "configuracion.BulkRequest": {
            "type": "object",
            "properties": {
                "configuraciones": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/domain.ValueUpdate"}
                }
            }
        },
        "domain.ValueUpdate": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "valor": {}
            }
        },
        "domain.APIResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "message": {"type": "string", "example": "Inicio de sesión exitoso"},
                "data": {}
            }
        },
        "domain.ErrorResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "error"},
                "code": {"type": "integer", "example": 422},
                "category": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string", "example": "Error de validación"},
                "errors": {
                    "type": "object",
                    "additionalProperties": {"type": "array", "items": {"type": "string"}}
                }
            }
        },
        "domain.MessageResponse": {
            "type": "object",
            "properties": {
                "mensaje": {"type": "string", "example": "Configuraciones actualizadas correctamente"}
            }
        },
        "domain.UserRegistration": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "name": {"type": "string", "maxLength": 255},
                "email": {"type": "string", "maxLength": 255},
                "password": {"type": "string", "minLength": 8},
                "rol": {"type": "string", "enum": ["autor", "cliente"]}
            }
        },
        "user.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
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
	Title:            "SiteAdmin API",
	Description:      "API de administração do site: configurações tipadas, banners e usuários.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
