// Package docs holds the OpenAPI description served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "email": "CycleCraft@company.com"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/results": {
            "get": {
                "description": "Names of the five analytic results and whether each has been published",
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "List result tables",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.ResultInfo"}}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}
                    }
                }
            }
        },
        "/api/v1/results/{name}": {
            "get": {
                "description": "Columns and rows of one analytic result, as stored",
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Get a result table",
                "parameters": [
                    {
                        "enum": ["growth_rate", "popular_stations", "gender_duration", "age_target", "temporal"],
                        "type": "string",
                        "description": "Result name",
                        "name": "name",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/store.Table"}},
                    "404": {"description": "Unknown or unpublished result", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/api/v1/runs": {
            "get": {
                "description": "Most recent analysis runs first, each with the queries it skipped",
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "List analysis runs",
                "parameters": [
                    {"type": "integer", "default": 20, "description": "Maximum number of runs", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.RunInfo"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/charts/{name}.png": {
            "get": {
                "description": "PNG chart of one analytic result. growth_rate honours from/to, age_target honours age.",
                "produces": ["image/png"],
                "tags": ["charts"],
                "summary": "Render a result chart",
                "parameters": [
                    {
                        "enum": ["growth_rate", "popular_stations", "gender_duration", "age_target", "temporal"],
                        "type": "string",
                        "description": "Result name",
                        "name": "name",
                        "in": "path",
                        "required": true
                    },
                    {"type": "integer", "description": "First year", "name": "from", "in": "query"},
                    {"type": "integer", "description": "Last year", "name": "to", "in": "query"},
                    {
                        "type": "array",
                        "items": {"type": "string"},
                        "collectionFormat": "multi",
                        "description": "Age groups",
                        "name": "age",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/export.xlsx": {
            "get": {
                "description": "Excel workbook with one sheet per result table plus small_data",
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["export"],
                "summary": "Export workbook",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Nothing published yet", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ResultInfo": {
            "type": "object",
            "properties": {
                "available": {"type": "boolean"},
                "name": {"type": "string"},
                "table": {"type": "string"}
            }
        },
        "handler.RunInfo": {
            "type": "object",
            "properties": {
                "errors": {"type": "array", "items": {"$ref": "#/definitions/model.RunError"}},
                "failed": {"type": "integer"},
                "finished_at": {"type": "string"},
                "id": {"type": "string"},
                "started_at": {"type": "string"},
                "status": {"type": "string"},
                "succeeded": {"type": "integer"}
            }
        },
        "httpx.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "model.RunError": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "message": {"type": "string"},
                "query": {"type": "string"},
                "run_id": {"type": "string"}
            }
        },
        "store.Column": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "store.Table": {
            "type": "object",
            "properties": {
                "columns": {"type": "array", "items": {"$ref": "#/definitions/store.Column"}},
                "name": {"type": "string"},
                "rows": {"type": "array", "items": {"type": "array", "items": {}}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Bike-share Analytics API",
	Description:      "Published bike-share trip analytics: result tables, analysis runs, charts and workbook export.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
