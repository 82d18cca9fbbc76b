package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the admin API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>content-services admin API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Admin API routes, all under /api/admin and all requiring a bearer token.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "content-services admin API", "version": "v1.0.0" },
  "components": { "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } } },
  "security": [ { "bearer": [] } ],
  "paths": {
    "/api/admin/collections/{collection}": {
      "get": { "summary": "List documents and the union of their field names", "responses": { "200": { "description": "snapshot" }, "404": { "description": "collection not allowed" } } }
    },
    "/api/admin/collections/{collection}/field-operations": {
      "post": {
        "summary": "Apply add/remove/rename field operations in order",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"operations":{"type":"array","items":{"type":"object","properties":{"type":{"type":"string","enum":["add","remove","rename"]},"fieldName":{"type":"string"},"newFieldName":{"type":"string"},"fieldType":{"type":"string","enum":["string","number","boolean","object","array"]},"fieldValue":{},"targetId":{"type":"string"}}}}}}}}},
        "responses": { "200": { "description": "one result per operation" } }
      }
    },
    "/api/admin/collections/{collection}/documents/{id}/fields/{field}": {
      "put": { "summary": "Set a field on one document", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"value":{}}}}}}, "responses": { "200": { "description": "updated" }, "404": { "description": "no such document" } } },
      "delete": { "summary": "Remove a field from one document", "responses": { "200": { "description": "updated" }, "404": { "description": "no such document" } } }
    },
    "/api/admin/migrations/{collection}": {
      "post": { "summary": "Run the schema migration pipeline", "responses": { "200": { "description": "migration report" }, "409": { "description": "a migration of this collection is already running" }, "500": { "description": "halted; partial report included" } } }
    },
    "/api/admin/migrations/{collection}/stages/{stage}": {
      "post": { "summary": "Re-apply one mutating stage without backup", "responses": { "200": { "description": "stage result" }, "400": { "description": "not a mutating stage" } } }
    },
    "/api/admin/locales/sync": {
      "post": { "summary": "Regenerate every language view set of the master collection", "parameters": [ { "name": "master", "in": "query", "schema": { "type": "string" } } ], "responses": { "200": { "description": "per-language counts and backups" } } }
    },
    "/api/admin/locales/check": {
      "get": { "summary": "Compare language view sets with the master collection", "parameters": [ { "name": "master", "in": "query", "schema": { "type": "string" } } ], "responses": { "200": { "description": "inconsistencies" } } }
    },
    "/api/admin/locales/backup": {
      "post": { "summary": "Back up every language view set", "responses": { "200": { "description": "backup names" } } }
    },
    "/api/admin/ids": {
      "post": { "summary": "Generate one semantic identifier", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"date":{"type":"string"},"sequence":{"type":"integer"},"company":{"type":"string"},"product":{"type":"string"}}}}}}, "responses": { "200": { "description": "identifier" } } }
    },
    "/api/admin/ids/batch": {
      "post": { "summary": "Generate identifiers for a batch, sequenced per date", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"items":{"type":"array","items":{"type":"object","properties":{"title":{"type":"string"},"date":{"type":"string"}}}}}}}}}, "responses": { "200": { "description": "identifiers in input order" } } }
    },
    "/api/admin/content": {
      "post": { "summary": "Create a master content record", "responses": { "201": { "description": "created" }, "400": { "description": "validation error" }, "409": { "description": "duplicate semantic id or slug" } } }
    },
    "/api/admin/content/validate": {
      "get": { "summary": "Validate every master record against the canonical shape", "responses": { "200": { "description": "validation summary" } } }
    },
    "/api/admin/content/{semanticId}": {
      "get": { "summary": "Fetch a master content record", "responses": { "200": { "description": "record" }, "404": { "description": "not found" } } }
    }
  }
}`
