package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const docsSpecPath = "/docs/openapi.yaml"

// swagger-ui is pinned to a major version; the page only points it at the embedded document.
const docsPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>fintrack API</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: "{{spec}}", dom_id: "#ui", persistAuthorization: true});
</script>
</body>
</html>`

// DocsHandler serves the OpenAPI document and a Swagger UI page that renders it.
type DocsHandler struct {
	spec []byte
	tag  string
	page []byte
}

func NewDocsHandler(spec []byte) *DocsHandler {
	sum := sha256.Sum256(spec)

	return &DocsHandler{
		spec: spec,
		tag:  `"d-` + hex.EncodeToString(sum[:8]) + `"`,
		page: []byte(strings.Replace(docsPage, "{{spec}}", docsSpecPath, 1)),
	}
}

func (h *DocsHandler) UI(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
}

// Spec is immutable for the life of the process, so it revalidates on its hash.
func (h *DocsHandler) Spec(ctx *gin.Context) {
	ctx.Header("ETag", h.tag)

	if etagMatches(ctx.GetHeader("If-None-Match"), h.tag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/yaml; charset=utf-8", h.spec)
}
