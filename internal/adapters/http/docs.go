package http

import (
	"context"
	"os"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

// DefaultOpenAPIPath is where cmd/api finds the document when run from the repo root.
const DefaultOpenAPIPath = "api/openapi.yaml"

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Midway API docs</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({ url: '/docs/openapi.json', dom_id: '#swagger-ui' });
  </script>
</body>
</html>`

// openAPIDoc reads and validates the document on first use.
type openAPIDoc struct {
	path string
	once sync.Once
	raw  []byte
	doc  *openapi3.T
	err  error
}

func (d *openAPIDoc) load() ([]byte, *openapi3.T, error) {
	d.once.Do(func() {
		d.raw, d.err = os.ReadFile(d.path)
		if d.err != nil {
			return
		}
		loader := openapi3.NewLoader()
		d.doc, d.err = loader.LoadFromData(d.raw)
		if d.err != nil {
			return
		}
		d.err = d.doc.Validate(context.Background())
	})
	return d.raw, d.doc, d.err
}

// SetupDocs registers Swagger UI at /docs, the raw document at
// /docs/openapi.yaml and its JSON rendering at /docs/openapi.json.
func SetupDocs(app *fiber.App, path string) {
	if path == "" {
		path = DefaultOpenAPIPath
	}
	spec := &openAPIDoc{path: path}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(swaggerUIHTML)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		raw, _, err := spec.load()
		if err != nil {
			return errNotFound(c, "openapi document unavailable")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(raw)
	})

	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		_, doc, err := spec.load()
		if err != nil {
			return errNotFound(c, "openapi document unavailable")
		}
		return c.JSON(doc)
	})
}
