package httpx

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderer_ParsesAllContentTemplates(t *testing.T) {
	tr := RequireTemplateRenderer(t)

	for _, name := range []string{"layout", "content", "error-layout"} {
		assert.NotNilf(t, tr.t.Lookup(name), "template %q not defined", name)
	}
	for page, tmpl := range ContentTemplateMap() {
		assert.NotNilf(t, tr.t.Lookup(tmpl), "page %q has no template %q", page, tmpl)
	}
}

func TestTemplateRenderer_RenderError(t *testing.T) {
	tr := RequireTemplateRenderer(t)

	w := httptest.NewRecorder()
	err := tr.RenderError(w, httptest.NewRequest("GET", "/missing", nil), map[string]any{
		"Code":        404,
		"Title":       "Page Not Found",
		"Message":     "The page you are looking for does not exist.",
		"RedirectURI": "/dashboard",
	})

	require.NoError(t, err)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.True(t, ContainsAll(w.Body.String(), []string{
		"404",
		"Page Not Found",
		"/dashboard",
	}))
}
