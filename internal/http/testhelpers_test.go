package httpx

import (
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// shellTemplates returns the checked-out frontend templates. Tests that render
// pages skip when the module is built without the frontend tree.
func shellTemplates(t *testing.T) fs.FS {
	t.Helper()
	info, err := os.Stat(TemplatePathFromTest)
	if err != nil || !info.IsDir() {
		t.Skipf("frontend templates not found at %s", TemplatePathFromTest)
	}
	return os.DirFS(TemplatePathFromTest)
}

// newShellRenderer parses the frontend templates the router would serve.
func newShellRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: shellTemplates(t)})
	require.NoError(t, err)
	return tr
}

// containsAll reports whether body has every fragment.
func containsAll(body string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(body, f) {
			return false
		}
	}
	return true
}
