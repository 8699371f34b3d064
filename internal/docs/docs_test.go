package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var parsed struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))

	assert.Equal(t, "/api/v1", parsed.BasePath)
	for _, path := range []string{"/auth/token", "/carousel", "/admin/carousel", "/admin/carousel/{id}", "/admin/carousel/{id}/image-url"} {
		assert.Contains(t, parsed.Paths, path)
	}
}
