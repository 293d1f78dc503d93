package schemas

import (
	"encoding/json"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	files, err := fs.Glob(FS, "*.schema.json")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{Dataset, Profiles}, files)

	for _, name := range files {
		t.Run(name, func(t *testing.T) {
			data, err := FS.ReadFile(name)
			require.NoError(t, err)

			var v map[string]any
			require.NoError(t, json.Unmarshal(data, &v), "schema file should be valid JSON")
			assert.Contains(t, v, "$schema")
			assert.Equal(t, "object", v["type"])
		})
	}
}
