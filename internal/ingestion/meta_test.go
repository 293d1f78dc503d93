package ingestion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMeta(t *testing.T) {
	meta := ExtractMeta("Запускаем 🚀🚀 проект с @anna и @bob_dev #стартап #go 🔥 #go")

	assert.Equal(t, []string{"#стартап", "#go", "#go"}, meta.Hashtags)
	assert.Equal(t, []string{"@anna", "@bob_dev"}, meta.Mentions)
	assert.Equal(t, []string{"🚀🚀", "🔥"}, meta.Emojis)
}

func TestExtractMeta_EmptyListsMarshalAsArrays(t *testing.T) {
	data, err := json.Marshal(ExtractMeta("plain text"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"hashtags":[],"mentions":[],"emojis":[]}`, string(data))
}
