package types

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLResponseJSONTags(t *testing.T) {
	response := URLResponse{
		ShortURL: "/k902KW0",
		Code:     "k902KW0",
	}

	jsonData, err := json.Marshal(response)
	require.NoError(t, err, "Failed to marshal URLResponse")

	var unmarshaled map[string]interface{}
	err = json.Unmarshal(jsonData, &unmarshaled)
	require.NoError(t, err, "Failed to unmarshal JSON")

	expectedKeys := []string{"short_url", "code"}
	for _, key := range expectedKeys {
		_, ok := unmarshaled[key]
		assert.True(t, ok, "Expected JSON key %q not found", key)
	}
}

func TestURLRequestDecoding(t *testing.T) {
	var request URLRequest
	err := json.Unmarshal([]byte(`{"url": "https://example.com/a\"b"}`), &request)
	require.NoError(t, err)
	assert.Equal(t, `https://example.com/a"b`, request.URL, "Escaped quotes should be decoded")

	err = json.Unmarshal([]byte(`{"url": 42}`), &request)
	assert.Error(t, err, "Non-string url should fail to decode")
}

func TestURLRequestValidationTag(t *testing.T) {
	field, ok := reflect.TypeOf(URLRequest{}).FieldByName("URL")
	require.True(t, ok, "URL field not found in URLRequest struct")

	tag := field.Tag.Get("validate")
	require.Equal(t, "required", tag, "Unexpected validate tag for URL field")
}
