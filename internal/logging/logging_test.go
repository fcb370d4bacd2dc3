package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "shopwise-api", false)

	logger.Info("started", "addr", ":8080")
	logger.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "started", entry["msg"])
	assert.Equal(t, "shopwise-api", entry["service"])
	assert.Equal(t, ":8080", entry["addr"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_TextInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "shopwise-api", true)

	logger.Debug("visible")

	assert.Contains(t, buf.String(), "msg=visible")
	assert.Contains(t, buf.String(), "service=shopwise-api")
}
