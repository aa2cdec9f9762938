package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer

	logger, err := setup(&buf, "warn", "json")
	require.NoError(t, err)

	logger.Info("hidden")
	slog.Warn("bill paid", "bill_id", "b1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "bill paid", line["msg"])
	assert.Equal(t, "b1", line["bill_id"])

	_, err = setup(&buf, "loud", "text")
	assert.Error(t, err)

	_, err = setup(&buf, "info", "xml")
	assert.Error(t, err)
}
