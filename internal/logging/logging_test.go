// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

func TestNewWriterJSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter(types.LoggingConfig{Level: "info", Format: "auto"}, &buf, false)
	require.NoError(t, err)

	log.Info("cell processed")
	log.Debug("hidden")
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "cell processed", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewWriterConsoleWhenTerminal(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWriter(types.LoggingConfig{Level: "debug"}, &buf, true)
	require.NoError(t, err)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.NotContains(t, buf.String(), `"msg"`)
}

func TestNewWriterRejectsBadConfig(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(types.LoggingConfig{Level: "loud"}, &buf, false)
	assert.Error(t, err)
	_, err = NewWriter(types.LoggingConfig{Format: "xml"}, &buf, false)
	assert.Error(t, err)
}
