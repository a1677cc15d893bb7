package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	require.NoError(t, Init(Config{Level: "debug", OutputPaths: []string{path}}))
	t.Cleanup(func() { _ = Sync() })

	Named("tools").Debug("tool invoked", "tool", "get_wallet_balance")
	require.NoError(t, Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &record))
	assert.Equal(t, "tool invoked", record["msg"])
	assert.Equal(t, "tools", record["component"])
	assert.Equal(t, "get_wallet_balance", record["tool"])
}

func TestAuditFallsBackToDefaultLogger(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	require.NoError(t, Init(Config{Format: "text", OutputPaths: []string{path}}))
	t.Cleanup(func() { _ = Sync() })

	Audit().Info("transaction submitted")
	require.NoError(t, Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "channel=audit")
	assert.Contains(t, string(raw), "transaction submitted")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "WARN", parseLevel("warning").String())
	assert.Equal(t, "INFO", parseLevel("").String())
	assert.Equal(t, "ERROR", parseLevel(" Error ").String())
}
