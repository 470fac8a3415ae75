package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	opts, err := Load([]string{"-c", filepath.Join(dir, "missing.json")}, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", opts.Port)
	assert.Empty(t, opts.DatabaseDSN)
	assert.Equal(t, "vocap.json", opts.StoragePath)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, 30*time.Second, opts.BillingTimeout)
	assert.Equal(t, 800*time.Millisecond, opts.PurchaseLatency)
}

func TestLoad_Flags(t *testing.T) {
	dir := t.TempDir()
	opts, err := Load([]string{
		"-a", "127.0.0.1:9000",
		"-d", "postgres://localhost/vocap",
		"-s", "/tmp/state.json",
		"-purchase-latency", "0s",
		"-c", filepath.Join(dir, "none.json"),
	}, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", opts.Port)
	assert.Equal(t, "postgres://localhost/vocap", opts.DatabaseDSN)
	assert.Equal(t, "/tmp/state.json", opts.StoragePath)
	assert.Equal(t, time.Duration(0), opts.PurchaseLatency)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_address": "0.0.0.0:7000",
		"storage_path": "/data/vocap.json",
		"billing_timeout": "5s"
	}`), 0o600))

	opts, err := Load(nil, env(map[string]string{
		"CONFIG":         path,
		"SERVER_ADDRESS": "localhost:7100",
		"LOG_LEVEL":      "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, path, opts.Config)
	assert.Equal(t, "localhost:7100", opts.Port)
	assert.Equal(t, "/data/vocap.json", opts.StoragePath)
	assert.Equal(t, 5*time.Second, opts.BillingTimeout)
	assert.Equal(t, "debug", opts.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0o600))

	_, err := Load([]string{"-c", bad}, env(nil))
	assert.Error(t, err)

	_, err = Load([]string{"-c", filepath.Join(dir, "none.json")}, env(map[string]string{"BILLING_TIMEOUT": "soon"}))
	assert.Error(t, err)

	_, err = Load([]string{"-unknown"}, env(nil))
	assert.Error(t, err)
}
