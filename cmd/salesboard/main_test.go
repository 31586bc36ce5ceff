// ABOUTME: Tests for salesboard command helpers
// ABOUTME: Covers config path resolution, adduser flag parsing, and log output

package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/salesboard/internal/config"
)

func TestGetConfigPath(t *testing.T) {
	t.Run("env var wins", func(t *testing.T) {
		t.Setenv("SALESBOARD_CONFIG", "/etc/salesboard.yaml")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		assert.Equal(t, "/etc/salesboard.yaml", getConfigPath())
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("SALESBOARD_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		assert.Equal(t, filepath.Join("/xdg", "salesboard", "config.yaml"), getConfigPath())
	})

	t.Run("home fallback", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("SALESBOARD_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", home)
		assert.Equal(t, filepath.Join(home, ".config", "salesboard", "config.yaml"), getConfigPath())
	})
}

func TestLoadConfig_FallsBackToEnv(t *testing.T) {
	t.Setenv("SALESBOARD_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("SALESBOARD_HTTP_ADDR", "127.0.0.1:9999")

	cfg, source, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "(defaults)", source)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.HTTPAddr)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_addr: \"0.0.0.0:8080\"\n"), 0o644))
	t.Setenv("SALESBOARD_CONFIG", path)

	cfg, source, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, path, source)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.HTTPAddr)
}

func TestParseAddUserArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    addUserArgs
		wantErr string
	}{
		{
			name: "separate values",
			args: []string{"--email", "a@example.com", "--username", "alice"},
			want: addUserArgs{Email: "a@example.com", Username: "alice"},
		},
		{
			name: "equals form",
			args: []string{"--email=a@example.com", "--username=alice"},
			want: addUserArgs{Email: "a@example.com", Username: "alice"},
		},
		{name: "missing email", args: []string{"--username", "alice"}, wantErr: "--email flag is required"},
		{name: "missing username", args: []string{"--email", "a@example.com"}, wantErr: "--username flag is required"},
		{name: "dangling flag", args: []string{"--email"}, wantErr: "--email requires a value"},
		{name: "unknown flag", args: []string{"--role", "admin"}, wantErr: "unknown flag: --role"},
		{name: "positional", args: []string{"alice"}, wantErr: "unexpected argument: alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAddUserArgs(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestColorHandler(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	logger := newLogger(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	logger.With("component", "auth").WithGroup("req").Info("session created", "user_id", 7)
	logger.Debug("hidden")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"), "debug line should be filtered")
	assert.Contains(t, out, "INF session created")
	assert.Contains(t, out, "component=auth")
	assert.Contains(t, out, "req.user_id=7")
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("skipped")
	logger.Warn("kept", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "skipped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"k":"v"`)
}
