package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"favarchive/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"empty level defaults to info", &config.LoggingConfig{}, false},
		{"invalid level", &config.LoggingConfig{Level: "loud"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewWithWriter(tt.cfg, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestJSONFormatWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	log.WithField("run_id", "abc").
		WithError(errors.New("boom")).
		InfoWithFields("page fetched", map[string]interface{}{"page": 3})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "page fetched", entries[0]["message"])
	assert.Equal(t, "favarchive", entries[0]["app"])
	assert.Equal(t, "abc", entries[0]["run_id"])
	assert.Equal(t, "boom", entries[0]["error"])
	assert.Equal(t, float64(3), entries[0]["page"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	log.Error("shown")

	assert.Len(t, decodeLines(t, &buf), 2)
}

func TestWithFieldsDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent, err := NewWithWriter(&config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	child := parent.WithField("md5", "abc123")
	child.Info("child")
	parent.Info("parent")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "abc123", entries[0]["md5"])
	assert.NotContains(t, entries[1], "md5")
}

func TestTextFormatWithoutTerminalHasNoColor(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	require.NoError(t, err)

	log.Info("plain output")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "| plain output")
	assert.NotContains(t, out, "\x1b[")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "favarchive.log")

	log, err := NewWithWriter(&config.LoggingConfig{
		Level:      "info",
		File:       path,
		MaxSize:    1,
		MaxBackups: 1,
	}, &bytes.Buffer{})
	require.NoError(t, err)

	log.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"message":"written to file"`))
}

func TestLogDownloadHelper(t *testing.T) {
	log := NewTestLogger()

	LogDownload(log, "abc", "https://static.example/abc.png", 42, nil)
	LogDownload(log, "def", "https://static.example/def.png", 0, errors.New("404"))

	info := log.GetMessagesByLevel("INFO")
	require.Len(t, info, 1)
	assert.Equal(t, int64(42), info[0].Fields["size"])

	errs := log.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, "def", errs[0].Fields["md5"])
	assert.EqualError(t, errs[0].Error, "404")
}

func TestTestLoggerSharesStoreWithChildren(t *testing.T) {
	log := NewTestLogger()
	log.WithField("page", 1).Warn("slow")

	assert.True(t, log.HasMessage("slow"))
	assert.False(t, log.HasError())
	assert.Equal(t, 1, log.GetMessages()[0].Fields["page"])
}
