// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, telemetry.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, telemetry.ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, telemetry.ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, telemetry.ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, telemetry.ParseLevel("verbose"))
}

// TestSetupLoggingWritesCloudLoggingJSON checks the renamed keys in the log
// file.
func TestSetupLoggingWritesCloudLoggingJSON(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	file := filepath.Join(t.TempDir(), "logs", "run.log")
	closeLog, err := telemetry.SetupLogging(cloud.Telemetry{LogFile: file, LogLevel: "warn"})
	require.NoError(t, err)

	slog.Info("dropped below level")
	slog.Warn("kept", "scope", "general")
	require.NoError(t, closeLog())

	content, err := os.ReadFile(file)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(content, &record))
	assert.Equal(t, "WARNING", record["severity"])
	assert.Equal(t, "kept", record["message"])
	assert.Equal(t, "general", record["scope"])
	assert.Contains(t, record, "timestamp")
}
