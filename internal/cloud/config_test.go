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

// Package cloud_test contains unit tests for configuration loading and the
// storage helpers.
package cloud_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/viewing-insights/internal/cloud"
	test "github.com/jaycherian/viewing-insights/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir string, name string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// TestLoadConfigOverlay decodes the base file and lets the runtime file
// override a subset of keys.
func TestLoadConfigOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".env.toml", `
[application]
name = "base-name"

[paths]
raw_dir = "data/raw"
export_folder = "export"
viewing_activity = "CONTENT_INTERACTION/ViewingActivity.csv"
interim_dir = "data/interim"
report_dir = "reports"
figures_dir = "reports/figures"
animations_dir = "animations"

[visualization]
top_series = 10
`)
	writeConfig(t, dir, ".env.ci.toml", `
[visualization]
top_series = 3
skip_animations = true

[application]
name = "ci-name"
`)
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "ci")

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))

	assert.Equal(t, "ci-name", config.Application.Name)
	assert.Equal(t, 3, config.Visualization.TopSeries)
	assert.True(t, config.Visualization.SkipAnimations)
	// Defaults survive when no file sets them.
	assert.Equal(t, "UTC", config.Application.Timezone)
	assert.Equal(t, 2, config.Visualization.BinMonths)
	assert.Equal(t, filepath.Join("data", "raw", "netflix-report.zip"), config.ArchivePath())
	assert.Equal(t, filepath.Join("data", "raw", "export", "CONTENT_INTERACTION", "ViewingActivity.csv"), config.Paths.ViewingActivityFile())
	assert.Equal(t, filepath.Join("reports", "figures", "animations"), config.Paths.AnimationDir())
}

// TestShippedConfigDefaultsToUTC loads the repository configs with the local
// runtime: timestamps stay in UTC unless an overlay opts into a zone.
func TestShippedConfigDefaultsToUTC(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, test.ConfigDir())
	t.Setenv(cloud.EnvConfigRuntime, cloud.DefaultRuntime)

	config := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(config))
	assert.Equal(t, "UTC", config.Application.Timezone)
	location, err := config.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", location.String())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".env.toml", `
[application]
timezone = "Mars/Olympus"

[visualization]
colors = ["red"]
`)
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "missing")

	err := cloud.LoadConfig(cloud.NewConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Timezone")
	assert.Contains(t, err.Error(), "Colors")
}

func TestStorageRequiresBucket(t *testing.T) {
	config := test.GetConfigIn(t.TempDir())
	config.Storage.Enabled = true
	config.Storage.ReportBucket = ""
	assert.ErrorContains(t, config.Validate(), "ReportBucket")

	config.Storage.ReportBucket = "reports"
	assert.NoError(t, config.Validate())
}

func TestRepositoryConfig(t *testing.T) {
	config := test.GetConfig()

	assert.NoError(t, config.Validate())
	assert.False(t, config.Storage.Enabled)
	assert.False(t, config.BigQueryDataSource.Enabled)
	loc, err := config.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestRootedAt(t *testing.T) {
	paths := cloud.Paths{RawDir: "data/raw", InterimDir: "/abs/interim", ReportDir: "reports", FiguresDir: "reports/figures"}
	rooted := paths.RootedAt("/tmp/run")

	assert.Equal(t, filepath.Join("/tmp/run", "data", "raw"), rooted.RawDir)
	assert.Equal(t, "/abs/interim", rooted.InterimDir)
	assert.Equal(t, filepath.Join("/tmp/run", "reports", "figures"), rooted.FiguresDir)
}
