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

// Package test provides utility functions and sample data to support the
// application's test suite. It loads the test configuration once, and writes
// small viewing-activity exports (plain CSV or zipped) into temporary folders.
package test

import (
	"archive/zip"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// StateManager caches the test configuration so it is only decoded once per
// test binary.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// ViewingActivityCSV is a small export with two profiles, a movie watched
// twice, a replayed series episode and two autoplayed rows that must be
// dropped.
const ViewingActivityCSV = `Profile Name,Start Time,Duration,Attributes,Title,Supplemental Video Type,Device Type,Bookmark,Latest Bookmark,Country
Ana,2023-01-10 20:00:00,00:45:00,,Dark: Season 1: Secrets (Episode 1),,Smart TV,00:45:00,00:45:00,ES (Spain)
Ana,2023-01-10 21:00:00,00:45:00,,Dark: Season 1: Lies (Episode 2),,Smart TV,00:45:00,00:45:00,ES (Spain)
Luis,2023-01-11 18:00:00,01:00:00,,Inception,,Laptop,01:00:00,01:00:00,ES (Spain)
Ana,2023-01-12 22:00:00,00:30:00,,Dark: Season 1: Lies (Episode 2),,Phone,00:30:00,00:30:00,ES (Spain)
Luis,2023-01-13 09:00:00,00:00:30,Autoplayed: user action: None;,Dark: Season 1: Secrets (Episode 1),,Laptop,00:00:30,00:00:30,ES (Spain)
Luis,2023-02-01 19:30:00,00:30:00,,Inception,,Laptop,01:30:00,01:30:00,ES (Spain)
Kids,2023-02-02 17:00:00,00:01:10,,Coco,TRAILER,Smart TV,00:01:10,00:01:10,ES (Spain)
Ana,2023-03-05 16:15:00,01:10:00,,La casa de papel: Parte 1: Episodio 1,,Smart TV,01:10:00,01:10:00,ES (Spain)
`

// ViewingActivityPath is where the viewing activity lives inside an export.
const ViewingActivityPath = "CONTENT_INTERACTION/ViewingActivity.csv"

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// WriteViewingActivity writes content as ViewingActivity.csv under dir and
// returns its path.
func WriteViewingActivity(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, "ViewingActivity.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write viewing activity: %v", err)
	}
	return path
}

// WriteExportZip writes a zip archive holding content at ViewingActivityPath
// and returns the archive path.
func WriteExportZip(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, "netflix-report.zip")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer file.Close()

	writer := zip.NewWriter(file)
	entry, err := writer.Create(ViewingActivityPath)
	if err != nil {
		t.Fatalf("failed to add archive entry: %v", err)
	}
	if _, err := entry.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write archive entry: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return path
}

// NewEvent builds a classified event for the given profile.
func NewEvent(profile string, title string, start time.Time, duration time.Duration, isSeries bool) model.ViewingEvent {
	return model.NewViewingEvent(profile, title, start, duration, duration.String()).WithSeries(isSeries)
}

// ConfigDir returns the absolute path of the repository configs folder.
func ConfigDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "configs")
}

// SetupOS points the configuration loader at the repository configs folder
// and the "test" runtime.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, ConfigDir())
	if err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig returns the cached test configuration, loading it on first use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// GetConfigIn returns a copy of the test configuration whose local paths are
// rooted at dir, so a test can run the pipeline inside t.TempDir().
func GetConfigIn(dir string) *cloud.Config {
	config := *GetConfig()
	config.Paths = config.Paths.RootedAt(dir)
	return &config
}
