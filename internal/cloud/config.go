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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, and the Google Cloud clients built from it.
//
// This file centralizes all configuration-related structs, making it easy
// to understand and manage the application's configurable parameters.
//
// Structs:
//   - Application: Name, project and the timezone used for hour-of-day metrics.
//   - Paths: Local file layout of the pipeline (raw export, tables, figures).
//   - Visualization: Chart and animation settings.
//   - Telemetry: Logging and OpenTelemetry export settings.
//   - Storage: Optional publishing of artifacts to a GCS bucket.
//   - BigQueryDataSource: Optional streaming of summaries into BigQuery.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Every struct carries `validate` tags checked by Config.Validate after loading.
package cloud

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Application holds the identity of the deployment.
type Application struct {
	Name            string `toml:"name" validate:"required"`                      // Service name reported in telemetry.
	GoogleProjectId string `toml:"google_project_id"`                             // Project used by cloud clients and exporters.
	Timezone        string `toml:"timezone" validate:"required,timezone"`         // IANA zone used to compute hour-of-day values.
	CredentialsFile string `toml:"credentials_file" validate:"omitempty,file"`    // Optional service account key for cloud clients.
	ExportName      string `toml:"export_name" validate:"required,endswith=.zip"` // Name of the account export archive.
}

// Paths is the local file layout. Relative paths are resolved from the
// working directory.
type Paths struct {
	RawDir          string `toml:"raw_dir" validate:"required"`          // Folder holding the export archive.
	ExportFolder    string `toml:"export_folder" validate:"required"`    // Folder, under RawDir, receiving the extracted export.
	ViewingActivity string `toml:"viewing_activity" validate:"required"` // Path of the activity CSV inside the export.
	InterimDir      string `toml:"interim_dir" validate:"required"`      // Folder for the persisted tables.
	ReportDir       string `toml:"report_dir" validate:"required"`       // Folder for the merged report.
	FiguresDir      string `toml:"figures_dir" validate:"required"`      // Folder for figure PDFs.
	AnimationsDir   string `toml:"animations_dir" validate:"required"`   // Folder, under FiguresDir, for GIF animations.
}

// ExportDir is the folder receiving the extracted export.
func (p Paths) ExportDir() string {
	return filepath.Join(p.RawDir, p.ExportFolder)
}

// ViewingActivityFile is the activity CSV of the extracted export.
func (p Paths) ViewingActivityFile() string {
	return filepath.Join(p.ExportDir(), filepath.FromSlash(p.ViewingActivity))
}

// AnimationDir is the folder receiving the GIF animations.
func (p Paths) AnimationDir() string {
	return filepath.Join(p.FiguresDir, p.AnimationsDir)
}

// ReportFile is the merged PDF report.
func (p Paths) ReportFile() string {
	return filepath.Join(p.ReportDir, "report.pdf")
}

// RootedAt returns a copy whose relative folders are moved under dir.
func (p Paths) RootedAt(dir string) Paths {
	root := func(in string) string {
		if filepath.IsAbs(in) {
			return in
		}
		return filepath.Join(dir, in)
	}
	p.RawDir = root(p.RawDir)
	p.InterimDir = root(p.InterimDir)
	p.ReportDir = root(p.ReportDir)
	p.FiguresDir = root(p.FiguresDir)
	return p
}

// Visualization configures the presentation stage.
type Visualization struct {
	Enabled           bool     `toml:"enabled"`                                         // Skip the stage when false.
	SeriesScope       string   `toml:"series_scope" validate:"required"`                // Scope whose series get a timeline chart.
	TopSeries         int      `toml:"top_series" validate:"gte=0"`                     // Number of timelines, by total duration; 0 means all.
	ClusterGapDays    float64  `toml:"cluster_gap_days" validate:"gt=0"`                // Gap that separates two viewing streaks.
	AnimationStepDays int      `toml:"animation_step_days" validate:"gte=1"`            // Days between frames of the cumulative animation.
	FrameDelayMillis  int      `toml:"frame_delay_ms" validate:"gte=0"`                 // Delay of each cumulative animation frame.
	BinMonths         int      `toml:"bin_months" validate:"gte=1,lte=12"`              // Width of the profile chart bins.
	Colors            []string `toml:"colors" validate:"min=2,dive,hexcolor"`           // Color map stops, first to last.
	FigureWidthCm     float64  `toml:"figure_width_cm" validate:"gt=0"`                 // Figure width.
	FigureHeightCm    float64  `toml:"figure_height_cm" validate:"gt=0"`                // Figure height.
	FramePixels       int      `toml:"frame_pixels" validate:"gte=100,lte=4000"`        // Width of animation frames.
	SkipAnimations    bool     `toml:"skip_animations"`                                 // Only render the static figures.
	MaxAnimationFrame int      `toml:"max_animation_frames" validate:"omitempty,gte=2"` // Upper bound on frames per GIF, 0 means unbounded.
}

// Telemetry configures logging and OpenTelemetry.
type Telemetry struct {
	ExportToGCP bool   `toml:"export_to_gcp"`                                              // Send traces and metrics to Cloud Trace and Cloud Monitoring.
	LogFile     string `toml:"log_file"`                                                   // Log file, in addition to stdout; empty disables it.
	LogLevel    string `toml:"log_level" validate:"omitempty,oneof=debug info warn error"` // Minimum slog level.
}

// Storage configures publishing of the produced files to GCS.
type Storage struct {
	Enabled                   bool    `toml:"enabled"`                                                 // Publish when true.
	ReportBucket              string  `toml:"report_bucket" validate:"required_if=Enabled true"`       // Destination bucket.
	ObjectPrefix              string  `toml:"object_prefix"`                                           // Prefix prepended to every object name.
	MaxUploadsPerSecond       float64 `toml:"max_uploads_per_second" validate:"gt=0"`                  // Upload throttle.
	UploadBurst               int     `toml:"upload_burst" validate:"gte=1"`                           // Uploads allowed back to back.
	SignerServiceAccountEmail string  `toml:"signer_service_account_email" validate:"omitempty,email"` // Signs the report URL when set.
	SignedURLMinutes          int     `toml:"signed_url_minutes" validate:"gte=1"`                     // Lifetime of the signed URL.
}

// BigQueryDataSource configures streaming of the summaries into BigQuery.
type BigQueryDataSource struct {
	Enabled     bool   `toml:"enabled"`                                          // Stream when true.
	DatasetName string `toml:"dataset" validate:"required_if=Enabled true"`      // The name of the BigQuery dataset.
	MovieTable  string `toml:"movie_table" validate:"required_if=Enabled true"`  // Table for movie summaries.
	SeriesTable string `toml:"series_table" validate:"required_if=Enabled true"` // Table for series summaries.
}

// Config is the top-level configuration.
type Config struct {
	Application        Application        `toml:"application"`
	Paths              Paths              `toml:"paths"`
	Visualization      Visualization      `toml:"visualization"`
	Telemetry          Telemetry          `toml:"telemetry"`
	Storage            Storage            `toml:"storage"`               // Storage configuration.
	BigQueryDataSource BigQueryDataSource `toml:"big_query_data_source"` // BigQuery data source configuration.
}

// NewConfig returns a Config holding the defaults that TOML files override.
func NewConfig() *Config {
	return &Config{
		Application: Application{Name: "viewing-insights", Timezone: "UTC", ExportName: "netflix-report.zip"},
		Visualization: Visualization{
			Enabled:           true,
			SeriesScope:       "profile_0",
			TopSeries:         30,
			ClusterGapDays:    48,
			AnimationStepDays: 5,
			FrameDelayMillis:  15,
			BinMonths:         2,
			Colors:            []string{"#ff0000", "#000000"},
			FigureWidthCm:     33,
			FigureHeightCm:    20,
			FramePixels:       800,
		},
		Telemetry: Telemetry{LogLevel: "info"},
		Storage:   Storage{MaxUploadsPerSecond: 5, UploadBurst: 1, SignedURLMinutes: 15},
	}
}

// Validate checks every `validate` tag of the configuration.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Location returns the timezone used for hour-of-day metrics.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Application.Timezone)
}

// ArchivePath is the export archive inside the raw folder.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.Paths.RawDir, c.Application.ExportName)
}
