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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/commands"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/telemetry"
)

// StateManager holds the shared components of one CLI invocation.
type StateManager struct {
	config       *cloud.Config
	cloud        *cloud.ServiceClients
	closeLog     func() error
	shutdownOtel func(context.Context) error
}

var state = &StateManager{}

// SetupOS points the configuration loader at dir and runtime.
func SetupOS(dir string, runtime string) (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, dir)
	if err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, runtime)
}

// InitState loads the configuration and sets up logging, telemetry and the
// cloud clients the configuration enables.
func InitState(ctx context.Context, dir string, runtime string) error {
	if err := SetupOS(dir, runtime); err != nil {
		return err
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return err
	}
	state.config = config

	closeLog, err := telemetry.SetupLogging(config.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	state.closeLog = closeLog

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to setup OpenTelemetry: %w", err)
	}
	state.shutdownOtel = shutdown

	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create cloud clients: %w", err)
	}
	state.cloud = clients
	slog.InfoContext(ctx, "initialized state", "runtime", runtime, "storage", config.Storage.Enabled, "bigquery", config.BigQueryDataSource.Enabled)
	return nil
}

// Close releases clients and flushes telemetry.
func (s *StateManager) Close(ctx context.Context) {
	if s.cloud != nil {
		s.cloud.Close()
	}
	if s.shutdownOtel != nil {
		if err := s.shutdownOtel(context.WithoutCancel(ctx)); err != nil {
			slog.Error("failed to shutdown telemetry", "error", err)
		}
	}
	if s.closeLog != nil {
		_ = s.closeLog()
	}
}

// Run executes stage in a fresh chain context and prints a summary of what it
// produced. The returned error joins every error the stage recorded.
func Run(ctx context.Context, stage cor.Command, out io.Writer) error {
	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)

	if !stage.IsExecutable(chainCtx) {
		color.New(color.FgYellow).Fprintf(out, "%s is disabled\n", stage.GetName())
		return nil
	}
	stage.Execute(chainCtx)
	printSummary(chainCtx, out)

	if chainCtx.HasErrors() {
		return fmt.Errorf("%s failed: %w", stage.GetName(), chainCtx.Err())
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(errors.New("interrupted"), err)
	}
	return nil
}

func printSummary(chainCtx cor.Context, out io.Writer) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed, color.Bold)
	cyan := color.New(color.FgCyan)

	for _, artifact := range commands.GetArtifacts(chainCtx) {
		green.Fprintf(out, "%-9s %s\n", artifact.Kind, artifact.Path)
	}
	if published, ok := cor.Get[[]model.PublishedObject](chainCtx, commands.GetPublishedParameterName()); ok {
		for _, object := range published {
			cyan.Fprintf(out, "gs://%s/%s\n", object.Bucket, object.Object)
			if object.SignedURL != "" {
				cyan.Fprintf(out, "  report url: %s\n", object.SignedURL)
			}
		}
	}
	for _, warning := range chainCtx.GetWarnings() {
		yellow.Fprintf(out, "warning: %v\n", warning)
	}
	for _, err := range chainCtx.GetErrors() {
		red.Fprintf(out, "error: %v\n", err)
	}
}
