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

// Command viewing-insights turns a Netflix account export into viewing
// statistics, charts and a PDF report.
//
//	viewing-insights run                 # every enabled stage
//	viewing-insights extract|aggregate|visualize|publish
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/workflow"
	"github.com/spf13/cobra"
)

var (
	configDir string
	runtime   string
)

// NewRootCmd returns the root command of the CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "viewing-insights",
		Short:         "Viewing history analytics for Netflix exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return InitState(cmd.Context(), configDir, runtime)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "folder holding .env.toml and .env.<runtime>.toml")
	rootCmd.PersistentFlags().StringVar(&runtime, "runtime", cloud.DefaultRuntime, "runtime overlay to load (e.g. local, test)")

	rootCmd.AddCommand(newStageCmd("run", "Run every enabled stage", func(config *cloud.Config) (cor.Command, error) {
		return workflow.NewPipeline(config, state.cloud)
	}))
	rootCmd.AddCommand(newStageCmd("extract", "Unpack the export and write netflix_data.csv", func(config *cloud.Config) (cor.Command, error) {
		return workflow.NewExtractionWorkflow(config)
	}))
	rootCmd.AddCommand(newStageCmd("aggregate", "Summarize movies and series per scope", func(config *cloud.Config) (cor.Command, error) {
		return workflow.NewAggregationWorkflow(config), nil
	}))
	rootCmd.AddCommand(newStageCmd("visualize", "Draw the figures, animations and report", func(config *cloud.Config) (cor.Command, error) {
		return workflow.NewVisualizationWorkflow(config)
	}))
	rootCmd.AddCommand(newStageCmd("publish", "Upload artifacts and stream summaries", func(config *cloud.Config) (cor.Command, error) {
		return workflow.NewPublishWorkflow(config, state.cloud), nil
	}))
	return rootCmd
}

func newStageCmd(use string, short string, build func(config *cloud.Config) (cor.Command, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := build(state.config)
			if err != nil {
				return err
			}
			return Run(cmd.Context(), stage, cmd.OutOrStdout())
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	state.Close(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
