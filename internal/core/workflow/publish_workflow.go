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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements the
// optional publish stage: artifacts to Cloud Storage, summaries to BigQuery.
package workflow

import (
	"time"

	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/commands"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// PublishWorkflow uploads the files of a run and streams its summaries.
// Each half runs only when enabled in the configuration.
type PublishWorkflow struct {
	cor.BaseCommand
	config   *cloud.Config
	store    *services.TableStore
	service  *services.ReportService
	uploader *cloud.QuotaAwareUploader
	chain    cor.Chain
}

// IsExecutable is false when neither storage nor BigQuery is enabled.
func (w *PublishWorkflow) IsExecutable(context cor.Context) bool {
	enabled := w.config.Storage.Enabled || w.config.BigQueryDataSource.Enabled
	return enabled && w.chain.IsExecutable(context)
}

// Execute creates the run, unless one is already in the context, and runs
// the chain. The published objects are left under
// commands.GetPublishedParameterName().
func (w *PublishWorkflow) Execute(context cor.Context) {
	if _, ok := cor.Get[*model.Run](context, commands.GetRunParameterName()); !ok {
		context.Add(commands.GetRunParameterName(), model.NewRun(w.config.Application.ExportName))
	}
	w.chain.Execute(context)
}

func (w *PublishWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	if w.config.BigQueryDataSource.Enabled {
		// Read the tables back when the aggregation stage did not run.
		out.AddCommand(commands.NewReportLoader("report-loader", w.store))
	}

	if w.config.Storage.Enabled {
		storage := w.config.Storage
		out.AddCommand(commands.NewArtifactCollector("artifact-collector", w.config.Paths))
		out.AddCommand(commands.NewGCSFileUpload("gcs-file-upload", w.uploader, storage.ReportBucket, storage.ObjectPrefix, w.config.Paths))
		if storage.SignerServiceAccountEmail != "" {
			out.AddCommand(commands.NewReportSignedURL("report-signed-url", w.service, time.Duration(storage.SignedURLMinutes)*time.Minute))
		}
	}

	if w.config.BigQueryDataSource.Enabled {
		out.AddCommand(commands.NewSummariesPersistToBigQuery("write-to-bigquery", w.service))
	}

	w.chain = out
}

// NewPublishWorkflow is the constructor for the PublishWorkflow, writing
// objects with the storage client of serviceClients.
func NewPublishWorkflow(config *cloud.Config, serviceClients *cloud.ServiceClients) *PublishWorkflow {
	var newWriter cloud.ObjectWriterFactory
	if serviceClients.StorageClient != nil {
		newWriter = cloud.StorageWriterFactory(serviceClients.StorageClient)
	}
	return NewPublishWorkflowWithWriter(config, serviceClients, newWriter)
}

// NewPublishWorkflowWithWriter is NewPublishWorkflow with a custom object
// writer.
func NewPublishWorkflowWithWriter(config *cloud.Config, serviceClients *cloud.ServiceClients, newWriter cloud.ObjectWriterFactory) *PublishWorkflow {
	workflow := &PublishWorkflow{
		BaseCommand: *cor.NewBaseCommand("publish-workflow"),
		config:      config,
		store:       services.NewTableStore(config.Paths.InterimDir),
		service: &services.ReportService{
			BigqueryClient: serviceClients.BigQueryClient,
			IAMClient:      serviceClients.IAMClient,
			SignerEmail:    config.Storage.SignerServiceAccountEmail,
			DatasetName:    config.BigQueryDataSource.DatasetName,
			MovieTable:     config.BigQueryDataSource.MovieTable,
			SeriesTable:    config.BigQueryDataSource.SeriesTable,
		},
		uploader: cloud.NewQuotaAwareUploader(newWriter, config.Storage.MaxUploadsPerSecond, config.Storage.UploadBurst),
	}
	workflow.initializeChain()
	return workflow
}
