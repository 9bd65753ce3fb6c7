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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines a
// command for uploading local files to a Google Cloud Storage (GCS) bucket.
//
// Logic Flow:
//  1. Get the artifacts to upload and the run from the COR context.
//  2. Name every object `<prefix>/<run id>/<kind>/<file>` so each run and
//     each kind of file gets its own folder.
//  3. Sniff the content type and stream the file through the rate limited
//     uploader, which retries failed attempts.
//  4. Record the uploaded objects for the following commands.
package commands

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/jaycherian/viewing-insights/internal/cloud"
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// GCSFileUpload uploads the artifacts of a run.
type GCSFileUpload struct {
	cor.BaseCommand
	uploader *cloud.QuotaAwareUploader
	bucket   string
	prefix   string
	roots    map[model.ArtifactKind]string // Local folder of each kind; object names are relative to it.
}

// NewGCSFileUpload is the constructor for creating a new GCSFileUpload command.
//
// Inputs:
//   - name: A string name for this command instance, used for logging and telemetry.
//   - uploader: Writes the objects.
//   - bucket: The name of the target GCS bucket for the upload.
//   - prefix: Prepended to every object name.
//   - paths: The local layout the artifacts come from.
//
// Outputs:
//   - *GCSFileUpload: A pointer to the newly instantiated command.
func NewGCSFileUpload(name string, uploader *cloud.QuotaAwareUploader, bucket string, prefix string, paths cloud.Paths) *GCSFileUpload {
	return &GCSFileUpload{
		BaseCommand: *cor.NewBaseCommand(name),
		uploader:    uploader,
		bucket:      bucket,
		prefix:      prefix,
		roots: map[model.ArtifactKind]string{
			model.ArtifactTable:     paths.InterimDir,
			model.ArtifactFigure:    paths.FiguresDir,
			model.ArtifactAnimation: paths.AnimationDir(),
			model.ArtifactReport:    paths.ReportDir,
		},
	}
}

// IsExecutable requires the artifacts as input and a run in the context.
func (c *GCSFileUpload) IsExecutable(context cor.Context) bool {
	_, ok := cor.Get[model.Artifacts](context, c.GetInputParam())
	_, hasRun := cor.Get[*model.Run](context, GetRunParameterName())
	return ok && hasRun && context.GetContext() != nil
}

func (c *GCSFileUpload) Execute(context cor.Context) {
	artifacts := context.Get(c.GetInputParam()).(model.Artifacts)
	run := context.Get(GetRunParameterName()).(*model.Run)

	published := make([]model.PublishedObject, 0, len(artifacts))
	for _, artifact := range artifacts {
		object := cloud.GCSObject{
			Bucket:   c.bucket,
			Name:     cloud.ObjectName(c.prefix, path.Join(run.Id, string(artifact.Kind)), c.roots[artifact.Kind], artifact.Path),
			MIMEType: cloud.ContentType(artifact.Path),
		}
		if err := c.uploader.Upload(context.GetContext(), artifact.Path, object); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to upload %s: %w", artifact.Path, err))
			return
		}
		slog.DebugContext(context.GetContext(), "uploaded artifact", "file", artifact.Path, "object", object.Name, "type", object.MIMEType)
		published = append(published, model.PublishedObject{Artifact: artifact, Bucket: object.Bucket, Object: object.Name})
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "published artifacts", "bucket", c.bucket, "run", run.Id, "count", len(published))
	context.Add(GetPublishedParameterName(), published)
	context.Add(c.GetOutputParam(), published)
}
