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
// Responsibility (COR) pattern's Command interface. This file defines the
// command attaching a time limited download URL to the published report.
package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/jaycherian/viewing-insights/internal/core/services"
)

// ReportSignedURL signs the report object.
type ReportSignedURL struct {
	cor.BaseCommand
	service *services.ReportService
	expires time.Duration
}

// NewReportSignedURL is the constructor for ReportSignedURL.
func NewReportSignedURL(name string, service *services.ReportService, expires time.Duration) *ReportSignedURL {
	return &ReportSignedURL{BaseCommand: *cor.NewBaseCommand(name), service: service, expires: expires}
}

// IsExecutable requires the published objects as input.
func (c *ReportSignedURL) IsExecutable(context cor.Context) bool {
	_, ok := cor.Get[[]model.PublishedObject](context, c.GetInputParam())
	return ok && context.GetContext() != nil
}

func (c *ReportSignedURL) Execute(context cor.Context) {
	published := context.Get(c.GetInputParam()).([]model.PublishedObject)
	for i, object := range published {
		if object.Artifact.Kind != model.ArtifactReport {
			continue
		}
		url, err := c.service.GenerateSignedURL(context.GetContext(), object.Bucket, object.Object, c.expires)
		if err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to sign %s: %w", object.Object, err))
			return
		}
		published[i].SignedURL = url
		slog.InfoContext(context.GetContext(), "signed report url", "object", object.Object, "expires", c.expires.String())
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetPublishedParameterName(), published)
	context.Add(c.GetOutputParam(), published)
}
