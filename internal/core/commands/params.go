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
// Responsibility (COR) pattern's Command interface for the viewing-history
// pipeline. This file holds the context keys shared between commands.
package commands

import (
	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/jaycherian/viewing-insights/internal/core/model"
)

// GetProfilesParameterName is the key of the model.ProfileMap built while
// normalizing the export.
func GetProfilesParameterName() string {
	return "__PROFILES__"
}

// GetReportParameterName is the key of the assembled model.Report.
func GetReportParameterName() string {
	return "__REPORT__"
}

// GetArtifactsParameterName is the key of the model.Artifacts written so far.
func GetArtifactsParameterName() string {
	return "__ARTIFACTS__"
}

// GetRunParameterName is the key of the *model.Run being executed.
func GetRunParameterName() string {
	return "__RUN__"
}

// GetPublishedParameterName is the key of the []model.PublishedObject
// uploaded by the publish stage.
func GetPublishedParameterName() string {
	return "__PUBLISHED__"
}

// GetArtifacts returns the artifacts recorded in the context.
func GetArtifacts(context cor.Context) model.Artifacts {
	artifacts, _ := cor.Get[model.Artifacts](context, GetArtifactsParameterName())
	return artifacts
}

// AddArtifacts appends files of one kind to the artifacts of the context.
func AddArtifacts(context cor.Context, kind model.ArtifactKind, paths ...string) {
	artifacts := GetArtifacts(context)
	for _, path := range paths {
		artifacts = append(artifacts, model.Artifact{Kind: kind, Path: path})
	}
	context.Add(GetArtifactsParameterName(), artifacts)
}
