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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains the objects that only live inside a
// workflow execution: the list of files a stage produced and the bookkeeping
// the publish stage needs to upload them.
package model

// These objects are used in memory via workflows, but are not persisted anywhere.

// ArtifactKind classifies a produced file.
type ArtifactKind string

const (
	ArtifactTable     ArtifactKind = "table"
	ArtifactFigure    ArtifactKind = "figure"
	ArtifactAnimation ArtifactKind = "animation"
	ArtifactReport    ArtifactKind = "report"
)

// Artifact is a file written by the pipeline.
type Artifact struct {
	Kind ArtifactKind
	Path string // Local path of the file.
}

// Artifacts is the ordered list of files a workflow produced. Commands append
// to the list stored in the context under the artifacts parameter.
type Artifacts []Artifact

// Paths returns the local paths of the artifacts of the given kinds, or of
// every artifact when no kind is given.
func (a Artifacts) Paths(kinds ...ArtifactKind) []string {
	out := make([]string, 0, len(a))
	for _, artifact := range a {
		if len(kinds) == 0 {
			out = append(out, artifact.Path)
			continue
		}
		for _, kind := range kinds {
			if artifact.Kind == kind {
				out = append(out, artifact.Path)
				break
			}
		}
	}
	return out
}

// PublishedObject records one uploaded artifact.
type PublishedObject struct {
	Artifact  Artifact
	Bucket    string
	Object    string
	SignedURL string // Only set for the report when signing is configured.
}

// ChartData is the input of the presentation stage.
type ChartData struct {
	Events   []ViewingEvent  // Every normalized event.
	Profiles []string        // Profile ids in first-seen order.
	Scope    string          // Scope of Series.
	Series   []SeriesSummary // Series summaries of Scope, longest first.
}
