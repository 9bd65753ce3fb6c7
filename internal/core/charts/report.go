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

package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jaycherian/viewing-insights/internal/core/model"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// FigureFiles lists the PDF files of dir, sorted by name.
func FigureFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &model.IOError{Op: "list", Path: dir, Err: err}
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(out)
	return out, nil
}

// MergeReport concatenates every figure PDF of figuresDir into reportFile.
//
// Outputs:
//   - []string: The merged figures, in page order.
//   - error: An error if there is nothing to merge or the merge fails.
func MergeReport(figuresDir string, reportFile string) ([]string, error) {
	figures, err := FigureFiles(figuresDir)
	if err != nil {
		return nil, err
	}
	if len(figures) == 0 {
		return nil, fmt.Errorf("no figures found in %s", figuresDir)
	}
	if err := os.MkdirAll(filepath.Dir(reportFile), 0o755); err != nil {
		return nil, &model.IOError{Op: "mkdir", Path: filepath.Dir(reportFile), Err: err}
	}
	if err := api.MergeCreateFile(figures, reportFile, false, nil); err != nil {
		return nil, fmt.Errorf("failed to merge %d figures into %s: %w", len(figures), reportFile, err)
	}
	return figures, nil
}
