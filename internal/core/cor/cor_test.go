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

package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/viewing-insights/internal/core/cor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendCommand appends its suffix to the string input.
type appendCommand struct {
	cor.BaseCommand
	suffix string
}

func newAppendCommand(name string, suffix string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix}
}

func (c *appendCommand) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)
	context.Add(c.GetOutputParam(), in+c.suffix)
}

// failCommand records an error and produces nothing.
type failCommand struct {
	cor.BaseCommand
}

func (c *failCommand) Execute(context cor.Context) {
	context.AddError(c.GetName(), errors.New("boom"))
}

func newContext(in interface{}) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	if in != nil {
		chainCtx.Add(cor.CtxIn, in)
	}
	return chainCtx
}

func TestChainPipesOutputs(t *testing.T) {
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(newAppendCommand("a", "-a")).AddCommand(newAppendCommand("b", "-b"))

	chainCtx := newContext("x")
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, "x-a-b", chainCtx.Get(cor.CtxOut))
	assert.Nil(t, chainCtx.Get(cor.CtxIn))
}

func TestNestedChains(t *testing.T) {
	inner := cor.NewBaseChain("inner")
	inner.AddCommand(newAppendCommand("b", "-b")).AddCommand(newAppendCommand("c", "-c"))
	outer := cor.NewBaseChain("outer")
	outer.AddCommand(newAppendCommand("a", "-a")).AddCommand(inner).AddCommand(newAppendCommand("d", "-d"))

	chainCtx := newContext("x")
	outer.Execute(chainCtx)

	assert.Equal(t, "x-a-b-c-d", chainCtx.Get(cor.CtxOut))
}

func TestChainStopsOnError(t *testing.T) {
	chain := cor.NewBaseChain("stop")
	chain.AddCommand(&failCommand{BaseCommand: *cor.NewBaseCommand("fail")}).
		AddCommand(newAppendCommand("a", "-a"))

	chainCtx := newContext("x")
	chain.Execute(chainCtx)

	require.True(t, chainCtx.HasErrors())
	require.Len(t, chainCtx.GetErrors(), 1)
	var commandErr *cor.CommandError
	require.ErrorAs(t, chainCtx.Err(), &commandErr)
	assert.Equal(t, "fail", commandErr.Command)
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
}

func TestChainContinueOnFailure(t *testing.T) {
	chain := cor.NewBaseChain("continue")
	chain.ContinueOnFailure(true)
	chain.AddCommand(newAppendCommand("a", "-a")).
		AddCommand(&failCommand{BaseCommand: *cor.NewBaseCommand("fail")}).
		AddCommand(newAppendCommand("b", "-b"))

	chainCtx := newContext("x")
	chain.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	// The failing command produced no output, so "b" had no input and was skipped.
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
}

func TestSkippedCommandKeepsInput(t *testing.T) {
	skipped := newAppendCommand("skipped", "-s")
	skipped.InputParamName = "__MISSING__"
	chain := cor.NewBaseChain("skip")
	chain.AddCommand(newAppendCommand("a", "-a")).AddCommand(skipped).AddCommand(newAppendCommand("b", "-b"))

	chainCtx := newContext("x")
	chain.Execute(chainCtx)

	assert.Equal(t, "x-a-b", chainCtx.Get(cor.CtxOut))
}

func TestContextWarningsAndTempFiles(t *testing.T) {
	chainCtx := newContext(nil)
	chainCtx.AddWarning("agg", errors.New("degenerate"))
	assert.Len(t, chainCtx.GetWarnings(), 1)
	assert.False(t, chainCtx.HasErrors())
	assert.NoError(t, chainCtx.Err())

	dir := filepath.Join(t.TempDir(), "scratch")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	chainCtx.AddTempFile(dir)
	chainCtx.Close()
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestTypedGet(t *testing.T) {
	chainCtx := newContext(nil)
	chainCtx.Add("n", 3)
	n, ok := cor.Get[int](chainCtx, "n")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = cor.Get[string](chainCtx, "n")
	assert.False(t, ok)
}
