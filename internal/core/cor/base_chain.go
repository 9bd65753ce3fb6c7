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

// Package cor (Chain of Responsibility) provides the building blocks used to
// compose the pipeline stages as sequences of commands. This file defines
// `BaseChain`, the default implementation of the `Chain` interface.
//
// Logic Flow:
//  1. A span is opened for the chain and a child span for each command.
//  2. When the context holds an error and the chain does not continue on
//     failure, the remaining commands are skipped.
//  3. Commands that are not executable are skipped and leave the current
//     input untouched for the next command.
//  4. After a command runs, the value it left in CtxOut becomes CtxIn.
//  5. When the loop ends, the last value is moved back to CtxOut, so a chain
//     nested in another chain behaves like any other command.
package cor

import (
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain runs its commands sequentially.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool
	commands          []Command
}

// NewBaseChain is the constructor for BaseChain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// IsExecutable only requires a Go context; each command checks its own input.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	defer chCtx.SetContext(parentCtx)

	if out := chCtx.Get(CtxOut); out != nil && chCtx.Get(CtxIn) == nil {
		chCtx.Add(CtxIn, out)
	}
	chCtx.Remove(CtxOut)

	for _, command := range c.commands {
		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())

		if chCtx.HasErrors() && !c.continueOnFailure {
			commandSpan.SetStatus(codes.Error, "previous error on chain; skipping execution")
			commandSpan.End()
			break
		}

		if !command.IsExecutable(chCtx) {
			slog.Debug("skipping command", "chain", c.GetName(), "command", command.GetName())
			commandSpan.SetStatus(codes.Unset, "command not executable")
			commandSpan.End()
			continue
		}

		errorsBefore := len(chCtx.GetErrors())
		start := time.Now()
		chCtx.SetContext(commandContext)
		command.Execute(chCtx)
		chCtx.SetContext(outerCtx)

		if len(chCtx.GetErrors()) > errorsBefore {
			commandSpan.SetStatus(codes.Error, "error during command execution")
			slog.Error("command failed", "chain", c.GetName(), "command", command.GetName(), "elapsed", time.Since(start).String())
		} else {
			commandSpan.SetStatus(codes.Ok, "command completed successfully")
			slog.Debug("command completed", "chain", c.GetName(), "command", command.GetName(), "elapsed", time.Since(start).String())
		}
		commandSpan.End()

		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	if last := chCtx.Get(CtxIn); last != nil {
		chCtx.Add(CtxOut, last)
		chCtx.Remove(CtxIn)
	}

	if !chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}
