// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package runnertest provides a scripted runner.Runner for tests.
package runnertest

import (
	"context"
	"io"
	"sync"

	"github.com/kubiya-solutions-engineering/cli-tools/internal/runner"
)

// FakeRunner records commands and replays scripted outcomes in place of the
// real binaries.
type FakeRunner struct {
	mu sync.Mutex

	// Calls records every command in order
	Calls []runner.Command

	// Stdins records what each call received on stdin
	Stdins []string

	// Handler computes the outcome for a command. When nil, every command
	// succeeds with empty output.
	Handler func(cmd runner.Command) (*runner.Outcome, error)
}

// Run records cmd and returns the scripted outcome.
func (f *FakeRunner) Run(ctx context.Context, cmd runner.Command) (*runner.Outcome, error) {
	var stdin string
	if cmd.Stdin != nil {
		data, _ := io.ReadAll(cmd.Stdin)
		stdin = string(data)
	}

	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	f.Stdins = append(f.Stdins, stdin)
	handler := f.Handler
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &runner.Outcome{ExitCode: runner.ExitTimeout}, runner.ErrCancelled
	}
	if handler == nil {
		return &runner.Outcome{}, nil
	}
	return handler(cmd)
}

// CallCount returns how many commands ran.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// Names returns the executable of each recorded call.
func (f *FakeRunner) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		names[i] = c.Name
	}
	return names
}
