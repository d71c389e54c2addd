// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

// Package provision runs the image-build-time pipeline as an explicit
// ordered list of steps. The order is the only valid topological order
// of the steps' filesystem dependencies, so it is fixed here rather than
// left implicit in a script.
package provision

import (
	"context"
	"fmt"

	"github.com/maidsafe/vaultenv/pkg/sylog"
)

// Step is one provisioning stage. Provisioned is the step's
// postcondition check: when it already holds, Run is skipped, which is
// what makes a second full pipeline run a no-op.
type Step interface {
	Name() string
	Provisioned() (bool, error)
	Run(ctx context.Context) error
}

// Pipeline is the ordered, sequential, fail-fast step list.
type Pipeline struct {
	steps []Step
}

// PlanEntry describes one step for a dry run.
type PlanEntry struct {
	Name        string
	Provisioned bool
}

// Run executes every step in order. The first failure aborts the rest;
// there is no partial-success state worth reporting beyond which step
// failed.
func (p *Pipeline) Run(ctx context.Context) error {
	for _, s := range p.steps {
		done, err := s.Provisioned()
		if err != nil {
			return fmt.Errorf("step %s: while checking state: %w", s.Name(), err)
		}
		if done {
			sylog.Infof("Step %s already provisioned, skipping", s.Name())
			continue
		}

		sylog.Infof("Running step %s", s.Name())
		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("step %s: %w", s.Name(), err)
		}
	}
	return nil
}

// RunStep executes a single named step unconditionally.
func (p *Pipeline) RunStep(ctx context.Context, name string) error {
	for _, s := range p.steps {
		if s.Name() != name {
			continue
		}
		sylog.Infof("Running step %s", s.Name())
		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("step %s: %w", s.Name(), err)
		}
		return nil
	}
	return fmt.Errorf("unknown provisioning step %q", name)
}

// Plan reports each step and whether its postcondition already holds,
// without mutating anything.
func (p *Pipeline) Plan() ([]PlanEntry, error) {
	entries := make([]PlanEntry, 0, len(p.steps))
	for _, s := range p.steps {
		done, err := s.Provisioned()
		if err != nil {
			return nil, fmt.Errorf("step %s: while checking state: %w", s.Name(), err)
		}
		entries = append(entries, PlanEntry{Name: s.Name(), Provisioned: done})
	}
	return entries, nil
}

// StepNames lists the pipeline's steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		names = append(names, s.Name())
	}
	return names
}
