// Copyright (c) Contributors to the vaultenv project. All rights reserved.
// This software is licensed under a 3-clause BSD license. Please consult the
// LICENSE.md file distributed with the sources of this project regarding your
// rights to use or distribute this software.

package provision

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/maidsafe/vaultenv/internal/pkg/config"
	"github.com/maidsafe/vaultenv/pkg/sylog"
)

func TestMain(m *testing.M) {
	sylog.SetLevel(-1, false)
	os.Exit(m.Run())
}

// fakeStep records runs and can simulate failure or prior provisioning.
type fakeStep struct {
	name        string
	provisioned bool
	fail        bool
	log         *[]string
}

func (s *fakeStep) Name() string                { return s.name }
func (s *fakeStep) Provisioned() (bool, error)  { return s.provisioned, nil }
func (s *fakeStep) Run(_ context.Context) error {
	*s.log = append(*s.log, s.name)
	if s.fail {
		return fmt.Errorf("boom")
	}
	return nil
}

func TestRunOrderAndFailFast(t *testing.T) {
	var log []string
	p := &Pipeline{steps: []Step{
		&fakeStep{name: "identity", log: &log},
		&fakeStep{name: "fixuid", log: &log},
		&fakeStep{name: "toolchain", fail: true, log: &log},
		&fakeStep{name: "workspace", log: &log},
	}}

	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("pipeline should fail when a step fails")
	}
	// the failing step is named for the provisioning log
	if !strings.Contains(err.Error(), "step toolchain") {
		t.Errorf("error %q does not name the failed step", err)
	}

	want := []string{"identity", "fixuid", "toolchain"}
	if len(log) != len(want) {
		t.Fatalf("ran %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("step %d = %s, want %s", i, log[i], want[i])
		}
	}
}

func TestRunSkipsProvisionedSteps(t *testing.T) {
	var log []string
	p := &Pipeline{steps: []Step{
		&fakeStep{name: "identity", provisioned: true, log: &log},
		&fakeStep{name: "fixuid", log: &log},
	}}

	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 || log[0] != "fixuid" {
		t.Errorf("ran %v, want only fixuid", log)
	}
}

func TestRunStep(t *testing.T) {
	var log []string
	p := &Pipeline{steps: []Step{
		&fakeStep{name: "identity", log: &log},
		&fakeStep{name: "fixuid", log: &log},
	}}

	if err := p.RunStep(context.Background(), "fixuid"); err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 || log[0] != "fixuid" {
		t.Errorf("ran %v, want only fixuid", log)
	}

	if err := p.RunStep(context.Background(), "nonesuch"); err == nil {
		t.Error("unknown step name should be rejected")
	}
}

func TestPlan(t *testing.T) {
	var log []string
	p := &Pipeline{steps: []Step{
		&fakeStep{name: "identity", provisioned: true, log: &log},
		&fakeStep{name: "fixuid", log: &log},
	}}

	plan, err := p.Plan()
	if err != nil {
		t.Fatal(err)
	}
	if len(plan) != 2 || !plan[0].Provisioned || plan[1].Provisioned {
		t.Errorf("plan = %+v", plan)
	}
	if len(log) != 0 {
		t.Errorf("Plan must not run steps, ran %v", log)
	}
}

func TestNewPipelineOrder(t *testing.T) {
	p := NewPipeline(config.Default())

	want := []string{StepIdentity, StepFixuid, StepToolchain, StepWorkspace}
	got := p.StepNames()
	if len(got) != len(want) {
		t.Fatalf("steps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %s, want %s", i, got[i], want[i])
		}
	}
}
