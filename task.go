package topo

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-multierror"
)

// GoalState is the terminal state an orchestrator should drive a task
// toward. RUNNING tasks are restarted when they exit; FINISHED and ONCE
// tasks are expected to complete.
type GoalState string

const (
	GoalRunning  GoalState = "RUNNING"
	GoalFinished GoalState = "FINISHED"
	GoalOnce     GoalState = "ONCE"
)

// TaskSpec describes a single process within a pod replica.
type TaskSpec struct {
	Goal        GoalState                     `yaml:"goal,omitempty" json:"goal,omitempty"`
	Cmd         string                        `yaml:"cmd" json:"cmd"`
	CPUs        float64                       `yaml:"cpus" json:"cpus"`
	Memory      int                           `yaml:"memory" json:"memory"`
	Discovery   string                        `yaml:"discovery,omitempty" json:"discovery,omitempty"`
	HealthCheck *HealthCheckSpec              `yaml:"health-check,omitempty" json:"health-check,omitempty"`
	Configs     map[string]ConfigTemplateSpec `yaml:"configs,omitempty" json:"configs,omitempty"`
}

// Discovery prefixes end up in DNS, so they are held to label rules.
var discoveryRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// DiscoveryName returns the lookup name a replica of this task registers
// under. The configured discovery prefix is used when set, otherwise the
// prefix defaults to "<pod>-<task>".
func (t TaskSpec) DiscoveryName(pod, task string, replica int) string {
	prefix := t.Discovery
	if prefix == "" {
		prefix = fmt.Sprintf("%s-%s", pod, task)
	}
	return fmt.Sprintf("%s-%d", prefix, replica)
}

// validate performs validation of a TaskSpec
func (t *TaskSpec) validate() error {
	var errs *multierror.Error

	if t.Goal != "" && !isValidGoal(t.Goal) {
		errs = multierror.Append(errs, fmt.Errorf("invalid goal state: %s", t.Goal))
	}

	if t.Cmd == "" {
		errs = multierror.Append(errs, fmt.Errorf("cmd is required"))
	}

	if t.CPUs <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("cpus must be positive, got %v", t.CPUs))
	}

	if t.Memory <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("memory must be positive, got %d", t.Memory))
	}

	if t.Discovery != "" && !discoveryRe.MatchString(t.Discovery) {
		errs = multierror.Append(errs, fmt.Errorf("invalid discovery prefix: %q is not a DNS label", t.Discovery))
	}

	if t.HealthCheck != nil {
		if err := t.HealthCheck.validate(); err != nil {
			errs = multierror.Append(errs, multierror.Prefix(err, "health-check:"))
		}
	}

	for name, config := range t.Configs {
		if name == "" {
			errs = multierror.Append(errs, fmt.Errorf("configs: config name must not be empty"))
			continue
		}
		if err := config.validate(); err != nil {
			errs = multierror.Append(errs, multierror.Prefix(err, fmt.Sprintf("configs[%s]:", name)))
		}
	}

	return errs.ErrorOrNil()
}

func isValidGoal(goal GoalState) bool {
	validGoals := map[GoalState]bool{
		GoalRunning:  true,
		GoalFinished: true,
		GoalOnce:     true,
	}
	return validGoals[goal]
}
