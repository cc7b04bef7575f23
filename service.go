package topo

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ServiceSpec is the root of a service topology document. It names the
// service and declares the pod templates an orchestrator should maintain.
type ServiceSpec struct {
	Name string             `yaml:"name" json:"name"`
	Pods map[string]PodSpec `yaml:"pods" json:"pods"`
}

// PodSpec is a replicated template of co-located tasks. Count is the
// number of replicas; networks describe how replicas attach to named
// networks.
type PodSpec struct {
	Count    int                    `yaml:"count" json:"count"`
	Networks map[string]NetworkSpec `yaml:"networks,omitempty" json:"networks,omitempty"`
	Tasks    map[string]TaskSpec    `yaml:"tasks,omitempty" json:"tasks,omitempty"`
}

// Validate checks the whole document and reports every problem found,
// each prefixed with its document path.
func (s *ServiceSpec) Validate() error {
	var errs *multierror.Error

	if s.Name == "" {
		errs = multierror.Append(errs, fmt.Errorf("name: a service name is required"))
	}

	if len(s.Pods) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("pods: at least one pod must be specified"))
	}

	for name, pod := range s.Pods {
		if name == "" {
			errs = multierror.Append(errs, fmt.Errorf("pods: pod type name must not be empty"))
			continue
		}
		if err := pod.validate(); err != nil {
			errs = multierror.Append(errs, multierror.Prefix(err, fmt.Sprintf("pods[%s]:", name)))
		}
	}

	return errs.ErrorOrNil()
}

// validate performs validation of a PodSpec
func (p *PodSpec) validate() error {
	var errs *multierror.Error

	if p.Count <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("count must be positive, got %d", p.Count))
	}

	for name, network := range p.Networks {
		if name == "" {
			errs = multierror.Append(errs, fmt.Errorf("networks: network name must not be empty"))
			continue
		}
		if err := network.validate(p.Count); err != nil {
			errs = multierror.Append(errs, multierror.Prefix(err, fmt.Sprintf("networks[%s]:", name)))
		}
	}

	// Discovery prefixes become lookup names; two tasks in the same pod
	// sharing one would collide.
	prefixes := make(map[string]string)
	for name, task := range p.Tasks {
		if name == "" {
			errs = multierror.Append(errs, fmt.Errorf("tasks: task name must not be empty"))
			continue
		}
		if err := task.validate(); err != nil {
			errs = multierror.Append(errs, multierror.Prefix(err, fmt.Sprintf("tasks[%s]:", name)))
		}
		if task.Discovery != "" {
			if other, seen := prefixes[task.Discovery]; seen {
				errs = multierror.Append(errs, fmt.Errorf(
					"tasks[%s]: discovery prefix %q already used by task %s", name, task.Discovery, other))
			} else {
				prefixes[task.Discovery] = name
			}
		}
	}

	return errs.ErrorOrNil()
}
