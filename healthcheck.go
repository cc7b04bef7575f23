package topo

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Seconds is a whole-second duration as it appears on the wire.
type Seconds int

// Duration converts the wire value into a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s) * time.Second
}

// HealthCheckSpec is a command-based liveness probe for a task. All
// durations are whole seconds; grace-period suppresses failures after
// startup and delay postpones the first probe.
type HealthCheckSpec struct {
	Cmd                    string  `yaml:"cmd" json:"cmd"`
	Interval               Seconds `yaml:"interval,omitempty" json:"interval,omitempty"`
	GracePeriod            Seconds `yaml:"grace-period,omitempty" json:"grace-period,omitempty"`
	Delay                  Seconds `yaml:"delay,omitempty" json:"delay,omitempty"`
	Timeout                Seconds `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	MaxConsecutiveFailures int     `yaml:"max-consecutive-failures,omitempty" json:"max-consecutive-failures,omitempty"`
}

// validate performs validation of a HealthCheckSpec
func (h *HealthCheckSpec) validate() error {
	var errs *multierror.Error

	if h.Cmd == "" {
		errs = multierror.Append(errs, fmt.Errorf("cmd is required"))
	}

	for _, d := range []struct {
		name  string
		value Seconds
	}{
		{"interval", h.Interval},
		{"grace-period", h.GracePeriod},
		{"delay", h.Delay},
		{"timeout", h.Timeout},
	} {
		if d.value < 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s must not be negative, got %d", d.name, d.value))
		}
	}

	if h.MaxConsecutiveFailures < 0 {
		errs = multierror.Append(errs, fmt.Errorf("max-consecutive-failures must not be negative, got %d",
			h.MaxConsecutiveFailures))
	}

	return errs.ErrorOrNil()
}
