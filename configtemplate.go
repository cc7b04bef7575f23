package topo

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// ConfigTemplateSpec maps one templating source file onto the relative
// path it should be written to before the task starts. The destination
// may traverse upward (for example "../other/agent/agent.yaml") but must
// stay relative.
type ConfigTemplateSpec struct {
	Template string `yaml:"template" json:"template"`
	Dest     string `yaml:"dest" json:"dest"`
}

// validate performs validation of a ConfigTemplateSpec
func (c *ConfigTemplateSpec) validate() error {
	var errs *multierror.Error

	if c.Template == "" {
		errs = multierror.Append(errs, fmt.Errorf("template is required"))
	}

	if c.Dest == "" {
		errs = multierror.Append(errs, fmt.Errorf("dest is required"))
	} else if filepath.IsAbs(c.Dest) {
		errs = multierror.Append(errs, fmt.Errorf("dest must be a relative path, got %q", c.Dest))
	}

	return errs.ErrorOrNil()
}
