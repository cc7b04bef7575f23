package topo

import (
	"fmt"
	"net"

	"github.com/hashicorp/go-multierror"
)

// NetworkSpec describes how the replicas of a pod attach to one named
// network: which groups they join, the address each replica binds, and
// the ports it exposes. Host and container ports pair by position.
type NetworkSpec struct {
	Groups         []string `yaml:"groups,omitempty" json:"groups,omitempty"`
	IPAddresses    []string `yaml:"ip-addresses,omitempty" json:"ip-addresses,omitempty"`
	HostPorts      []int    `yaml:"host-ports,omitempty" json:"host-ports,omitempty"`
	ContainerPorts []int    `yaml:"container-ports,omitempty" json:"container-ports,omitempty"`
	PortMappings   []string `yaml:"port-mappings,omitempty" json:"port-mappings,omitempty"`
}

// PortPair is one host/container port binding. A zero host port means
// the orchestrator picks one.
type PortPair struct {
	Host      int `yaml:"host" json:"host"`
	Container int `yaml:"container" json:"container"`
}

// PortPairs returns the positional host/container bindings, expanding
// the port-mappings shorthand when it is used instead of the explicit
// lists.
func (n *NetworkSpec) PortPairs() ([]PortPair, error) {
	hostPorts, containerPorts := n.HostPorts, n.ContainerPorts
	if len(n.PortMappings) > 0 {
		var err error
		hostPorts, containerPorts, err = expandPortMappings(n.PortMappings)
		if err != nil {
			return nil, err
		}
	}

	if len(hostPorts) != len(containerPorts) {
		return nil, fmt.Errorf("host-ports and container-ports pair by position, got %d and %d",
			len(hostPorts), len(containerPorts))
	}

	pairs := make([]PortPair, len(hostPorts))
	for i := range hostPorts {
		pairs[i] = PortPair{Host: hostPorts[i], Container: containerPorts[i]}
	}
	return pairs, nil
}

// validate performs validation of a NetworkSpec against the replica
// count of its pod
func (n *NetworkSpec) validate(replicas int) error {
	var errs *multierror.Error

	seen := make(map[string]bool)
	for _, group := range n.Groups {
		if group == "" {
			errs = multierror.Append(errs, fmt.Errorf("groups: group label must not be empty"))
			continue
		}
		if seen[group] {
			errs = multierror.Append(errs, fmt.Errorf("groups: duplicate group label %q", group))
		}
		seen[group] = true
	}

	for i, addr := range n.IPAddresses {
		if net.ParseIP(addr) == nil {
			errs = multierror.Append(errs, fmt.Errorf("ip-addresses[%d]: %q is not an IP literal", i, addr))
		}
	}

	// One address per replica.
	if len(n.IPAddresses) > 0 && replicas > 0 && len(n.IPAddresses) != replicas {
		errs = multierror.Append(errs, fmt.Errorf("ip-addresses: got %d addresses for %d replicas",
			len(n.IPAddresses), replicas))
	}

	if len(n.HostPorts) != len(n.ContainerPorts) {
		errs = multierror.Append(errs, fmt.Errorf("host-ports and container-ports pair by position, got %d and %d",
			len(n.HostPorts), len(n.ContainerPorts)))
	}

	for i, port := range n.HostPorts {
		if !isValidPort(port) {
			errs = multierror.Append(errs, fmt.Errorf("host-ports[%d]: invalid port number: %d", i, port))
		}
	}

	for i, port := range n.ContainerPorts {
		if !isValidPort(port) {
			errs = multierror.Append(errs, fmt.Errorf("container-ports[%d]: invalid port number: %d", i, port))
		}
	}

	if len(n.PortMappings) > 0 {
		if len(n.HostPorts) > 0 || len(n.ContainerPorts) > 0 {
			errs = multierror.Append(errs, fmt.Errorf("port-mappings cannot be combined with explicit port lists"))
		}
		if _, _, err := expandPortMappings(n.PortMappings); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	return errs.ErrorOrNil()
}

// isValidPort reports whether p is usable as a port number. Zero is
// allowed and means the orchestrator assigns one.
func isValidPort(p int) bool {
	return p >= 0 && p <= 65535
}
