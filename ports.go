package topo

import (
	"fmt"
	"strconv"

	"github.com/docker/go-connections/nat"
)

// expandPortMappings turns the "host:container" shorthand into the
// positional host/container port lists. Ranges expand pairwise, a bare
// container port gets host port 0 (orchestrator-assigned), and only tcp
// is representable in the document model.
func expandPortMappings(mappings []string) (hostPorts, containerPorts []int, err error) {
	for _, raw := range mappings {
		parsed, err := nat.ParsePortSpec(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid port mapping %q: %w", raw, err)
		}

		for _, pm := range parsed {
			if proto := pm.Port.Proto(); proto != "tcp" {
				return nil, nil, fmt.Errorf("port mapping %q: only tcp is representable, got %s", raw, proto)
			}
			if pm.Binding.HostIP != "" {
				return nil, nil, fmt.Errorf("port mapping %q: host IPs are not representable, use ip-addresses", raw)
			}

			host := 0
			if pm.Binding.HostPort != "" {
				host, err = strconv.Atoi(pm.Binding.HostPort)
				if err != nil {
					return nil, nil, fmt.Errorf("invalid port mapping %q: %w", raw, err)
				}
			}

			hostPorts = append(hostPorts, host)
			containerPorts = append(containerPorts, pm.Port.Int())
		}
	}

	return hostPorts, containerPorts, nil
}
