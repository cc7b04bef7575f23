package topo

import "fmt"

// Defaults applied by Normalize. Parsing never applies them, so an
// untouched document round-trips exactly as written.
const (
	DefaultHealthCheckInterval Seconds = 30
	DefaultHealthCheckTimeout  Seconds = 10
)

// Normalize fills defaults and expands shorthand in place: tasks with
// no goal become RUNNING, health checks get interval and timeout
// defaults, and port-mappings are expanded into the positional
// host-ports/container-ports lists.
func (s *ServiceSpec) Normalize() error {
	for podName, pod := range s.Pods {
		for taskName, task := range pod.Tasks {
			if task.Goal == "" {
				task.Goal = GoalRunning
			}
			if task.HealthCheck != nil {
				if task.HealthCheck.Interval == 0 {
					task.HealthCheck.Interval = DefaultHealthCheckInterval
				}
				if task.HealthCheck.Timeout == 0 {
					task.HealthCheck.Timeout = DefaultHealthCheckTimeout
				}
			}
			pod.Tasks[taskName] = task
		}

		for netName, network := range pod.Networks {
			if len(network.PortMappings) == 0 {
				continue
			}
			hostPorts, containerPorts, err := expandPortMappings(network.PortMappings)
			if err != nil {
				return fmt.Errorf("pods[%s].networks[%s]: %w", podName, netName, err)
			}
			network.HostPorts = hostPorts
			network.ContainerPorts = containerPorts
			network.PortMappings = nil
			pod.Networks[netName] = network
		}

		s.Pods[podName] = pod
	}

	return nil
}
