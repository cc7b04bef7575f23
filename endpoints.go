package topo

import (
	"fmt"
	"sort"
)

// Endpoint is one concrete network attachment of one pod replica. A
// network that exposes no ports still yields one address row per
// replica; otherwise there is one endpoint per port pair.
type Endpoint struct {
	Pod           string `yaml:"pod" json:"pod"`
	Replica       int    `yaml:"replica" json:"replica"`
	Network       string `yaml:"network" json:"network"`
	Address       string `yaml:"address,omitempty" json:"address,omitempty"`
	HostPort      int    `yaml:"host-port,omitempty" json:"host-port,omitempty"`
	ContainerPort int    `yaml:"container-port,omitempty" json:"container-port,omitempty"`
}

// Endpoints expands the document into the per-replica attachments an
// orchestrator would materialize. The result is deterministically
// ordered: pods and networks alphabetically, replicas ascending, port
// pairs in document order.
func (s *ServiceSpec) Endpoints() ([]Endpoint, error) {
	var endpoints []Endpoint

	for _, podName := range sortedKeys(s.Pods) {
		pod := s.Pods[podName]

		netNames := make([]string, 0, len(pod.Networks))
		for name := range pod.Networks {
			netNames = append(netNames, name)
		}
		sort.Strings(netNames)

		for replica := 0; replica < pod.Count; replica++ {
			for _, netName := range netNames {
				network := pod.Networks[netName]

				pairs, err := network.PortPairs()
				if err != nil {
					return nil, fmt.Errorf("pods[%s].networks[%s]: %w", podName, netName, err)
				}

				address := ""
				if replica < len(network.IPAddresses) {
					address = network.IPAddresses[replica]
				}

				if len(pairs) == 0 {
					endpoints = append(endpoints, Endpoint{
						Pod:     podName,
						Replica: replica,
						Network: netName,
						Address: address,
					})
					continue
				}

				for _, pair := range pairs {
					endpoints = append(endpoints, Endpoint{
						Pod:           podName,
						Replica:       replica,
						Network:       netName,
						Address:       address,
						HostPort:      pair.Host,
						ContainerPort: pair.Container,
					})
				}
			}
		}
	}

	return endpoints, nil
}

// TaskNames returns "pod/task" identifiers for every task in the
// document, alphabetically.
func (s *ServiceSpec) TaskNames() []string {
	var names []string
	for _, podName := range sortedKeys(s.Pods) {
		pod := s.Pods[podName]
		for _, taskName := range sortedKeys(pod.Tasks) {
			names = append(names, podName+"/"+taskName)
		}
	}
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
