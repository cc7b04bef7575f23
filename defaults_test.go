package topo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	spec, err := Parse([]byte(`name: web
pods:
  front:
    count: 2
    tasks:
      server:
        cmd: ./serve
        cpus: 0.5
        memory: 128
        health-check:
          cmd: ./healthy
      cleanup:
        goal: ONCE
        cmd: ./cleanup
        cpus: 0.1
        memory: 32
`))
	require.NoError(t, err)
	require.NoError(t, spec.Normalize())

	server := spec.Pods["front"].Tasks["server"]
	assert.Equal(t, GoalRunning, server.Goal)
	require.NotNil(t, server.HealthCheck)
	assert.Equal(t, DefaultHealthCheckInterval, server.HealthCheck.Interval)
	assert.Equal(t, DefaultHealthCheckTimeout, server.HealthCheck.Timeout)
	assert.Equal(t, Seconds(0), server.HealthCheck.GracePeriod)
	assert.Equal(t, Seconds(0), server.HealthCheck.Delay)

	// Explicit values and goals are left alone.
	cleanup := spec.Pods["front"].Tasks["cleanup"]
	assert.Equal(t, GoalOnce, cleanup.Goal)
	assert.Nil(t, cleanup.HealthCheck)
}

func TestNormalizeKeepsExplicitDurations(t *testing.T) {
	spec := validSpec(t)
	require.NoError(t, spec.Normalize())

	hc := spec.Pods["data"].Tasks["node"].HealthCheck
	require.NotNil(t, hc)
	assert.Equal(t, Seconds(60), hc.Interval)
	assert.Equal(t, Seconds(20), hc.Timeout)
}

func TestNormalizePortMappings(t *testing.T) {
	spec, err := Parse([]byte(`name: web
pods:
  front:
    count: 1
    networks:
      edge:
        port-mappings:
          - "8080:80"
          - "9000-9002:9000-9002"
          - "53"
    tasks:
      server:
        cmd: ./serve
        cpus: 0.5
        memory: 128
`))
	require.NoError(t, err)
	require.NoError(t, spec.Normalize())

	edge := spec.Pods["front"].Networks["edge"]
	assert.Equal(t, []int{8080, 9000, 9001, 9002, 0}, edge.HostPorts)
	assert.Equal(t, []int{80, 9000, 9001, 9002, 53}, edge.ContainerPorts)
	assert.Nil(t, edge.PortMappings)
}

func TestNormalizeBadPortMapping(t *testing.T) {
	spec, err := Parse([]byte(`name: web
pods:
  front:
    count: 1
    networks:
      edge:
        port-mappings:
          - "nope:"
    tasks:
      server:
        cmd: ./serve
        cpus: 0.5
        memory: 128
`))
	require.NoError(t, err)

	err = spec.Normalize()
	require.Error(t, err)
	assert.ErrorContains(t, err, "pods[front].networks[edge]: invalid port mapping")
}

// Canonical normalizes a copy; the input document is left untouched.
func TestCanonical(t *testing.T) {
	spec, err := Parse([]byte(`name: web
pods:
  front:
    count: 1
    networks:
      edge:
        port-mappings:
          - "8080:80"
    tasks:
      server:
        cmd: ./serve
        cpus: 0.5
        memory: 128
`))
	require.NoError(t, err)

	out, err := Canonical(spec)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "goal: RUNNING")
	assert.Contains(t, text, "host-ports")
	assert.NotContains(t, text, "port-mappings")

	edge := spec.Pods["front"].Networks["edge"]
	assert.Equal(t, []string{"8080:80"}, edge.PortMappings)
	assert.Nil(t, edge.HostPorts)
	assert.Equal(t, GoalState(""), spec.Pods["front"].Tasks["server"].Goal)
}
