package topo

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleDocument mirrors testdata/svc.yml and is shared across the
// package tests.
const sampleDocument = `name: data-store
pods:
  index:
    count: 1
    networks:
      dcos:
        groups:
          - prod
        ip-addresses:
          - 10.0.0.10
        host-ports:
          - 9042
        container-ports:
          - 9042
    tasks:
      node:
        goal: RUNNING
        cmd: ./bin/start --role index
        cpus: 0.1
        memory: 512
        discovery: index
        health-check:
          cmd: ./bin/health --check
          interval: 30
          grace-period: 120
          delay: 0
          timeout: 10
          max-consecutive-failures: 3
        configs:
          server:
            template: config/server.properties.tmpl
            dest: conf/server.properties
          agent:
            template: config/agent.yaml.tmpl
            dest: ../other/agent/agent.yaml
  data:
    count: 3
    networks:
      dcos:
        groups:
          - prod
          - storage
        ip-addresses:
          - 10.0.0.21
          - 10.0.0.22
          - 10.0.0.23
        host-ports:
          - 9160
          - 7000
        container-ports:
          - 9160
          - 7000
    tasks:
      node:
        goal: RUNNING
        cmd: ./bin/start --role data
        cpus: 1.5
        memory: 4096
        health-check:
          cmd: ./bin/health
          interval: 60
          timeout: 20
          max-consecutive-failures: 5
`

func TestParse(t *testing.T) {
	spec, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "data-store", spec.Name)
	require.Len(t, spec.Pods, 2)

	index, ok := spec.Pods["index"]
	require.True(t, ok)
	assert.Equal(t, 1, index.Count)

	dcos, ok := index.Networks["dcos"]
	require.True(t, ok)
	assert.Equal(t, []string{"prod"}, dcos.Groups)
	assert.Equal(t, []string{"10.0.0.10"}, dcos.IPAddresses)
	assert.Equal(t, []int{9042}, dcos.HostPorts)
	assert.Equal(t, []int{9042}, dcos.ContainerPorts)

	node, ok := index.Tasks["node"]
	require.True(t, ok)
	assert.Equal(t, GoalRunning, node.Goal)
	assert.Equal(t, "./bin/start --role index", node.Cmd)
	assert.Equal(t, "index", node.Discovery)

	hc := node.HealthCheck
	require.NotNil(t, hc)
	assert.Equal(t, "./bin/health --check", hc.Cmd)
	assert.Equal(t, Seconds(30), hc.Interval)
	assert.Equal(t, 120*time.Second, hc.GracePeriod.Duration())
	assert.Equal(t, Seconds(0), hc.Delay)
	assert.Equal(t, Seconds(10), hc.Timeout)
	assert.Equal(t, 3, hc.MaxConsecutiveFailures)

	require.Len(t, node.Configs, 2)
	assert.Equal(t, "config/server.properties.tmpl", node.Configs["server"].Template)
	assert.Equal(t, "conf/server.properties", node.Configs["server"].Dest)
	assert.Equal(t, "../other/agent/agent.yaml", node.Configs["agent"].Dest)
}

// Resource figures must survive parsing with their exact scalar types:
// cpus as a float64, memory as a whole number of megabytes.
func TestParseResourceTyping(t *testing.T) {
	spec, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	node := spec.Pods["index"].Tasks["node"]
	assert.Equal(t, 0.1, node.CPUs)
	assert.Equal(t, 512, node.Memory)

	data := spec.Pods["data"].Tasks["node"]
	assert.Equal(t, 1.5, data.CPUs)
	assert.Equal(t, 4096, data.Memory)
}

func TestParseRoundTrip(t *testing.T) {
	spec, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	data, err := Marshal(spec)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, spec, again)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		document string
		problem  string
	}{
		{
			name:     "unknown field",
			document: "name: x\npods:\n  p:\n    countt: 1\n",
			problem:  "countt",
		},
		{
			name:     "mistyped scalar",
			document: "name: x\npods:\n  p:\n    count: 1\n    tasks:\n      t:\n        cmd: run\n        cpus: lots\n        memory: 64\n",
			problem:  "cannot unmarshal",
		},
		{
			name:     "duplicate key",
			document: "name: x\npods:\n  p:\n    count: 1\n    count: 2\n",
			problem:  "already set",
		},
		{
			name:     "not yaml",
			document: "{{{",
			problem:  "failed to parse service document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.document))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.problem)
		})
	}
}

func TestParseFile(t *testing.T) {
	spec, err := ParseFile(filepath.Join("testdata", "svc.yml"))
	require.NoError(t, err)
	assert.Equal(t, "data-store", spec.Name)
	require.NoError(t, spec.Validate())

	_, err = ParseFile(filepath.Join("testdata", "does-not-exist.yml"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to read")
}

func TestClone(t *testing.T) {
	spec, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	clone, err := spec.Clone()
	require.NoError(t, err)
	require.Equal(t, spec, clone)

	pod := clone.Pods["index"]
	pod.Count = 9
	clone.Pods["index"] = pod
	assert.Equal(t, 1, spec.Pods["index"].Count)
}
