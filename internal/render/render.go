// Package render executes the config templates of a task and lays the
// results out relative to a working directory, the way an orchestrator
// agent would before launching the task's command.
package render

import (
	"bytes"
	"fmt"
	stdlog "log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/dangerclosesec/topo"
	"github.com/dangerclosesec/topo/internal/metrics"
	"github.com/dangerclosesec/topo/internal/utils"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	log = stdlog.New(os.Stdout, "\033[38;5;239m[ \033[35;5;214mrender \033[38;5;239m] \033[0m", stdlog.LstdFlags|stdlog.Lmsgprefix|stdlog.Lmicroseconds)
)

// Renderer resolves template sources under TemplateDir, writes results
// under OutputDir, and exposes Env to templates through the env and
// environ functions. Env entries shadow the process environment.
type Renderer struct {
	TemplateDir string
	OutputDir   string
	Env         map[string]string
}

// Context is the data a config template is executed with.
type Context struct {
	Service   string
	Pod       string
	Task      string
	Replica   int
	Goal      topo.GoalState
	CPUs      float64
	Memory    int
	Discovery string
	Endpoints []topo.Endpoint
	Env       map[string]string
}

// funcMap returns the template function set: env, environ, join,
// indent, and nindent.
func (r *Renderer) funcMap(ctx Context) template.FuncMap {
	return template.FuncMap{
		"env": func(key string) string {
			if v, ok := ctx.Env[key]; ok {
				return v
			}
			return os.Getenv(key)
		},
		// environ dumps only the explicit entries, sorted; the process
		// environment stays reachable one key at a time through env.
		"environ": func() []string {
			pairs := utils.MapToEnvSlice(ctx.Env)
			sort.Strings(pairs)
			return pairs
		},
		"join": strings.Join,
		"indent": func(n int, s string) string {
			pad := strings.Repeat(" ", n)
			return pad + strings.ReplaceAll(s, "\n", "\n"+pad)
		},
		"nindent": func(n int, s string) string {
			pad := strings.Repeat(" ", n)
			return "\n" + pad + strings.ReplaceAll(s, "\n", "\n"+pad)
		},
	}
}

// Preflight checks that every template the document references resolves
// to a readable file under TemplateDir, reporting all missing ones.
func (r *Renderer) Preflight(spec *topo.ServiceSpec) error {
	var errs *multierror.Error

	for podName, pod := range spec.Pods {
		for taskName, task := range pod.Tasks {
			for configName, config := range task.Configs {
				path := filepath.Join(r.TemplateDir, config.Template)
				if _, err := os.Stat(path); err != nil {
					errs = multierror.Append(errs, topo.NewError(topo.ErrTemplate, fmt.Sprintf(
						"pods[%s].tasks[%s].configs[%s]: unresolvable template",
						podName, taskName, configName), err))
				}
			}
		}
	}

	return errs.ErrorOrNil()
}

// RenderTask executes every config template of one task for one replica
// and returns the results keyed by destination path. Nothing is written
// to disk; pair with WriteFiles for that.
func (r *Renderer) RenderTask(spec *topo.ServiceSpec, pod, task string, replica int) (map[string][]byte, error) {
	timer := prometheus.NewTimer(metrics.RenderDuration)
	defer timer.ObserveDuration()

	p, ok := spec.Pods[pod]
	if !ok {
		return nil, fmt.Errorf("unknown pod type: %s", pod)
	}

	t, ok := p.Tasks[task]
	if !ok {
		return nil, fmt.Errorf("unknown task %s in pod %s", task, pod)
	}

	if replica < 0 || replica >= p.Count {
		return nil, fmt.Errorf("replica %d out of range for pod %s (count %d)", replica, pod, p.Count)
	}

	ctx, err := r.context(spec, pod, task, t, replica)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte, len(t.Configs))
	for _, configName := range sortedKeys(t.Configs) {
		config := t.Configs[configName]

		rendered, err := r.renderOne(config, ctx)
		if err != nil {
			return nil, fmt.Errorf("configs[%s]: %w", configName, err)
		}

		if _, dup := files[config.Dest]; dup {
			return nil, fmt.Errorf("configs[%s]: duplicate dest %s", configName, config.Dest)
		}
		files[config.Dest] = rendered
	}

	return files, nil
}

// RenderPod renders every task of a pod for one replica, failing when
// two tasks write the same destination.
func (r *Renderer) RenderPod(spec *topo.ServiceSpec, pod string, replica int) (map[string][]byte, error) {
	p, ok := spec.Pods[pod]
	if !ok {
		return nil, fmt.Errorf("unknown pod type: %s", pod)
	}

	files := make(map[string][]byte)
	for _, taskName := range sortedKeys(p.Tasks) {
		rendered, err := r.RenderTask(spec, pod, taskName, replica)
		if err != nil {
			return nil, fmt.Errorf("tasks[%s]: %w", taskName, err)
		}
		for dest, data := range rendered {
			if _, dup := files[dest]; dup {
				return nil, fmt.Errorf("tasks[%s]: duplicate dest %s", taskName, dest)
			}
			files[dest] = data
		}
	}

	return files, nil
}

// WriteFiles lays rendered files out relative to OutputDir, creating
// parent directories as needed. Destinations may traverse upward, which
// the document format explicitly allows.
func (r *Renderer) WriteFiles(files map[string][]byte) error {
	for _, dest := range sortedKeys(files) {
		path := dest
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.OutputDir, dest)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return topo.NewError(topo.ErrRender, fmt.Sprintf("failed to create directory for %s", dest), err)
		}

		if err := os.WriteFile(path, files[dest], 0644); err != nil {
			return topo.NewError(topo.ErrRender, fmt.Sprintf("failed to write %s", dest), err)
		}

		log.Printf("Wrote %s (%d bytes)", path, len(files[dest]))
	}

	return nil
}

// renderOne resolves and executes a single config template. Resolution
// and parse problems come back as ErrTemplate, execution problems as
// ErrRender.
func (r *Renderer) renderOne(config topo.ConfigTemplateSpec, ctx Context) ([]byte, error) {
	src := filepath.Join(r.TemplateDir, config.Template)
	raw, err := os.ReadFile(src)
	if err != nil {
		return nil, topo.NewError(topo.ErrTemplate, "failed to read template", err)
	}

	tmpl, err := template.New(filepath.Base(config.Template)).Funcs(r.funcMap(ctx)).Parse(string(raw))
	if err != nil {
		return nil, topo.NewError(topo.ErrTemplate, fmt.Sprintf("failed to parse template %s", config.Template), err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, topo.NewError(topo.ErrRender, fmt.Sprintf("failed to execute template %s", config.Template), err)
	}

	return buf.Bytes(), nil
}

// context assembles the data one task replica is rendered with. The
// endpoint slice covers every replica of the pod so templates can build
// peer lists; each row carries its replica index for filtering.
func (r *Renderer) context(spec *topo.ServiceSpec, pod, task string, t topo.TaskSpec, replica int) (Context, error) {
	all, err := spec.Endpoints()
	if err != nil {
		return Context{}, err
	}

	var endpoints []topo.Endpoint
	for _, e := range all {
		if e.Pod == pod {
			endpoints = append(endpoints, e)
		}
	}

	env := r.Env
	if env == nil {
		env = map[string]string{}
	}

	return Context{
		Service:   spec.Name,
		Pod:       pod,
		Task:      task,
		Replica:   replica,
		Goal:      t.Goal,
		CPUs:      t.CPUs,
		Memory:    t.Memory,
		Discovery: t.DiscoveryName(pod, task, replica),
		Endpoints: endpoints,
		Env:       env,
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
