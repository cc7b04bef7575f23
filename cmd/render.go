package main

import (
	"fmt"
	"sort"

	"github.com/dangerclosesec/topo"
	"github.com/dangerclosesec/topo/internal/render"
	"github.com/dangerclosesec/topo/internal/utils"
	"github.com/spf13/cobra"
)

var (
	renderFile      string
	renderPod       string
	renderTask      string
	renderReplica   int
	renderTemplates string
	renderOutput    string
	renderEnv       []string
	renderDryRun    bool

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Render the config templates of a pod replica",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := topo.ParseFile(renderFile)
			if err != nil {
				return err
			}
			if err := spec.Validate(); err != nil {
				return err
			}
			if err := spec.Normalize(); err != nil {
				return err
			}

			env, err := utils.EnvSliceToMap(renderEnv)
			if err != nil {
				return err
			}

			r := &render.Renderer{
				TemplateDir: renderTemplates,
				OutputDir:   renderOutput,
				Env:         env,
			}

			var files map[string][]byte
			if renderTask != "" {
				files, err = r.RenderTask(spec, renderPod, renderTask, renderReplica)
			} else {
				files, err = r.RenderPod(spec, renderPod, renderReplica)
			}
			if err != nil {
				return err
			}

			if renderDryRun {
				dests := make([]string, 0, len(files))
				for dest := range files {
					dests = append(dests, dest)
				}
				sort.Strings(dests)
				for _, dest := range dests {
					fmt.Printf("--- %s ---\n%s\n", dest, files[dest])
				}
				return nil
			}

			return r.WriteFiles(files)
		},
	}
)

func init() {
	renderCmd.Flags().StringVarP(&renderFile, "file", "f", "svc.yml", "service topology document")
	renderCmd.Flags().StringVar(&renderPod, "pod", "", "pod type to render")
	renderCmd.Flags().StringVar(&renderTask, "task", "", "single task to render; default is every task in the pod")
	renderCmd.Flags().IntVar(&renderReplica, "replica", 0, "replica index to render for")
	renderCmd.Flags().StringVar(&renderTemplates, "templates", ".", "directory template paths resolve against")
	renderCmd.Flags().StringVar(&renderOutput, "output", ".", "working directory dest paths resolve against")
	renderCmd.Flags().StringArrayVar(&renderEnv, "env", nil, "env entries visible to templates, as key=value")
	renderCmd.Flags().BoolVar(&renderDryRun, "dry-run", false, "print rendered files instead of writing them")
	renderCmd.MarkFlagRequired("pod")
	rootCmd.AddCommand(renderCmd)
}
