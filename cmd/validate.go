package main

import (
	"github.com/dangerclosesec/topo"
	"github.com/dangerclosesec/topo/internal/render"
	"github.com/spf13/cobra"
)

var (
	validateFile      string
	validateTemplates string

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate a service topology document",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := topo.ParseFile(validateFile)
			if err != nil {
				return err
			}

			if err := spec.Validate(); err != nil {
				return err
			}

			if validateTemplates != "" {
				r := &render.Renderer{TemplateDir: validateTemplates}
				if err := r.Preflight(spec); err != nil {
					return err
				}
			}

			log.Printf("%s is valid: service %q, %d pods, %d tasks",
				validateFile, spec.Name, len(spec.Pods), len(spec.TaskNames()))
			return nil
		},
	}
)

func init() {
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "svc.yml", "service topology document")
	validateCmd.Flags().StringVar(&validateTemplates, "templates", "", "template root; when set, referenced templates must resolve")
	rootCmd.AddCommand(validateCmd)
}
