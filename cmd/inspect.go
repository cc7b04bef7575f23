package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/dangerclosesec/topo"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	inspectFile      string
	inspectOutput    string
	inspectEndpoints bool

	inspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Print the normalized document, or its tasks and endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := topo.ParseFile(inspectFile)
			if err != nil {
				return err
			}
			if err := spec.Validate(); err != nil {
				return err
			}
			if err := spec.Normalize(); err != nil {
				return err
			}

			if inspectEndpoints {
				return printTopology(spec)
			}

			switch inspectOutput {
			case "yaml":
				data, err := topo.Marshal(spec)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			case "json":
				data, err := json.MarshalIndent(spec, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			default:
				return fmt.Errorf("unknown output format: %s", inspectOutput)
			}
		},
	}
)

func init() {
	inspectCmd.Flags().StringVarP(&inspectFile, "file", "f", "svc.yml", "service topology document")
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "yaml", "output format: yaml or json")
	inspectCmd.Flags().BoolVar(&inspectEndpoints, "endpoints", false, "print task and endpoint tables instead of the document")
	rootCmd.AddCommand(inspectCmd)
}

// printTopology writes the task table and the expanded endpoint table.
func printTopology(spec *topo.ServiceSpec) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "POD\tTASK\tGOAL\tCPUS\tMEMORY\tDISCOVERY")
	podNames := make([]string, 0, len(spec.Pods))
	for name := range spec.Pods {
		podNames = append(podNames, name)
	}
	sort.Strings(podNames)

	for _, podName := range podNames {
		pod := spec.Pods[podName]

		taskNames := make([]string, 0, len(pod.Tasks))
		for name := range pod.Tasks {
			taskNames = append(taskNames, name)
		}
		sort.Strings(taskNames)

		for _, taskName := range taskNames {
			task := pod.Tasks[taskName]
			fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%s\t%s\n",
				podName, taskName, task.Goal, task.CPUs,
				humanize.IBytes(uint64(task.Memory)*1024*1024),
				task.DiscoveryName(podName, taskName, 0))
		}
	}

	endpoints, err := spec.Endpoints()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "POD\tREPLICA\tNETWORK\tADDRESS\tHOST\tCONTAINER")
	for _, e := range endpoints {
		address := e.Address
		if address == "" {
			address = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%d\n",
			e.Pod, e.Replica, e.Network, address, e.HostPort, e.ContainerPort)
	}

	return w.Flush()
}
