package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/patchgo/patchgo/pkg/serverconfig"
)

var listConfigPath string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the releases declared in the server configuration",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listConfigPath, "config", "", "lbsd config file")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := serverconfig.Load(listConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	versions, err := cfg.VersionMap()
	if err != nil {
		return fmt.Errorf("invalid version configuration: %w", err)
	}

	if len(versions) == 0 {
		fmt.Println("No releases declared.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "VERSION\tHASH")
	for v, h := range versions {
		fmt.Fprintf(w, "%s\t%s\n", v, h)
	}

	return nil
}
