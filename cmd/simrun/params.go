// cmd/simrun/params.go
package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dalemusser/stratasim/internal/domain/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func listParams(cmd *cobra.Command, args []string) error {
	if asYAML {
		return writeDefaultsYAML(cmd.OutOrStdout())
	}
	return writeParamTable(cmd.OutOrStdout())
}

func writeParamTable(w io.Writer) error {
	defaults := models.DefaultParameters()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tDEFAULT\tGROUP\tLABEL")
	for _, g := range models.Groups {
		for _, f := range models.FieldsInGroup(g) {
			v, _ := defaults.Get(f.Key)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Key, v.String(), g, f.Label)
		}
	}
	return tw.Flush()
}

// writeDefaultsYAML prints a parameter file that --config accepts.
func writeDefaultsYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(models.DefaultParameters()); err != nil {
		return err
	}
	return enc.Close()
}
