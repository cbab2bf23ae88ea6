package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/metalint/pkg/lint"
)

type linterInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Configurable bool   `json:"configurable"`
}

// NewLintersCommand creates the linters command.
func NewLintersCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "linters",
		Short: "List available linters",
		Long:  `List the linter identities configuration can refer to.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defs := lint.Default().All()
			infos := make([]linterInfo, 0, len(defs))
			for _, d := range defs {
				infos = append(infos, linterInfo{Name: d.Name, Description: d.Description, Configurable: d.Configurable})
			}

			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			case "", "table":
				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"Linter", "Options", "Description"})
				for _, i := range infos {
					opts := "no"
					if i.Configurable {
						opts = "yes"
					}
					t.AppendRow(table.Row{i.Name, opts, i.Description})
				}
				t.Render()
				return nil
			}
			return fmt.Errorf("unknown format %q (want table or json)", format)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "table", "Output format: table, json")
	return cmd
}
