package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/tagtree/internal/config"
	"github.com/agentic-research/tagtree/internal/export"
)

var (
	statsService string
	statsJSON    bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print tag hierarchy statistics for a service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := export.NewService(cfg, statsService)
		if err != nil {
			return err
		}
		src, err := source()
		if err != nil {
			return err
		}
		exp := &export.Exporter{Service: svc, Source: src, Log: logger}
		st, err := exp.Stats(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if statsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		fmt.Fprintf(out, "Service:            %s\n", svc.DisplayName)
		fmt.Fprintf(out, "Unique cards:       %d\n", st.UniqueCards)
		fmt.Fprintf(out, "Tags:               %d\n", st.Tags)
		fmt.Fprintf(out, "Hierarchical tags:  %d\n", st.HierarchicalTags)
		fmt.Fprintf(out, "Max depth:          %d\n", st.MaxDepth)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsService, "service", "s", config.AllTags, "Service whose filter is applied")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print JSON")
	rootCmd.AddCommand(statsCmd)
}
