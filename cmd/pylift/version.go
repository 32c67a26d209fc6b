package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"pylift/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pylift version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		if !asJSON {
			fmt.Fprintln(cmd.OutOrStdout(), version.Line())
			return nil
		}
		payload := struct {
			Version   string `json:"version"`
			GitCommit string `json:"git_commit,omitempty"`
			BuildDate string `json:"build_date,omitempty"`
		}{
			Version:   version.Version,
			GitCommit: version.GitCommit,
			BuildDate: version.BuildDate,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "machine-readable output")
}
