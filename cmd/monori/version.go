package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"monori/internal/core"
)

// Set with -ldflags "-X main.version=... -X main.gitCommit=...".
var (
	version   = "dev"
	gitCommit = ""
)

type versionInfo struct {
	Version       string `json:"version"`
	GitCommit     string `json:"gitCommit,omitempty"`
	ReportVersion string `json:"reportSchemaVersion"`
	GoVersion     string `json:"goVersion"`
	Platform      string `json:"platform"`
}

func newVersionCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{
				Version:       version,
				GitCommit:     gitCommit,
				ReportVersion: core.SchemaVersion,
				GoVersion:     runtime.Version(),
				Platform:      runtime.GOOS + "/" + runtime.GOARCH,
			}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				b, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal version info to JSON: %w", err)
				}
				fmt.Fprintln(out, string(b))
				return nil
			case "text":
				fmt.Fprintf(out, "monori %s\n", info.Version)
				if info.GitCommit != "" {
					fmt.Fprintf(out, "  Git Commit:     %s\n", info.GitCommit)
				}
				fmt.Fprintf(out, "  Report Schema:  %s\n", info.ReportVersion)
				fmt.Fprintf(out, "  Go Version:     %s\n", info.GoVersion)
				fmt.Fprintf(out, "  Platform:       %s\n", info.Platform)
				return nil
			}
			return fmt.Errorf("unsupported output format: %s (supported: text, json)", format)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "Output format (text|json)")
	return cmd
}
