package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows the data directory, file paths and the resolved configuration (file, environment and flags applied).",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	endpoint := fmt.Sprintf("%snot configured (random groups, log-only submission)%s", colorYellow, colorReset)
	if cfg.Endpoint.URL != "" {
		endpoint = cfg.Endpoint.URL
	}

	fmt.Printf("%s⚡ survey config%s\n", colorBold, colorReset)
	fmt.Printf("  Data:       %s\n", paths.Root)
	fmt.Printf("  Session:    %s\n", paths.DB)
	fmt.Printf("  Log:        %s\n", paths.Log)
	fmt.Printf("  Outbox:     %s\n", paths.Outbox)
	fmt.Printf("  Endpoint:   %s\n", endpoint)
	fmt.Printf("  Groups:     %d × %d images\n", cfg.Survey.TotalGroups, cfg.Survey.GroupSize)
	fmt.Println()

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
