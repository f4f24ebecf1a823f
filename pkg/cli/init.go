package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/leelsey/recvd/pkg/config"
)

var initFlags struct {
	force    bool
	output   string
	defaults bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a receiver configuration file",
	Long: `Create a recvd configuration file.

Walks through the listener settings interactively; --defaults skips the
prompts and writes the stock configuration.`,
	Example: `  # Interactive setup
  recvd init

  # Write the defaults without prompting
  recvd init --defaults

  # Custom filename
  recvd init -o receiver.yaml

  # Overwrite an existing file
  recvd init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(initFlags.output); err == nil {
			if !initFlags.force {
				return fmt.Errorf("file already exists: %s\n\nUse --force to overwrite", initFlags.output)
			}
		}

		cfg := config.DefaultReceiverConfiguration()
		if !initFlags.defaults {
			if err := runInitForm(cfg); err != nil {
				return err
			}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		data, err := generateYAMLWithComments(cfg)
		if err != nil {
			return fmt.Errorf("failed to generate YAML: %w", err)
		}
		if err := os.WriteFile(initFlags.output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Printf("Created %s\n", initFlags.output)
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Printf("  recvd serve --config %s\n", initFlags.output)
		fmt.Printf("  curl 'http://localhost:%d/?q=hello'\n", cfg.Port)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite existing config file")
	initCmd.Flags().StringVarP(&initFlags.output, "output", "o", "recvd.yaml", "Output filename")
	initCmd.Flags().BoolVar(&initFlags.defaults, "defaults", false, "Write the default configuration without prompting")
}

// runInitForm walks the operator through the listener settings and
// applies the answers to cfg.
func runInitForm(cfg *config.ReceiverConfiguration) error {
	bindAddress := cfg.BindAddress
	portStr := strconv.Itoa(cfg.Port)
	viewPath := cfg.ViewPath
	serverName := cfg.ServerName
	verbose := cfg.Verbose
	adminEnabled := cfg.Admin != nil && cfg.Admin.Enabled
	adminPortStr := strconv.Itoa(config.DefaultAdminPort)
	if cfg.Admin != nil {
		adminPortStr = strconv.Itoa(cfg.Admin.Port)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What address should the listener bind?").
				Placeholder("0.0.0.0").
				Value(&bindAddress).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("bind address is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("What port should it listen on?").
				Value(&portStr).
				Validate(validatePortInput),
			huh.NewInput().
				Title("What path should serve the HTML log view?").
				Placeholder("/logs").
				Value(&viewPath).
				Validate(func(s string) error {
					if !strings.HasPrefix(s, "/") || s == "/" {
						return errors.New("view path must start with / and cannot be the root")
					}
					return nil
				}),
			huh.NewInput().
				Title("What name should the log view show?").
				Placeholder("receiver").
				Value(&serverName),
			huh.NewConfirm().
				Title("Prefix capture lines with the client origin?").
				Value(&verbose),
			huh.NewConfirm().
				Title("Enable the admin API?").
				Value(&adminEnabled),
			huh.NewInput().
				Title("Admin API port").
				Value(&adminPortStr).
				Validate(validatePortInput),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg.BindAddress = bindAddress
	cfg.Port, _ = strconv.Atoi(portStr)
	cfg.ViewPath = viewPath
	if serverName != "" {
		cfg.ServerName = serverName
	}
	cfg.Verbose = verbose
	if cfg.Admin == nil {
		cfg.Admin = &config.AdminConfig{}
	}
	cfg.Admin.Enabled = adminEnabled
	cfg.Admin.Port, _ = strconv.Atoi(adminPortStr)
	return nil
}

// validatePortInput checks a form answer parses as a TCP port.
func validatePortInput(s string) error {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	return nil
}

// generateYAMLWithComments generates YAML output with header comments.
func generateYAMLWithComments(cfg *config.ReceiverConfiguration) ([]byte, error) {
	yamlData, err := config.ToYAML(cfg)
	if err != nil {
		return nil, err
	}

	header := fmt.Sprintf(`# recvd.yaml
# Generated by: recvd init
#
# Start the receiver: recvd serve --config recvd.yaml
# Open the log view:  http://localhost:%d%s

`, cfg.Port, cfg.ViewPath)
	return append([]byte(header), yamlData...), nil
}
