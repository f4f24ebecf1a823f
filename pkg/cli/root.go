package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	adminURL   string
	jsonOutput bool

	// showVersion backs the -V flag on the bare invocation.
	showVersion bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// receiverVersionLine is the fixed banner -V prints. Existing scripts
// match it verbatim, so it never carries build metadata.
const receiverVersionLine = "Receiver Version 0.1.0"

// rootCmd represents the base command. Invoking recvd with no subcommand
// starts the receiver.
var rootCmd = &cobra.Command{
	Use:   "recvd",
	Short: "recvd is an HTTP interaction capture receiver",
	Long: `recvd records every inbound HTTP request: a capture line on the console,
an entry in the in-memory log, and an HTML view of the captured traffic.
Queries against the root path can be relayed to a remote target.

Configuration can be provided via flags or a YAML/JSON configuration file;
flags override file values.`,
	Example: `  # Listen on all interfaces, port 80
  recvd

  # Custom bind address and port, verbose capture lines
  recvd -i 127.0.0.1 -p 8080 -v

  # Load a config file and enable the admin API
  recvd serve --config recvd.yaml --admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Println(receiverVersionLine)
			return nil
		}
		return runServeWithFlags(&serveFlagVals)
	},
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Define persistent flags that apply globally to all recvd commands
	rootCmd.PersistentFlags().StringVar(&adminURL, "admin-url", defaultAdminURL(), "Admin API base URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")

	rootCmd.Flags().BoolVarP(&showVersion, "version", "V", false, "Print the receiver version and exit")

	// The bare invocation serves, so it takes the serve flags too.
	registerServeFlags(rootCmd)
}
