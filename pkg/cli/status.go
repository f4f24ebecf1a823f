package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leelsey/recvd/pkg/cli/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of the running receiver",
	Long: `Show the status of the running receiver.

Reads from the admin API, so the receiver must be running with --admin.`,
	Example: `  # Check receiver status
  recvd status

  # Output as JSON
  recvd status --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewAdminClient(adminURL)
		status, err := client.Status()
		if err != nil {
			return fmt.Errorf("%s", FormatConnectionError(err))
		}

		if jsonOutput {
			return output.JSON(status)
		}

		printHumanStatus(status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// printHumanStatus renders the status snapshot for a terminal.
func printHumanStatus(status *StatusResult) {
	v := status.Version
	if len(v) > 0 && v[0] != 'v' && v != "dev" && v != "(devel)" {
		v = "v" + v
	}
	fmt.Printf("recvd %s\n", v)
	fmt.Printf("Status: %s\n", colorStatus(status.Status))
	fmt.Println()

	fmt.Println("Components:")
	fmt.Printf("  Admin API  %s  http://localhost:%d  (uptime: %s)\n",
		colorGreen("running"), status.AdminPort, formatUptime(status.Uptime))

	switch {
	case status.Listener == nil:
		fmt.Printf("  Listener   %s\n", colorRed("not attached"))
	case status.Listener.Running:
		fmt.Printf("  Listener   %s  http://%s  (uptime: %s)\n",
			colorGreen("running"), status.Listener.Addr, formatUptime(status.Listener.Uptime))
		if status.Listener.ViewPath != "" {
			fmt.Printf("             view:    http://%s%s\n", status.Listener.Addr, status.Listener.ViewPath)
		}
		if status.Listener.Verbose {
			fmt.Println("             verbose: on")
		}
	default:
		fmt.Printf("  Listener   %s\n", colorRed("stopped"))
	}

	fmt.Println()
	fmt.Println("Capture log:")
	fmt.Printf("  Entries stored:  %s\n", formatNumber(status.EntryCount))
	fmt.Printf("  Web visible:     %s\n", formatNumber(status.WebVisibleCount))
}

// colorStatus colors the status word: ok is green, anything else red.
func colorStatus(s string) string {
	if s == "ok" {
		return colorGreen(s)
	}
	return colorRed(s)
}

// colorGreen returns text wrapped in ANSI green color codes.
func colorGreen(s string) string {
	if !isTerminal() {
		return s
	}
	return "\033[32m" + s + "\033[0m"
}

// colorRed returns text wrapped in ANSI red color codes.
func colorRed(s string) string {
	if !isTerminal() {
		return s
	}
	return "\033[31m" + s + "\033[0m"
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// formatUptime renders whole seconds as a compact duration.
func formatUptime(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}

// formatNumber formats an integer with thousands separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	result := ""
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
