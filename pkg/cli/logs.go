package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leelsey/recvd/pkg/capture"
	"github.com/leelsey/recvd/pkg/cli/internal/output"
)

var logsFlags struct {
	kind     string
	method   string
	path     string
	label    string
	cliOnly  bool
	jsonPath string
	limit    int
	verbose  bool
	follow   bool
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show captured entries",
	Long: `Show entries from the capture log, newest first.

Reads from the admin API, so the receiver must be running with --admin.
By default console-only captures (view loads, favicon fetches, hidden
paths) are excluded; --cli-only brings them in.`,
	Example: `  # Show the 20 most recent entries
  recvd logs

  # Show the last 50, POST only
  recvd logs -n 50 -m POST

  # Entries whose label contains "hook"
  recvd logs --label hook

  # Entries whose query echo or body matches a JSONPath expression
  recvd logs --jsonpath '$.event'

  # Include console-only captures
  recvd logs --cli-only

  # Full capture lines instead of the table
  recvd logs --verbose

  # Stream new entries in real-time
  recvd logs --follow`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if logsFlags.follow {
			return streamEntries(adminURL)
		}

		filter := &EntryFilter{
			Kind:     logsFlags.kind,
			Method:   logsFlags.method,
			Path:     logsFlags.path,
			Label:    logsFlags.label,
			JSONPath: logsFlags.jsonPath,
			Limit:    logsFlags.limit,
		}
		if logsFlags.cliOnly {
			filter.CLIOnly = "include"
		}

		client := NewAdminClient(adminURL)
		result, err := client.ListEntries(filter)
		if err != nil {
			return fmt.Errorf("%s", FormatConnectionError(err))
		}

		if jsonOutput {
			return output.JSON(result.Entries)
		}

		if len(result.Entries) == 0 {
			fmt.Println("No captured entries")
			return nil
		}

		if logsFlags.verbose {
			printCaptureLines(result.Entries)
			return nil
		}

		return printEntryTable(result.Entries)
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsFlags.kind, "kind", "", "Filter by entry kind (root, named, view, favicon)")
	logsCmd.Flags().StringVarP(&logsFlags.method, "method", "m", "", "Filter by HTTP method")
	logsCmd.Flags().StringVar(&logsFlags.path, "path", "", "Filter by path prefix")
	logsCmd.Flags().StringVar(&logsFlags.label, "label", "", "Filter by label substring")
	logsCmd.Flags().BoolVar(&logsFlags.cliOnly, "cli-only", false, "Include console-only captures")
	logsCmd.Flags().StringVar(&logsFlags.jsonPath, "jsonpath", "", "Keep entries whose query echo or body matches the JSONPath")
	logsCmd.Flags().IntVarP(&logsFlags.limit, "limit", "n", 20, "Number of entries to show")
	logsCmd.Flags().BoolVar(&logsFlags.verbose, "verbose", false, "Print full capture lines instead of the table")
	logsCmd.Flags().BoolVarP(&logsFlags.follow, "follow", "f", false, "Stream new entries in real-time (like tail -f)")
}

// printEntryTable renders entries as an aligned table, one row each.
func printEntryTable(entries []*capture.Entry) error {
	w := output.Table()
	fmt.Fprintln(w, "SEQ\tTIME\tKIND\tMETHOD\tLABEL\tQUERY")

	for _, entry := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			entry.Seq,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Kind,
			entry.Method,
			output.Dash(output.Cell(entry.Label, 25)),
			output.Dash(output.Cell(entry.QueryValue, 40)),
		)
	}

	return w.Flush()
}

// printCaptureLines prints entries exactly as the receiver console did.
func printCaptureLines(entries []*capture.Entry) {
	for _, entry := range entries {
		fmt.Println(capture.CLILine(entry))
	}
}

// streamEntries connects to the SSE endpoint and prints entries as they
// are captured.
func streamEntries(adminURL string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping entry stream...")
		cancel()
	}()

	streamURL := adminURL + "/entries/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%s", FormatConnectionError(&APIError{
			StatusCode: 0,
			ErrorCode:  "connection_error",
			Message:    fmt.Sprintf("cannot connect to admin API at %s: %v", adminURL, err),
		}))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	fmt.Println("Streaming entries (press Ctrl+C to stop)...")
	fmt.Println()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()

		// Skip blank separators and event type lines
		if line == "" || strings.HasPrefix(line, "event:") {
			continue
		}

		if strings.HasPrefix(line, "data: ") {
			data := strings.TrimPrefix(line, "data: ")

			// Skip the connection handshake message
			if strings.Contains(data, "Connected to entry stream") {
				continue
			}

			var entry capture.Entry
			if err := json.Unmarshal([]byte(data), &entry); err != nil {
				continue
			}

			if jsonOutput {
				fmt.Println(data)
			} else {
				fmt.Println(capture.CLILine(&entry))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("error reading stream: %w", err)
	}

	return nil
}
