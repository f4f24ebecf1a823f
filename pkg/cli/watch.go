package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/leelsey/recvd/pkg/capture"
)

var watchFlags struct {
	count   int
	timeout time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch captures over WebSocket",
	Long: `Watch new captures as they happen, delivered over WebSocket.

Connects to the admin API entry feed and prints each capture line the
moment the receiver records it. The receiver must be running with
--admin.`,
	Example: `  # Watch until interrupted
  recvd watch

  # Watch 10 captures then exit
  recvd watch -n 10

  # Raw JSON entries
  recvd watch --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(watchURL(adminURL), watchFlags.count, watchFlags.timeout)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().IntVarP(&watchFlags.count, "count", "n", 0, "Number of captures to receive (0 = unlimited)")
	watchCmd.Flags().DurationVarP(&watchFlags.timeout, "timeout", "t", 30*time.Second, "Connection timeout")
}

// watchURL derives the WebSocket entry feed URL from the admin base URL.
func watchURL(adminURL string) string {
	wsBase := adminURL
	switch {
	case strings.HasPrefix(adminURL, "https://"):
		wsBase = "wss://" + strings.TrimPrefix(adminURL, "https://")
	case strings.HasPrefix(adminURL, "http://"):
		wsBase = "ws://" + strings.TrimPrefix(adminURL, "http://")
	}
	return wsBase + "/entries/ws"
}

func runWatch(url string, count int, timeout time.Duration) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
	}

	fmt.Fprintf(os.Stderr, "Connecting to %s...\n", url)
	conn, resp, err := dialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: %v (HTTP %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %v\n\nSuggestions:\n  • Start the server with the admin API: recvd serve --admin\n  • Point the CLI elsewhere with --admin-url or %s", err, adminURLEnvVar)
	}
	defer conn.Close()

	if count > 0 {
		fmt.Fprintf(os.Stderr, "Watching for %d captures (Ctrl+C to stop)\n", count)
	} else {
		fmt.Fprintln(os.Stderr, "Watching for captures (Ctrl+C to stop)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nDisconnecting...")
		cancel()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}()

	received := 0
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, message, err := conn.ReadMessage()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						fmt.Fprintln(os.Stderr, "Connection closed by server")
						return
					}
					fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
					return
				}
			}

			if jsonOutput {
				fmt.Println(string(message))
			} else {
				var entry capture.Entry
				if err := json.Unmarshal(message, &entry); err != nil {
					continue
				}
				fmt.Println(capture.CLILine(&entry))
			}

			received++
			if count > 0 && received >= count {
				fmt.Fprintf(os.Stderr, "Received %d captures\n", received)
				cancel()
				return
			}
		}
	}()

	wg.Wait()
	return nil
}
