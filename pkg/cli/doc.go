// Package cli provides the command-line interface for recvd.
//
// The cli package implements all commands for running and inspecting the
// receiver:
//   - serve: Start the capture listener (also the default when recvd is
//     invoked with no command)
//   - init: Create a starter recvd.yaml, interactively or with defaults
//   - logs: View captured interactions via the admin API
//   - watch: Tail new interactions live over the admin websocket
//   - status: Show receiver status from the admin API
//   - version: Show recvd version information
//   - completion: Generate shell completion scripts (built in by cobra)
//
// The inspection commands (logs, watch, status) communicate with a running
// receiver through its admin API, which serve enables with --admin. The
// serve command runs the listener in the foreground with graceful shutdown
// on SIGINT/SIGTERM.
//
// Usage:
//
//	recvd                                  # serve on 0.0.0.0:80
//	recvd serve -i 127.0.0.1 -p 8080 -v
//	recvd serve --config recvd.yaml --admin
//	recvd init
//	recvd logs -n 20
//	recvd logs --follow
//	recvd watch
//	recvd status
//	recvd -V
package cli
