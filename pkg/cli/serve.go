package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leelsey/recvd/pkg/admin"
	"github.com/leelsey/recvd/pkg/audit"
	"github.com/leelsey/recvd/pkg/cli/internal/output"
	"github.com/leelsey/recvd/pkg/config"
	"github.com/leelsey/recvd/pkg/logging"
	"github.com/leelsey/recvd/pkg/receiver"
)

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

// serveFlags holds all parsed command-line flags for the serve command.
type serveFlags struct {
	ip         string
	port       int
	verbose    bool
	configFile string

	serverName string
	viewPath   string

	adminEnabled bool
	adminPort    int

	maxConnections int
	relayTimeout   int
	hiddenPaths    []string
	captureFilter  string

	auditEnabled bool
	auditFile    string

	logLevel  string
	logFormat string
}

// serveCmd represents the serve command, the foreground receiver.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the receiver (foreground)",
	Long: `Start the capture listener in the foreground.

Every inbound request is captured: a line on the console, an entry in the
in-memory log, and a row in the HTML view. Root-path queries carrying a
target are relayed and the remote answer is returned to the caller.

With --admin, a read-only admin API is served on a second port for
inspecting the capture log (recvd logs, recvd watch, recvd status).`,
	Example: `  # Start with defaults (0.0.0.0:80)
  recvd serve

  # Custom bind address and port, verbose capture lines
  recvd serve -i 127.0.0.1 -p 8080 -v

  # Load settings from a config file
  recvd serve --config recvd.yaml

  # Enable the admin API on port 7311
  recvd serve --admin

  # Keep health checks off the web view
  recvd serve --hidden-path '/healthz' --hidden-path '/.well-known/**'

  # Write an audit trail
  recvd serve --audit-enabled --audit-file audit.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServeWithFlags(&serveFlagVals)
	},
}

// registerServeFlags binds the serve flags to a command. The bare recvd
// invocation serves too, so both rootCmd and serveCmd register them
// against the same backing struct.
func registerServeFlags(cmd *cobra.Command) {
	f := &serveFlagVals

	cmd.Flags().StringVarP(&f.ip, "ip", "i", "", "Bind address (default 0.0.0.0)")
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "Listener port (default 80)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Prefix capture lines with the client origin")
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to configuration file (YAML or JSON)")

	cmd.Flags().StringVar(&f.serverName, "server-name", "", "Name shown in the HTML view title (default receiver)")
	cmd.Flags().StringVar(&f.viewPath, "view-path", "", "Path serving the HTML log view (default /logs)")

	cmd.Flags().BoolVar(&f.adminEnabled, "admin", false, "Enable the read-only admin API")
	cmd.Flags().IntVar(&f.adminPort, "admin-port", 0, fmt.Sprintf("Admin API port (default %d)", config.DefaultAdminPort))

	cmd.Flags().IntVar(&f.maxConnections, "max-connections", 0, "Maximum concurrent connections (0 = unlimited)")
	cmd.Flags().IntVar(&f.relayTimeout, "relay-timeout", 0, fmt.Sprintf("Relay round-trip timeout in seconds (default %d)", config.DefaultRelayTimeout))
	cmd.Flags().StringArrayVar(&f.hiddenPaths, "hidden-path", nil, "Glob for paths captured to the console only (repeatable)")
	cmd.Flags().StringVar(&f.captureFilter, "capture-filter", "", "Expression demoting matching entries to console-only capture")

	cmd.Flags().BoolVar(&f.auditEnabled, "audit-enabled", false, "Enable the audit trail")
	cmd.Flags().StringVar(&f.auditFile, "audit-file", "", "Path to the audit JSONL file (default stdout)")

	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
}

func init() {
	rootCmd.AddCommand(serveCmd)
	registerServeFlags(serveCmd)
}

// buildConfig resolves the effective configuration: defaults, then the
// config file, then flags on top.
func buildConfig(f *serveFlags) (*config.ReceiverConfiguration, error) {
	cfg := config.DefaultReceiverConfiguration()

	if f.configFile != "" {
		loaded, err := config.LoadFromFile(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if f.ip != "" {
		cfg.BindAddress = f.ip
	}
	if f.port != 0 {
		cfg.Port = f.port
	}
	if f.verbose {
		cfg.Verbose = true
	}
	if f.serverName != "" {
		cfg.ServerName = f.serverName
	}
	if f.viewPath != "" {
		cfg.ViewPath = f.viewPath
	}
	if f.maxConnections != 0 {
		cfg.MaxConnections = f.maxConnections
	}
	if f.relayTimeout != 0 {
		cfg.RelayTimeout = f.relayTimeout
	}
	if len(f.hiddenPaths) > 0 {
		cfg.HiddenPaths = append(cfg.HiddenPaths, f.hiddenPaths...)
	}
	if f.captureFilter != "" {
		cfg.CaptureFilter = f.captureFilter
	}

	if cfg.Admin == nil {
		cfg.Admin = &config.AdminConfig{Port: config.DefaultAdminPort}
	}
	if f.adminEnabled {
		cfg.Admin.Enabled = true
	}
	if f.adminPort != 0 {
		cfg.Admin.Port = f.adminPort
	}

	if f.auditEnabled {
		if cfg.Audit == nil {
			cfg.Audit = audit.DefaultConfig()
		}
		cfg.Audit.Enabled = true
		if f.auditFile != "" {
			cfg.Audit.OutputFile = f.auditFile
		}
	}

	if cfg.Logging == nil {
		cfg.Logging = &config.LoggingConfig{Level: "info", Format: "text"}
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Logging.Format = f.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runServeWithFlags is the core serve logic called by the cobra commands.
func runServeWithFlags(f *serveFlags) error {
	cfg, err := buildConfig(f)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: logging.ParseFormat(cfg.Logging.Format),
	})

	opts := []receiver.ServerOption{receiver.WithLogger(log)}

	var auditLog audit.Logger
	if cfg.Audit != nil && cfg.Audit.Enabled {
		auditLog, err = audit.NewLogger(cfg.Audit)
		if err != nil {
			return fmt.Errorf("audit setup: %w", err)
		}
		defer func() { _ = auditLog.Close() }()
		opts = append(opts, receiver.WithAuditLogger(auditLog))
	}

	srv, err := receiver.NewServer(cfg, opts...)
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	var adminAPI *admin.AdminAPI
	if cfg.Admin != nil && cfg.Admin.Enabled {
		adminAPI = admin.NewAdminAPI(cfg.Admin.Port,
			admin.WithStore(srv.Store()),
			admin.WithReceiver(srv),
			admin.WithLogger(log),
			admin.WithVersion(Version),
		)
		if err := adminAPI.Start(); err != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.DrainTimeout)*time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
			return fmt.Errorf("admin API: %w", err)
		}
	}

	printServeStartupMessage(cfg, srv.Port(), adminAPI)

	return runMainLoop(cfg, srv, adminAPI)
}

// printServeStartupMessage tells the operator where everything listens.
func printServeStartupMessage(cfg *config.ReceiverConfiguration, port int, adminAPI *admin.AdminAPI) {
	fmt.Printf("Receiver listening on %s:%d\n", cfg.BindAddress, port)
	fmt.Printf("  Log view:  http://%s:%d%s\n", displayHost(cfg.BindAddress), port, cfg.ViewPath)
	if adminAPI != nil {
		fmt.Printf("  Admin API: http://localhost:%d\n", adminAPI.Port())
	}
	fmt.Println()
}

// displayHost turns a wildcard bind address into something clickable.
func displayHost(bindAddress string) string {
	if bindAddress == "0.0.0.0" || bindAddress == "::" || bindAddress == "" {
		return "localhost"
	}
	return bindAddress
}

// runMainLoop blocks until a shutdown signal arrives, then drains.
func runMainLoop(cfg *config.ReceiverConfiguration, srv *receiver.Server, adminAPI *admin.AdminAPI) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	fmt.Println("\nShutting down...")

	drain := time.Duration(cfg.DrainTimeout) * time.Second
	if drain <= 0 {
		drain = config.DefaultDrainTimeout * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()

	// Stop the admin API first so inspection clients disconnect cleanly,
	// then drain the capture listener.
	if adminAPI != nil {
		if err := adminAPI.Stop(shutdownCtx); err != nil {
			output.Warn("admin API shutdown error: %v", err)
		}
	}
	if err := srv.Stop(shutdownCtx); err != nil {
		output.Warn("receiver shutdown error: %v", err)
	}

	fmt.Println("Receiver stopped")
	return nil
}
