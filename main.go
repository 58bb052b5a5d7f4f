// Package main provides the entry point for the QuickLinks dashboard.
// QuickLinks watches hardware security keys, keeps a history of
// notifications and wraps the Cisco AnyConnect client.
//
// Features:
//   - Security key presence monitoring (YubiKey, ZUKEY, Titan, Feitian)
//   - Persistent notification history with read/unread state
//   - VPN status monitoring, connect and disconnect
//   - Secure credential storage using the system keyring
//   - Terminal dashboard and one-shot commands for scripting
//
// Usage:
//
//	quicklinks [options]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/yllada/quicklinks/cli"
	"github.com/yllada/quicklinks/common"
	"github.com/yllada/quicklinks/config"
	"github.com/yllada/quicklinks/dashboard"
	"github.com/yllada/quicklinks/ui"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

var (
	showVersion = flag.Bool("version", false, "Show version and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showHelp    = flag.Bool("help", false, "Show help message")
	configPath  = flag.String("config", "", "Path to the configuration file")

	listKeys          = flag.Bool("keys", false, "List connected security keys")
	listNotifications = flag.Bool("notifications", false, "List recent notifications")
	limit             = flag.Int("limit", 0, "Number of notifications to list")
	markRead          = flag.Bool("mark-read", false, "Mark all notifications as read")
	clearAll          = flag.Bool("clear", false, "Clear the notification history")
	vpnStatus         = flag.Bool("vpn-status", false, "Show VPN status")
	vpnConnect        = flag.Bool("vpn-connect", false, "Connect to the configured VPN")
	vpnDisconnect     = flag.Bool("vpn-disconnect", false, "Disconnect from the VPN")
	savePassword      = flag.Bool("save-vpn-password", false, "Store the VPN password in the keyring")
	listLinks         = flag.Bool("links", false, "List configured links")
	openLink          = flag.String("open", "", "Open a configured link by name")
)

func main() {
	flag.Parse()

	if *showHelp {
		cli.PrintHelp()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("%s v%s\n", common.AppName, appVersion)
		if buildTime != "unknown" {
			fmt.Printf("  Build:  %s\n", buildTime)
			fmt.Printf("  Commit: %s\n", commitSHA)
		}
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	interactive := !cliMode() && term.IsTerminal(int(os.Stdout.Fd()))

	logLevel := common.ParseLogLevel(cfg.LogLevel)
	if *verbose {
		logLevel = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{
		Level:       logLevel,
		EnableFile:  true,
		Quiet:       interactive,
		MaxFileSize: 5 * 1024 * 1024, // 5MB
		MaxBackups:  5,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
	}
	defer common.CloseLogger()

	app, err := dashboard.New(dashboard.Options{Config: cfg})
	if err != nil {
		common.LogError("Failed to initialize: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	if cliMode() {
		if err := runCLI(ctx, app, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			common.CloseLogger()
			os.Exit(1)
		}
		return
	}

	common.LogInfo("Starting %s v%s", common.AppName, appVersion)
	defer app.Shutdown()

	if interactive {
		if err := ui.Run(ctx, app, cfg.Notifications.DisplayLimit); err != nil {
			common.LogError("%v", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return
	}

	// Headless: callbacks run on the monitor goroutines.
	app.Start(common.Inline)
	<-ctx.Done()
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.LoadFrom(*configPath)
	}
	return config.Load()
}

// cliMode reports whether any one-shot command flag is set.
func cliMode() bool {
	return *listKeys || *listNotifications || *markRead || *clearAll ||
		*vpnStatus || *vpnConnect || *vpnDisconnect || *savePassword ||
		*listLinks || *openLink != ""
}

// runCLI handles command-line interface operations.
func runCLI(ctx context.Context, app *dashboard.App, cfg *config.Config) error {
	c := cli.New(app)

	n := *limit
	if n <= 0 {
		n = cfg.Notifications.DisplayLimit
	}

	switch {
	case *listKeys:
		return c.ListKeys()
	case *listNotifications:
		return c.ListNotifications(n)
	case *markRead:
		return c.MarkAllRead()
	case *clearAll:
		return c.ClearNotifications()
	case *vpnStatus:
		return c.VPNStatus(ctx)
	case *vpnConnect:
		return c.VPNConnect(ctx)
	case *vpnDisconnect:
		return c.VPNDisconnect(ctx)
	case *savePassword:
		return c.SaveVPNPassword()
	case *listLinks:
		return c.ListLinks()
	case *openLink != "":
		return c.OpenLink(*openLink)
	}
	return nil
}

// setupSignalHandler configures graceful shutdown on SIGINT/SIGTERM.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	}()
}
