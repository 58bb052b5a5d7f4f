// Package cli provides the one-shot commands of the QuickLinks dashboard.
// They let users inspect security keys, notifications and the VPN from
// a terminal or a script without starting the interactive dashboard.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/yllada/quicklinks/common"
	"github.com/yllada/quicklinks/dashboard"
	"github.com/yllada/quicklinks/notification"
	"github.com/yllada/quicklinks/vpn"
)

// Opener launches a URL in the user's browser.
type Opener func(url string) error

// CLI runs commands against an App and prints to out.
type CLI struct {
	app    *dashboard.App
	out    io.Writer
	in     io.Reader
	opener Opener
}

// New creates a CLI writing to stdout.
func New(app *dashboard.App) *CLI {
	return &CLI{
		app:    app,
		out:    os.Stdout,
		in:     os.Stdin,
		opener: OpenURL,
	}
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) { c.out = w }

// SetInput sets where prompts read from.
func (c *CLI) SetInput(r io.Reader) { c.in = r }

// SetOpener replaces the browser launcher.
func (c *CLI) SetOpener(o Opener) { c.opener = o }

// ListKeys prints the security keys attached right now.
func (c *CLI) ListKeys() error {
	keys, err := c.app.ScanKeys()
	if err != nil {
		return fmt.Errorf("failed to enumerate devices: %w", err)
	}

	if len(keys) == 0 {
		fmt.Fprintln(c.out, "No security keys connected.")
		return nil
	}

	for _, k := range keys {
		fmt.Fprintf(c.out, "  %s\n", k)
	}
	return nil
}

// ListNotifications prints the most recent notifications, newest first.
func (c *CLI) ListNotifications(limit int) error {
	log := c.app.Log()
	entries := log.Recent(limit)

	if len(entries) == 0 {
		fmt.Fprintln(c.out, "No notifications.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tLEVEL\tREAD\tMESSAGE")
	fmt.Fprintln(w, "----\t-----\t----\t-------")

	for _, e := range entries {
		ts := "-"
		if !e.Timestamp.IsZero() {
			ts = e.Timestamp.Local().Format("2006-01-02 15:04:05")
		}
		read := "No"
		if e.Read {
			read = "Yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ts, e.Level, read, e.Message)
	}

	w.Flush()
	fmt.Fprintf(c.out, "\n%d unread of %d\n", log.UnreadCount(), log.Len())
	return nil
}

// MarkAllRead marks every notification as read.
func (c *CLI) MarkAllRead() error {
	count := c.app.Log().UnreadCount()
	c.app.Log().MarkAllRead()
	fmt.Fprintf(c.out, "Marked %d notifications as read.\n", count)
	return nil
}

// ClearNotifications empties the notification history.
func (c *CLI) ClearNotifications() error {
	c.app.Log().ClearAll()
	fmt.Fprintln(c.out, "Notification history cleared.")
	return nil
}

// VPNStatus prints the current VPN state.
func (c *CLI) VPNStatus(ctx context.Context) error {
	client := c.app.VPN()
	st := client.Status(ctx)

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVER\tSTATUS\tDETAIL")
	fmt.Fprintln(w, "------\t------\t------")

	server := client.Server()
	if server == "" {
		server = "-"
	}
	status := "Disconnected"
	if st.Connected {
		status = "Connected"
	}
	detail := st.Message
	if st.Stale {
		detail += " (stale)"
	}
	fmt.Fprintf(w, "%s\t%s\t%s\n", server, status, detail)
	if err := w.Flush(); err != nil {
		return err
	}

	if !client.Available() {
		fmt.Fprintln(c.out, "\nAnyConnect CLI not found. Set vpn.cli_path in the config file.")
	}
	return nil
}

// VPNConnect connects to the configured server.
func (c *CLI) VPNConnect(ctx context.Context) error {
	err := c.app.ConnectVPN(ctx)
	if errors.Is(err, vpn.ErrAlreadyConnected) {
		fmt.Fprintln(c.out, "Already connected.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Connecting to %s...\n", c.app.VPN().Server())
	return nil
}

// VPNDisconnect disconnects the VPN.
func (c *CLI) VPNDisconnect(ctx context.Context) error {
	err := c.app.DisconnectVPN(ctx)
	if errors.Is(err, vpn.ErrNotConnected) {
		fmt.Fprintln(c.out, "Not connected.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Disconnected.")
	return nil
}

// SaveVPNPassword prompts for the VPN password of the configured user
// and stores it in the keyring.
func (c *CLI) SaveVPNPassword() error {
	username := c.app.Config().VPN.Username
	if username == "" {
		return errors.New("no VPN username configured (set vpn.username in the config file)")
	}

	fmt.Fprintf(c.out, "Password for %s: ", username)
	password, err := c.readSecret()
	fmt.Fprintln(c.out)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	if err := c.app.Credentials().Set(username, password); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Password saved.")
	return nil
}

// readSecret reads a line without echo when input is a terminal.
func (c *CLI) readSecret() (string, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return strings.TrimSpace(string(b)), err
	}
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ListLinks prints the configured links.
func (c *CLI) ListLinks() error {
	links := c.app.Config().Links
	if len(links) == 0 {
		fmt.Fprintln(c.out, "No links configured.")
		return nil
	}

	names := make([]string, 0, len(links))
	for name := range links {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tURL")
	fmt.Fprintln(w, "----\t---")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%s\n", name, links[name])
	}
	return w.Flush()
}

// OpenLink opens a configured link by name (case-insensitive).
func (c *CLI) OpenLink(name string) error {
	url, ok := c.findLink(name)
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrLinkNotFound, name)
	}

	if err := c.opener(url); err != nil {
		c.app.Log().Add(fmt.Sprintf("Failed to open %s: %v", name, err), notification.LevelError)
		return err
	}
	fmt.Fprintf(c.out, "Opened %s\n", url)
	return nil
}

func (c *CLI) findLink(name string) (string, bool) {
	links := c.app.Config().Links
	if url, ok := links[name]; ok {
		return url, true
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for n, url := range links {
		if strings.ToLower(n) == want {
			return url, true
		}
	}
	return "", false
}

// OpenURL opens url with the platform's default handler.
func OpenURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return startDetached(cmd)
}

// startDetached starts cmd without waiting for it and releases the
// process handle.
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// PrintHelp prints CLI usage help.
func PrintHelp() {
	fmt.Println(`QuickLinks - security key, notification and VPN dashboard

Usage:
  quicklinks [OPTIONS]

Options:
  --version            Show version and exit
  --verbose            Enable verbose logging
  --config PATH        Use an alternative configuration file
  --keys               List connected security keys
  --notifications      List recent notifications
  --limit N            Number of notifications to list (default from config)
  --mark-read          Mark all notifications as read
  --clear              Clear the notification history
  --vpn-status         Show VPN status
  --vpn-connect        Connect to the configured VPN server
  --vpn-disconnect     Disconnect from the VPN
  --save-vpn-password  Store the VPN password in the keyring
  --links              List configured links
  --open NAME          Open a configured link in the browser
  --help               Show this help message

Examples:
  quicklinks --keys
  quicklinks --notifications --limit 5
  quicklinks --vpn-connect

Notes:
  - Run without options in a terminal to start the interactive dashboard
  - Without a terminal the dashboard runs headless until interrupted`)
}
