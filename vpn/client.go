package vpn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/yllada/quicklinks/common"
)

// Common errors - re-exported from common package for convenience.
var (
	ErrAlreadyConnected = common.ErrAlreadyConnected
	ErrNotConnected     = common.ErrNotConnected
	ErrConnectionFailed = common.ErrConnectionFailed
)

// Status is the result of a state query.
type Status struct {
	// Connected is true only when the client reports "state: Connected".
	Connected bool
	// Message is a human-readable description of the state.
	Message string
	// Stale is set when the query timed out and the last known state
	// is being reported instead.
	Stale bool
}

// Credentials are passed to the CLI when connecting. Empty credentials
// leave the vendor client to prompt for them.
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether no username or password is set.
func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// Runner executes a command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, stdin string, name string, args ...string) (string, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, stdin string, name string, args ...string) (string, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	return f(ctx, stdin, name, args...)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

// ClientConfig holds the settings of a Client.
type ClientConfig struct {
	// CLIPath is the vpncli executable. Empty means auto-detect.
	CLIPath string
	// Server is the VPN endpoint passed to "connect".
	Server string
	// CommandTimeout bounds every CLI invocation.
	CommandTimeout time.Duration
	// Runner overrides command execution. Nil uses os/exec.
	Runner Runner
}

// Client talks to the AnyConnect CLI.
type Client struct {
	mu      sync.Mutex
	cliPath string
	server  string
	timeout time.Duration
	runner  Runner
	last    Status
}

// NewClient creates a client. When cfg.CLIPath is empty the CLI is
// searched in the standard install locations and on PATH.
func NewClient(cfg ClientConfig) *Client {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = common.VPNCommandTimeout
	}
	if cfg.Runner == nil {
		cfg.Runner = execRunner{}
	}
	path := cfg.CLIPath
	if path == "" {
		path = FindCLI()
	}
	return &Client{
		cliPath: path,
		server:  cfg.Server,
		timeout: cfg.CommandTimeout,
		runner:  cfg.Runner,
		last:    Status{Message: "VPN status unknown"},
	}
}

// CLIPath returns the executable in use, or "" if none was found.
func (c *Client) CLIPath() string {
	return c.cliPath
}

// Server returns the configured endpoint.
func (c *Client) Server() string {
	return c.server
}

// candidatePaths lists the usual install locations per platform.
func candidatePaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Program Files (x86)\Cisco\Cisco AnyConnect Secure Mobility Client\vpncli.exe`,
			`C:\Program Files\Cisco\Cisco AnyConnect Secure Mobility Client\vpncli.exe`,
			`C:\Program Files (x86)\Cisco\Cisco Secure Client\vpncli.exe`,
			`C:\Program Files\Cisco\Cisco Secure Client\vpncli.exe`,
		}
	default:
		return []string{
			"/opt/cisco/anyconnect/bin/vpn",
			"/opt/cisco/secureclient/bin/vpn",
		}
	}
}

// FindCLI returns the path of the AnyConnect CLI, or "" if it is not
// installed.
func FindCLI() string {
	for _, p := range candidatePaths() {
		if common.FileExists(p) {
			return p
		}
	}
	for _, name := range []string{"vpncli", "vpn"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// run executes the CLI with the client timeout.
func (c *Client) run(ctx context.Context, stdin string, args ...string) (string, error) {
	if c.cliPath == "" {
		return "", common.ErrVPNClientMissing
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.runner.Run(ctx, stdin, c.cliPath, args...)
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return out, fmt.Errorf("%s %s: %w", filepath.Base(c.cliPath), strings.Join(args, " "), common.ErrTimeout)
	}
	return out, err
}

// ParseState interprets the output of "vpncli state". The last
// "state:" line wins, since the CLI prints one per notice it receives.
func ParseState(output string) Status {
	state := ""
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		// Lines look like "  >> state: Connected".
		line = strings.TrimLeft(line, "> ")
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "state:") {
			state = strings.TrimSpace(line[len("state:"):])
		}
	}

	switch strings.ToLower(state) {
	case "connected":
		return Status{Connected: true, Message: "VPN connected"}
	case "disconnected":
		return Status{Message: "VPN is not connected"}
	case "connecting", "reconnecting":
		return Status{Message: "VPN " + strings.ToLower(state)}
	case "":
		return Status{Message: "Unknown state: no state reported"}
	default:
		return Status{Message: "Unknown state: " + state}
	}
}

// Status queries the current state. It never fails: a missing CLI or a
// failed command is reported as not connected, and a timeout returns the
// last known state marked stale.
func (c *Client) Status(ctx context.Context) Status {
	out, err := c.run(ctx, "", "state")
	switch {
	case errors.Is(err, common.ErrVPNClientMissing):
		return Status{Message: "Cisco AnyConnect VPN client is not installed"}
	case errors.Is(err, common.ErrTimeout):
		common.LogWarn("VPN state query timed out")
		c.mu.Lock()
		st := c.last
		c.mu.Unlock()
		st.Stale = true
		return st
	}

	st := ParseState(out)
	if err != nil && !st.Connected {
		common.LogDebug("VPN state command failed: %v", err)
	}

	c.mu.Lock()
	c.last = st
	c.mu.Unlock()
	return st
}

// Connect brings the tunnel up. With credentials the CLI is scripted
// through its stdin mode and the final state is checked. Without them
// the connect command is started and a timeout means the client is
// waiting for interactive input.
func (c *Client) Connect(ctx context.Context, creds Credentials) error {
	if c.server == "" {
		return fmt.Errorf("%w: no VPN server configured", ErrConnectionFailed)
	}

	st := c.Status(ctx)
	if st.Connected {
		return ErrAlreadyConnected
	}

	if creds.Empty() {
		out, err := c.run(ctx, "", "connect", c.server)
		if errors.Is(err, common.ErrTimeout) {
			common.LogInfo("VPN connection initiated to %s", c.server)
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v: %s", ErrConnectionFailed, err, strings.TrimSpace(out))
		}
		if ParseState(out).Connected {
			common.LogInfo("VPN connected to %s", c.server)
		}
		return nil
	}

	script := fmt.Sprintf("connect %s\n%s\n%s\ny\n", c.server, creds.Username, creds.Password)
	out, err := c.run(ctx, script, "-s")
	if err != nil && !errors.Is(err, common.ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	result := ParseState(out)
	if !result.Connected {
		if errors.Is(err, common.ErrTimeout) {
			return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
		return fmt.Errorf("%w: %s", ErrConnectionFailed, result.Message)
	}

	c.mu.Lock()
	c.last = result
	c.mu.Unlock()
	common.LogInfo("VPN connected to %s", c.server)
	return nil
}

// Disconnect tears the tunnel down.
func (c *Client) Disconnect(ctx context.Context) error {
	st := c.Status(ctx)
	if !st.Connected && !st.Stale {
		return ErrNotConnected
	}

	out, err := c.run(ctx, "", "disconnect")
	if err != nil {
		return fmt.Errorf("vpn disconnect failed: %w: %s", err, strings.TrimSpace(out))
	}

	c.mu.Lock()
	c.last = ParseState(out)
	c.mu.Unlock()
	common.LogInfo("VPN disconnected")
	return nil
}

// executable reports whether path can be run. Used for config checks.
func executable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0111 != 0
}

// Available reports whether the configured CLI exists and is runnable.
func (c *Client) Available() bool {
	return c.cliPath != "" && executable(c.cliPath)
}
