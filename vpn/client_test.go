package vpn

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yllada/quicklinks/common"
)

// fakeCLI answers commands from a table keyed by the joined arguments.
type fakeCLI struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	block   map[string]bool
	calls   []string
	stdin   []string
}

func (f *fakeCLI) Run(ctx context.Context, stdin string, name string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.stdin = append(f.stdin, stdin)
	out, err, block := f.outputs[key], f.errs[key], f.block[key]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return out, ctx.Err()
	}
	return out, err
}

func (f *fakeCLI) setState(state string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs["state"] = "Cisco AnyConnect Secure Mobility Client\n  >> state: " + state + "\n"
}

func newFakeClient(f *fakeCLI) *Client {
	if f.outputs == nil {
		f.outputs = map[string]string{}
	}
	if f.errs == nil {
		f.errs = map[string]error{}
	}
	if f.block == nil {
		f.block = map[string]bool{}
	}
	return NewClient(ClientConfig{
		CLIPath:        "/opt/cisco/anyconnect/bin/vpn",
		Server:         "vpn.example.com",
		CommandTimeout: 50 * time.Millisecond,
		Runner:         f,
	})
}

func TestParseState(t *testing.T) {
	tests := []struct {
		name          string
		output        string
		wantConnected bool
		wantMessage   string
	}{
		{"connected", "  >> state: Connected\n", true, "VPN connected"},
		{"disconnected", "state: Disconnected", false, "VPN is not connected"},
		{"connecting", ">> state: Connecting", false, "VPN connecting"},
		{"case insensitive", "STATE: connected", true, "VPN connected"},
		{"last line wins", "  >> state: Disconnected\n  >> notice: Ready\n  >> state: Connected\n", true, "VPN connected"},
		{"unknown", "  >> state: Paused\n", false, "Unknown state: Paused"},
		{"no state", "VPN> error: Connect not available", false, "Unknown state: no state reported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseState(tt.output)
			if got.Connected != tt.wantConnected {
				t.Errorf("Connected = %v, want %v", got.Connected, tt.wantConnected)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestClient_StatusMissingCLI(t *testing.T) {
	c := &Client{timeout: time.Second, runner: &fakeCLI{}}
	st := c.Status(context.Background())
	if st.Connected {
		t.Error("missing CLI should report not connected")
	}
	if !strings.Contains(st.Message, "not installed") {
		t.Errorf("Message = %q", st.Message)
	}
}

func TestClient_StatusTimeoutReturnsLastKnown(t *testing.T) {
	f := &fakeCLI{}
	c := newFakeClient(f)
	f.setState("Connected")

	if st := c.Status(context.Background()); !st.Connected {
		t.Fatal("expected connected")
	}

	f.mu.Lock()
	f.block["state"] = true
	f.mu.Unlock()

	st := c.Status(context.Background())
	if !st.Connected || !st.Stale {
		t.Errorf("Status() = %+v, want stale connected", st)
	}
}

func TestClient_ConnectAlreadyConnected(t *testing.T) {
	f := &fakeCLI{}
	c := newFakeClient(f)
	f.setState("Connected")

	err := c.Connect(context.Background(), Credentials{})
	if !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("Connect() error = %v, want ErrAlreadyConnected", err)
	}
}

func TestClient_ConnectInteractiveTimeoutIsInitiated(t *testing.T) {
	f := &fakeCLI{}
	c := newFakeClient(f)
	f.setState("Disconnected")
	f.block["connect vpn.example.com"] = true

	if err := c.Connect(context.Background(), Credentials{}); err != nil {
		t.Errorf("Connect() error = %v, want nil", err)
	}
}

func TestClient_ConnectWithCredentials(t *testing.T) {
	f := &fakeCLI{}
	c := newFakeClient(f)
	f.setState("Disconnected")
	f.outputs["-s"] = "  >> state: Connecting\n  >> state: Connected\n"

	if err := c.Connect(context.Background(), Credentials{Username: "alice", Password: "s3cret"}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	script := f.stdin[len(f.stdin)-1]
	if script != "connect vpn.example.com\nalice\ns3cret\ny\n" {
		t.Errorf("stdin script = %q", script)
	}
}

func TestClient_ConnectWithCredentialsRejected(t *testing.T) {
	f := &fakeCLI{}
	c := newFakeClient(f)
	f.setState("Disconnected")
	f.outputs["-s"] = "  >> Login failed.\n  >> state: Disconnected\n"

	err := c.Connect(context.Background(), Credentials{Username: "alice", Password: "wrong"})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClient_ConnectWithoutServer(t *testing.T) {
	f := &fakeCLI{outputs: map[string]string{}, errs: map[string]error{}, block: map[string]bool{}}
	c := NewClient(ClientConfig{CLIPath: "/bin/vpn", Runner: f})
	if err := c.Connect(context.Background(), Credentials{}); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClient_Disconnect(t *testing.T) {
	f := &fakeCLI{}
	c := newFakeClient(f)

	f.setState("Disconnected")
	if err := c.Disconnect(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Disconnect() error = %v, want ErrNotConnected", err)
	}

	f.setState("Connected")
	f.outputs["disconnect"] = "  >> state: Disconnecting\n  >> state: Disconnected\n"
	if err := c.Disconnect(context.Background()); err != nil {
		t.Errorf("Disconnect() error = %v", err)
	}
}

func TestClient_RunTimeout(t *testing.T) {
	f := &fakeCLI{}
	c := newFakeClient(f)
	f.block["stats"] = true

	_, err := c.run(context.Background(), "", "stats")
	if !errors.Is(err, common.ErrTimeout) {
		t.Errorf("run() error = %v, want ErrTimeout", err)
	}
}

func TestCredentials_Empty(t *testing.T) {
	tests := []struct {
		creds Credentials
		want  bool
	}{
		{Credentials{}, true},
		{Credentials{Username: "a"}, true},
		{Credentials{Password: "b"}, true},
		{Credentials{Username: "a", Password: "b"}, false},
	}
	for _, tt := range tests {
		if got := tt.creds.Empty(); got != tt.want {
			t.Errorf("%+v.Empty() = %v, want %v", tt.creds, got, tt.want)
		}
	}
}
