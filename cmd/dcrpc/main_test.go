package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmora/dcrpc/internal/config"
	"github.com/dmora/dcrpc/rpctest"
)

// TestHelperProcess is the fake server the CLI tests start through their
// config file.
func TestHelperProcess(t *testing.T) {
	if !rpctest.IsHelperProcess() {
		t.Skip("helper process only")
	}
	srv := rpctest.NewServer()
	srv.HandleResult("get_system_info", map[string]string{
		"deltachat_core_version": "v-test",
		"arch":                   "64",
	})
	srv.HandleResult("get_all_account_ids", []int64{1, 2})
	srv.Handle("get_account_info", func(_ context.Context, p json.RawMessage) (any, error) {
		var id int64
		if err := rpctest.Params(p, &id); err != nil {
			return nil, err
		}
		if id == 1 {
			return map[string]any{"kind": "Configured", "id": 1, "addr": "bot@example.org", "displayName": "Bot"}, nil
		}
		return map[string]any{"kind": "Unconfigured", "id": id}, nil
	})
	srv.Handle("echo", func(_ context.Context, p json.RawMessage) (any, error) {
		return p, nil
	})
	srv.Handle("start_io", func(_ context.Context, p json.RawMessage) (any, error) {
		var id int64
		if err := rpctest.Params(p, &id); err != nil {
			return nil, err
		}
		for _, msg := range []string{"one", "two"} {
			if err := srv.Emit(id, map[string]string{"kind": "Info", "msg": msg}); err != nil {
				return nil, err
			}
		}
		go func() {
			// Exit after the response is out so the event stream ends.
			time.Sleep(200 * time.Millisecond)
			os.Exit(0)
		}()
		return nil, nil
	})
	_ = srv.ServeStdio(context.Background())
	os.Exit(0)
}

// writeTestConfig writes a config that runs the helper process as the
// server and returns its path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Chdir(base)
	for _, name := range []string{config.EnvBinary, config.EnvLogLevel, "DC_ACCOUNTS_PATH"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	path := filepath.Join(base, "dcrpc.yaml")
	content := fmt.Sprintf(`server:
  binary: %q
  args: ["-test.run=^TestHelperProcess$"]
  env:
    %s: "1"
logging:
  level: error
  format: json
`, os.Args[0], rpctest.HelperEnv)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// runCLI runs the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestInfoCommand_Table(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := runCLI(t, "--config", cfg, "info")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"KEY", "deltachat_core_version", "v-test", "╭"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Keys are sorted.
	if strings.Index(out, "arch") > strings.Index(out, "deltachat_core_version") {
		t.Errorf("keys not sorted:\n%s", out)
	}
}

func TestInfoCommand_JSON(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := runCLI(t, "--config", cfg, "info", "--json")
	if err != nil {
		t.Fatalf("info --json: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if info["deltachat_core_version"] != "v-test" {
		t.Errorf("info = %v", info)
	}
}

func TestAccountsCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := runCLI(t, "--config", cfg, "accounts")
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	for _, want := range []string{"CONFIGURED", "bot@example.org", "Bot", "yes", "no"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCallCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := runCLI(t, "--config", cfg, "call", "echo", "1", "addr", `{"a":true}`)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	var got []any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 3 || got[0] != float64(1) || got[1] != "addr" {
		t.Errorf("echo = %v", got)
	}

	out, _, err = runCLI(t, "--config", cfg, "call", "echo", "--named", "account_id=1", "--named", "key=addr")
	if err != nil {
		t.Fatalf("call --named: %v", err)
	}
	var named map[string]any
	if err := json.Unmarshal([]byte(out), &named); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if named["account_id"] != float64(1) || named["key"] != "addr" {
		t.Errorf("named echo = %v", named)
	}
}

func TestCallCommand_RemoteError(t *testing.T) {
	cfg := writeTestConfig(t)

	_, _, err := runCLI(t, "--config", cfg, "call", "no_such_method")
	if err == nil || !strings.Contains(err.Error(), "method not found") {
		t.Errorf("call = %v, want method not found", err)
	}
}

func TestEventsCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := runCLI(t, "--config", cfg, "events", "1", "--start-io")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], `"one"`) || !strings.Contains(lines[1], `"two"`) {
		t.Errorf("events out of order:\n%s", out)
	}
}

func TestEventsCommand_InvalidAccount(t *testing.T) {
	cfg := writeTestConfig(t)
	if _, _, err := runCLI(t, "--config", cfg, "events", "abc"); err == nil {
		t.Error("expected error for non-numeric account id")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := runCLI(t, "--config", cfg, "--binary", "other-server", "--accounts-dir", "/flag/accounts", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var shown config.Config
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if shown.Server.Binary != "other-server" || shown.Server.AccountsDir != "/flag/accounts" {
		t.Errorf("server = %+v", shown.Server)
	}

	if _, _, err := runCLI(t, "--config", cfg, "--log-level", "loud", "config", "show"); err == nil {
		t.Error("expected error for invalid --log-level")
	}
}

func TestConfigInitCommand(t *testing.T) {
	writeTestConfig(t)
	target := filepath.Join(t.TempDir(), "new", "dcrpc.yaml")

	out, _, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("output = %q, want path", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("sample not written: %v", err)
	}
}
