package dcrpc

import (
	"errors"
	"os"
	"slices"
	"strings"
	"testing"
)

func TestServerEnv_NoAccountsDir(t *testing.T) {
	base := []string{"A=1"}
	if got := serverEnv(base, ""); !slices.Equal(got, base) {
		t.Errorf("serverEnv = %v, want %v", got, base)
	}
	if got := serverEnv(nil, ""); got != nil {
		t.Errorf("serverEnv(nil) = %v, want nil (inherit)", got)
	}
}

func TestServerEnv_OverridesExisting(t *testing.T) {
	base := []string{"A=1", "DC_ACCOUNTS_PATH=/old", "B=2", "DC_ACCOUNTS_PATH=/older"}
	got := serverEnv(base, "/new")
	want := []string{"A=1", "B=2", "DC_ACCOUNTS_PATH=/new"}
	if !slices.Equal(got, want) {
		t.Errorf("serverEnv = %v, want %v", got, want)
	}
	// The caller's slice is not modified.
	if base[1] != "DC_ACCOUNTS_PATH=/old" {
		t.Errorf("base modified: %v", base)
	}
}

func TestServerEnv_InheritsParent(t *testing.T) {
	t.Setenv("DCRPC_TEST_INHERIT", "yes")
	t.Setenv(AccountsPathEnv, "/from-parent")

	got := serverEnv(nil, "/accounts")
	if !slices.Contains(got, "DCRPC_TEST_INHERIT=yes") {
		t.Error("parent environment not inherited")
	}
	var paths []string
	for _, kv := range got {
		if v, ok := strings.CutPrefix(kv, AccountsPathEnv+"="); ok {
			paths = append(paths, v)
		}
	}
	if !slices.Equal(paths, []string{"/accounts"}) {
		t.Errorf("%s values = %v, want [/accounts]", AccountsPathEnv, paths)
	}
}

func TestResolveBinary_NotFound(t *testing.T) {
	_, err := resolveBinary("dcrpc-no-such-binary-xyz")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("resolveBinary = %v, want ErrUnavailable", err)
	}
	if _, err := resolveBinary(""); !errors.Is(err, ErrUnavailable) {
		t.Errorf("resolveBinary(\"\") = %v, want ErrUnavailable", err)
	}
}

func TestSignalProcess_Exited(t *testing.T) {
	proc, err := os.StartProcess(mustLookPath(t, "true"), []string{"true"}, &os.ProcAttr{})
	if err != nil {
		t.Skipf("start true: %v", err)
	}
	if _, err := proc.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if err := signalProcess(proc, os.Kill); err != nil {
		t.Errorf("signalProcess on exited process = %v, want nil", err)
	}
}

func mustLookPath(t *testing.T, name string) string {
	t.Helper()
	path, err := resolveBinary(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}
