package dcrpc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// child is the server process as the Client sees it. The reader goroutine
// is the only caller of wait; Close only signals.
type child interface {
	pid() int
	terminate() error
	kill() error
	wait() error
}

// serverProcess is a child backed by an os/exec command.
type serverProcess struct {
	cmd *exec.Cmd
}

var _ child = (*serverProcess)(nil)

// startServer resolves the binary and starts the server with stdin and
// stdout as pipes. stderr, working directory and environment come from opts.
func startServer(opts Options) (*serverProcess, io.ReadCloser, io.WriteCloser, error) {
	binary, err := resolveBinary(opts.Binary)
	if err != nil {
		return nil, nil, nil, err
	}

	cmd := exec.Command(binary, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = serverEnv(opts.Env, opts.AccountsDir)
	cmd.Stderr = opts.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dcrpc: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dcrpc: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: start %s: %w", ErrUnavailable, binary, err)
	}
	return &serverProcess{cmd: cmd}, stdout, stdin, nil
}

// resolveBinary resolves the server executable via PATH.
func resolveBinary(binary string) (string, error) {
	if binary == "" {
		return "", fmt.Errorf("%w: no binary configured", ErrUnavailable)
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnavailable, binary, err)
	}
	return resolved, nil
}

// serverEnv computes the server environment. Without an accounts directory
// the base is returned unchanged (nil inherits the caller's environment).
// With one, AccountsPathEnv is set to it and any previous value dropped.
func serverEnv(base []string, accountsDir string) []string {
	if accountsDir == "" {
		return base
	}
	if base == nil {
		base = os.Environ()
	}
	prefix := AccountsPathEnv + "="
	env := make([]string, 0, len(base)+1)
	for _, kv := range base {
		if !strings.HasPrefix(kv, prefix) {
			env = append(env, kv)
		}
	}
	return append(env, prefix+accountsDir)
}

func (p *serverProcess) pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *serverProcess) kill() error {
	return signalProcess(p.cmd.Process, os.Kill)
}

// wait reaps the process. Must only be called after the reader has seen
// EOF: exec.Cmd.Wait closes the stdout pipe.
func (p *serverProcess) wait() error {
	return p.cmd.Wait()
}

// signalProcess sends sig to a process, returning nil if the process
// has already exited (os.ErrProcessDone).
func signalProcess(proc *os.Process, sig os.Signal) error {
	err := proc.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
