//go:build !windows

package dcrpc

import "syscall"

// terminate asks the server to exit with SIGTERM.
func (p *serverProcess) terminate() error {
	return signalProcess(p.cmd.Process, syscall.SIGTERM)
}
