//go:build windows

package dcrpc

import "os"

// terminate kills the server; Windows has no SIGTERM for console processes.
func (p *serverProcess) terminate() error {
	return signalProcess(p.cmd.Process, os.Kill)
}
