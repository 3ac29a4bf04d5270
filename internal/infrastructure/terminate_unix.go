//go:build !windows

package infrastructure

import (
	"os"
	"syscall"
)

// terminate asks the engine process to exit
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
