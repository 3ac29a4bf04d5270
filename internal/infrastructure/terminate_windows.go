//go:build windows

package infrastructure

import "os"

// terminate stops the engine process; Windows has no SIGTERM
func terminate(p *os.Process) error {
	return p.Kill()
}
