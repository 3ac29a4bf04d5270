package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	serverBinary       = "ytbatch-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

// isServerRunning reports whether the server answers its health check
func isServerRunning(baseURL string) bool {
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// serverCandidates lists where the server binary may live, most specific
// first: next to this binary, then PATH, then common install dirs
func serverCandidates() []string {
	var candidates []string
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), serverBinary))
	}
	if p, err := exec.LookPath(serverBinary); err == nil {
		candidates = append(candidates, p)
	}
	candidates = append(candidates,
		filepath.Join("/usr/local/bin", serverBinary),
		filepath.Join("/usr/bin", serverBinary),
	)
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, "go", "bin", serverBinary),
			filepath.Join(home, ".local", "bin", serverBinary),
		)
	}
	return candidates
}

func findServerBinary() (string, error) {
	for _, p := range serverCandidates() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s binary not found", serverBinary)
}

// launchServer runs the server binary, which detaches itself and exits
func launchServer() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	var args []string
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			args = append(args, "-config", abs)
		}
	}

	cmd := exec.Command(serverPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", serverBinary, err, out)
	}
	return nil
}

func waitForServer(baseURL string) error {
	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if isServerRunning(baseURL) {
			return nil
		}
		time.Sleep(serverPollInterval)
	}
	return fmt.Errorf("server did not start within %v", serverStartTimeout)
}

// ensureServerRunning starts the server when it does not answer
func ensureServerRunning() error {
	if isServerRunning(serverURL) {
		return nil
	}

	fmt.Fprintln(os.Stderr, "Server not running, starting...")

	if err := launchServer(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	if err := waitForServer(serverURL); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Server started successfully")
	return nil
}
