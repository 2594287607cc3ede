package daemonctl

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"shoebox/internal/ipc"
)

// ErrDaemonNotRunning indicates no daemon is reachable on the socket.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
}

// StartResult captures daemon start orchestration state.
type StartResult struct {
	Launched       bool
	AlreadyRunning bool
	PID            int
}

// StopResult captures daemon stop orchestration state.
type StopResult struct {
	PID int
}

// Launch starts a detached shoebox daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if socket := strings.TrimSpace(opts.SocketPath); socket != "" {
		args = append(args, "--socket", socket)
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon when no socket answers and returns the
// resulting state. An answering daemon is left alone.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	client, err := ipc.Dial(socketPath)
	launched := false
	if err != nil {
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForClient(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		launched = true
	}
	defer client.Close()

	result := StartResult{Launched: launched, AlreadyRunning: !launched}
	if statusResp, statusErr := client.Status(); statusErr == nil {
		result.PID = statusResp.Status.PID
	}
	return result, nil
}

// StopAndTerminate asks the daemon process to shut down and waits for the
// socket to disappear. Returns ErrDaemonNotRunning when nothing answers.
func StopAndTerminate(socketPath string, timeout time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		return StopResult{}, ErrDaemonNotRunning
	}

	result := StopResult{}
	if statusResp, statusErr := client.Status(); statusErr == nil {
		result.PID = statusResp.Status.PID
	}

	_, stopErr := client.Stop()
	_ = client.Close()
	if stopErr != nil {
		return result, fmt.Errorf("request stop: %w", stopErr)
	}

	if err := WaitForShutdown(socketPath, timeout); err != nil {
		return result, err
	}
	return result, nil
}

// WaitForShutdown waits for the daemon IPC socket to stop answering.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			return nil
		}
		_ = client.Close()
		lastErr = fmt.Errorf("daemon still running")
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for shutdown")
	}
	return fmt.Errorf("daemon did not stop: %w", lastErr)
}

// ProcessInfo reports whether daemon IPC is reachable and the daemon PID when available.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		return false, 0, nil
	}
	defer client.Close()
	statusResp, statusErr := client.Status()
	if statusErr != nil {
		return true, 0, statusErr
	}
	return true, statusResp.Status.PID, nil
}
