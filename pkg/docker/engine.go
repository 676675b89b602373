package docker

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// StopEngine shuts down the Docker engine itself. The mechanism differs per
// platform: systemd unit on Linux, Docker Desktop app elsewhere.
func (s *Source) StopEngine(ctx context.Context) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.CommandContext(ctx, "sudo", "systemctl", "stop", "docker")
	case "darwin":
		cmd = exec.CommandContext(ctx, "osascript", "-e", `quit app "Docker"`)
	case "windows":
		cmd = exec.CommandContext(ctx, "powershell", "-Command",
			"Stop-Process -Name 'Docker Desktop' -Force -ErrorAction SilentlyContinue")
	default:
		return fmt.Errorf("engine shutdown not supported on %s", runtime.GOOS)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to stop Docker engine: %v: %s", err, out)
	}
	return nil
}
