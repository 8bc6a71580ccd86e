package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenBrowser opens the default browser at the given URL, used to hand the
// user off to the Spotify authorization page during login.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch goos := runtime.GOOS; goos {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", goos)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
