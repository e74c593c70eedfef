package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/RabowNicholas/swna-automation/internal/config"
	"github.com/RabowNicholas/swna-automation/internal/registry"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

// probeName never matches a real client; a successful empty lookup proves the
// credentials and table settings work.
const probeName = "swna status probe"

// CheckRegistry performs one read-only lookup against the registry.
func CheckRegistry(ctx context.Context, reg registry.Client, timeout time.Duration) Result {
	const name = "Registry"
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := reg.FindByName(checkCtx, probeName); err != nil {
		return Result{Name: name, Detail: summarizeRegistryError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckNotifications reports whether push notifications are configured.
// Disabled notifications pass; they are optional.
func CheckNotifications(cfg config.Notifications) Result {
	const name = "Notifications"
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: topic must be a full ntfy URL)", topic)}
	}
	return Result{Name: name, Passed: true, Detail: topic}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeRegistryError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, services.ErrTimeout) {
		return "lookup timed out (registry unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "lookup timed out (registry unreachable)"
	}
	return err.Error()
}
