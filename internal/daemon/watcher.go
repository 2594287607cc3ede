package daemon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"shoebox/internal/logging"
)

// mediaWatcher listens for udev netlink events and surfaces removable block
// partitions as they appear, so an operator sees when a card or USB stick
// with new photos is plugged in.
type mediaWatcher struct {
	logger   *slog.Logger
	onDevice func(device string)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newMediaWatcher(logger *slog.Logger, onDevice func(device string)) *mediaWatcher {
	return &mediaWatcher{
		logger:   logging.NewComponentLogger(logger, "media-watcher"),
		onDevice: onDevice,
	}
}

// Start begins listening for udev netlink events. A connect failure is
// non-fatal; the daemon works without insertion notifications.
func (w *mediaWatcher) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		w.logger.Warn("failed to connect to netlink socket; media insertions will not be reported",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "removable media detection unavailable"),
		)
		return nil
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.watchLoop(ctx, quit)

	w.logger.Info("media watcher started",
		logging.String(logging.FieldEventType, "media_watcher_started"))
	return nil
}

// Stop shuts down the watcher.
func (w *mediaWatcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.running = false

	w.logger.Info("media watcher stopped",
		logging.String(logging.FieldEventType, "media_watcher_stopped"))
}

func (w *mediaWatcher) watchLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, partitionMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			w.handleEvent(uevent)
		case err := <-errs:
			w.logger.Warn("media watcher error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "media_watcher_error"))
		}
	}
}

// partitionMatcher matches newly appearing block partitions:
// SUBSYSTEM=block, DEVTYPE=partition, ACTION=add.
func partitionMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"DEVTYPE":   "partition",
		},
	})
	return rules
}

func (w *mediaWatcher) handleEvent(uevent netlink.UEvent) {
	device := deviceName(uevent)
	if device == "" {
		return
	}

	w.logger.Info("removable media detected",
		logging.String(logging.FieldEventType, "media_detected"),
		logging.String("device", device),
		logging.String("action", string(uevent.Action)))

	if w.onDevice != nil {
		w.onDevice(device)
	}
}

func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if strings.HasPrefix(devname, "/") {
			return devname
		}
		return "/dev/" + devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
