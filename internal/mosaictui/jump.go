package mosaictui

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tOgg1/mosaic/internal/logging"
	"github.com/tOgg1/mosaic/internal/mosaictui/state"
)

// parseJumpDuration accepts Go durations plus d, w, M (month) and y units.
func parseJumpDuration(raw string) (years, months int, d time.Duration, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, 0, 0, false
	}
	if dur, err := time.ParseDuration(raw); err == nil && dur > 0 {
		return 0, 0, dur, true
	}
	unit := raw[len(raw)-1]
	n, err := strconv.Atoi(raw[:len(raw)-1])
	if err != nil || n <= 0 {
		return 0, 0, 0, false
	}
	switch unit {
	case 'd':
		return 0, 0, time.Duration(n) * 24 * time.Hour, true
	case 'w':
		return 0, 0, time.Duration(n) * 7 * 24 * time.Hour, true
	case 'M':
		return 0, n, 0, true
	case 'y', 'Y':
		return n, 0, 0, true
	default:
		return 0, 0, 0, false
	}
}

// parseJumpTime parses a jump target: an absolute date or date-time, a bare
// year ("2016") or year-month ("2016-05"), or an offset from now ("-3y",
// "-6M", "-2w").
func parseJumpTime(raw string, now time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if strings.HasPrefix(raw, "-") || strings.HasPrefix(raw, "+") {
		sign := 1
		if raw[0] == '-' {
			sign = -1
		}
		if years, months, d, ok := parseJumpDuration(raw[1:]); ok {
			return now.AddDate(sign*years, sign*months, 0).Add(time.Duration(sign) * d).UTC(), true
		}
		return time.Time{}, false
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006-01",
		"2006",
	}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

type jumpRequestMsg struct {
	at time.Time
}

func waitForJumpCmd(ch <-chan time.Time) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		at, ok := <-ch
		if !ok {
			return nil
		}
		return jumpRequestMsg{at: at}
	}
}

// jumpWatcher turns writes of the jump request file into jump targets.
type jumpWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	requests chan time.Time
	done     chan struct{}
	logger   zerolog.Logger
}

// newJumpWatcher watches the directory holding path, so the request file
// may be created after the browser starts.
func newJumpWatcher(path string) (*jumpWatcher, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	jw := &jumpWatcher{
		watcher:  watcher,
		path:     path,
		requests: make(chan time.Time, 1),
		done:     make(chan struct{}),
		logger:   logging.Component("jump-watcher"),
	}
	go jw.run()
	return jw, nil
}

func (jw *jumpWatcher) Requests() <-chan time.Time {
	return jw.requests
}

func (jw *jumpWatcher) run() {
	defer close(jw.requests)
	for {
		select {
		case <-jw.done:
			return
		case event, ok := <-jw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != jw.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			at, err := state.ReadJumpRequest(jw.path)
			if err != nil {
				jw.logger.Debug().Err(err).Msg("ignoring jump request")
				continue
			}
			jw.logger.Info().Str("target", at.Format(time.RFC3339)).Msg("jump requested")
			select {
			case jw.requests <- at:
			case <-jw.done:
				return
			}
		case err, ok := <-jw.watcher.Errors:
			if !ok {
				return
			}
			jw.logger.Warn().Err(err).Msg("jump watcher error")
		}
	}
}

func (jw *jumpWatcher) Close() error {
	select {
	case <-jw.done:
		return nil
	default:
	}
	close(jw.done)
	return jw.watcher.Close()
}
