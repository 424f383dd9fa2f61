// Package state persists the browser's scroll anchor and jump history
// between sessions.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	CurrentVersion = 1

	defaultDebounce = 1 * time.Second
	maxRecentJumps  = 20
)

type BrowserState struct {
	Version     int          `json:"version"`
	Anchor      Anchor       `json:"anchor,omitempty"`       // item under the selection at exit
	RecentJumps []JumpRecord `json:"recent_jumps,omitempty"` // newest first
	Theme       string       `json:"theme,omitempty"`        // last theme chosen in the UI
}

// Anchor is the position the browser reopens at.
type Anchor struct {
	Time time.Time `json:"time,omitempty"`
	Key  string    `json:"key,omitempty"`
}

// JumpRecord is one explicit jump target.
type JumpRecord struct {
	Target time.Time `json:"target"`
	Source string    `json:"source,omitempty"` // prompt, scrubber, request, random
	At     time.Time `json:"at,omitempty"`
}

type Manager struct {
	path     string
	lockPath string

	mu        sync.Mutex
	state     BrowserState
	dirty     bool
	timer     *time.Timer
	debounce  time.Duration
	lastWrite time.Time
}

func New(path string) *Manager {
	path = strings.TrimSpace(path)
	return &Manager{
		path:     path,
		lockPath: path + ".lock",
		state:    BrowserState{Version: CurrentVersion},
		debounce: defaultDebounce,
	}
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		return nil
	}

	loaded, err := m.loadLocked()
	if err != nil {
		return err
	}
	m.state = loaded
	m.dirty = false
	return nil
}

func (m *Manager) Snapshot() BrowserState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state)
}

func (m *Manager) Anchor() Anchor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Anchor
}

// SetAnchor records the item under the selection. Untimed items are ignored.
func (m *Manager) SetAnchor(ts time.Time, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ts.IsZero() {
		return
	}
	next := Anchor{Time: ts.UTC(), Key: strings.TrimSpace(key)}
	if m.state.Anchor.Time.Equal(next.Time) && m.state.Anchor.Key == next.Key {
		return
	}
	m.state.Anchor = next
	m.markDirtyLocked()
}

// RecordJump prepends a jump target to the history, dropping an older entry
// for the same target.
func (m *Manager) RecordJump(target time.Time, source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if target.IsZero() {
		return
	}
	target = target.UTC()
	out := make([]JumpRecord, 0, len(m.state.RecentJumps)+1)
	out = append(out, JumpRecord{Target: target, Source: strings.TrimSpace(source), At: time.Now().UTC()})
	for _, rec := range m.state.RecentJumps {
		if rec.Target.Equal(target) {
			continue
		}
		out = append(out, rec)
	}
	if len(out) > maxRecentJumps {
		out = out[:maxRecentJumps]
	}
	m.state.RecentJumps = out
	m.markDirtyLocked()
}

func (m *Manager) RecentJumps() []JumpRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]JumpRecord(nil), m.state.RecentJumps...)
}

func (m *Manager) Theme() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Theme
}

func (m *Manager) SetTheme(theme string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	theme = strings.TrimSpace(theme)
	if theme == m.state.Theme {
		return
	}
	m.state.Theme = theme
	m.markDirtyLocked()
}

func (m *Manager) SaveSoon() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markDirtyLocked()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	needsSave := m.dirty
	m.mu.Unlock()
	if !needsSave {
		return nil
	}
	return m.SaveNow()
}

func (m *Manager) SaveNow() error {
	m.mu.Lock()
	if m.path == "" {
		m.mu.Unlock()
		return nil
	}
	state := cloneState(m.state)
	m.dirty = false
	m.mu.Unlock()

	state.Version = CurrentVersion
	state = normalizeState(state)

	if err := withFileLock(m.lockPath, func() error {
		return writeAtomicJSON(m.path, state)
	}); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.lastWrite = time.Now().UTC()
	m.mu.Unlock()
	return nil
}

func (m *Manager) markDirtyLocked() {
	m.dirty = true
	if m.path == "" {
		return
	}
	if m.timer == nil {
		m.timer = time.AfterFunc(m.debounce, func() {
			_ = m.SaveNow()
		})
		return
	}
	_ = m.timer.Reset(m.debounce)
}

func (m *Manager) loadLocked() (BrowserState, error) {
	var out BrowserState
	if err := withFileLock(m.lockPath, func() error {
		payload, err := os.ReadFile(m.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				out = BrowserState{Version: CurrentVersion}
				return nil
			}
			return err
		}
		if len(payload) == 0 {
			out = BrowserState{Version: CurrentVersion}
			return nil
		}
		return json.Unmarshal(payload, &out)
	}); err != nil {
		return BrowserState{}, err
	}

	if out.Version <= 0 {
		out.Version = CurrentVersion
	}
	return normalizeState(out), nil
}

func withFileLock(lockPath string, fn func() error) error {
	if strings.TrimSpace(lockPath) == "" {
		return fn()
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}()
	return fn()
}

func writeAtomicJSON(path string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func normalizeState(state BrowserState) BrowserState {
	if state.Anchor.Time.IsZero() {
		state.Anchor = Anchor{}
	}

	// Drop empty and repeated targets, cap history.
	if len(state.RecentJumps) > 0 {
		out := make([]JumpRecord, 0, len(state.RecentJumps))
		for _, rec := range state.RecentJumps {
			if rec.Target.IsZero() {
				continue
			}
			dup := false
			for _, kept := range out {
				if kept.Target.Equal(rec.Target) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, rec)
			}
		}
		if len(out) > maxRecentJumps {
			out = out[:maxRecentJumps]
		}
		state.RecentJumps = out
	}
	return state
}

func cloneState(state BrowserState) BrowserState {
	out := state
	if len(state.RecentJumps) > 0 {
		out.RecentJumps = append([]JumpRecord(nil), state.RecentJumps...)
	}
	return out
}
