package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tOgg1/mosaic/internal/models"
)

// ErrNoJumpRequest is returned when no request file exists.
var ErrNoJumpRequest = errors.New("no jump request")

// WriteJumpRequest asks a running browser to jump to target. The file is
// replaced atomically so watchers never read a partial timestamp.
func WriteJumpRequest(path string, target time.Time) error {
	if target.IsZero() {
		return errors.New("jump target is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(models.FormatTimestamp(target)+"\n"), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadJumpRequest returns the target stored at path.
func ReadJumpRequest(path string) (time.Time, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, ErrNoJumpRequest
		}
		return time.Time{}, err
	}
	raw := strings.TrimSpace(string(payload))
	if raw == "" {
		return time.Time{}, ErrNoJumpRequest
	}
	ts, ok := models.ParseTimestamp(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("malformed jump request %q", raw)
	}
	return ts, nil
}
