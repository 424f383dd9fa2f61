package testutil

import (
	"os"
	"testing"
)

// SkipIfNoNetwork skips the test if MOSAIC_TEST_SKIP_NETWORK is set.
// Use this for tests that open TCP listeners, which may not be available
// in sandboxed environments.
func SkipIfNoNetwork(t *testing.T) {
	t.Helper()
	if os.Getenv("MOSAIC_TEST_SKIP_NETWORK") != "" {
		t.Skip("skipping network test: MOSAIC_TEST_SKIP_NETWORK is set")
	}
}
