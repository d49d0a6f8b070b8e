package app

import (
	"os"
	"testing"

	"github.com/vk/irispipe/internal/datamodels"
	"github.com/vk/irispipe/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. The
// process-wide model registry is restored when the test ends.
func SetupAppTest(t *testing.T, cfg *Config, opts ...Option) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp, err := NewApp(logBuffer, cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	t.Cleanup(func() {
		datamodels.ResetDefault()
		if os.Getenv("IRISPIPE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
