// Package testlog routes test output through the test logging profile.
package testlog

import (
	"testing"
	"time"

	"github.com/danmuck/cmdclient/internal/logging"
	logs "github.com/danmuck/smplog"
)

// Start configures test logging and brackets t with start/done lines.
func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	started := time.Now()
	logs.Infof("test=%s", t.Name())
	t.Cleanup(func() {
		logs.Debugf("test=%s done failed=%v elapsed=%s", t.Name(), t.Failed(), time.Since(started))
	})
}
