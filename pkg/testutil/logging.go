package testutil

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Logs are emitted at every level, but only reach stderr under go test -v.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.v=") && arg != "-test.v=false" {
			return
		}
	}
	logrus.SetOutput(io.Discard)
}

// CaptureLogs records entries written to the standard logger for the rest of
// the test.
func CaptureLogs(t *testing.T) *test.Hook {
	hook := new(test.Hook)
	original := logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	logrus.AddHook(hook)

	t.Cleanup(func() {
		logrus.StandardLogger().ReplaceHooks(original)
	})
	return hook
}
