package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/mpsdk"
)

func TestLoggerForwardsLevelAndFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := New(base)

	l.Debug("response generation swept", mpsdk.Fields{"dropped": 3})
	l.Error("boom", nil)

	if len(hook.Entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(hook.Entries))
	}
	first := hook.Entries[0]
	if first.Level != logrus.DebugLevel || first.Data["dropped"] != 3 || first.Data["component"] != "mpsdk" {
		t.Fatalf("unexpected entry %+v", first)
	}
	if hook.LastEntry().Level != logrus.ErrorLevel {
		t.Fatalf("last level = %v", hook.LastEntry().Level)
	}
}
