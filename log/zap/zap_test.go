package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/mpsdk"
)

func TestLoggerForwardsLevelAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Debug("credential refreshed", mpsdk.Fields{"name": "token"})
	l.Warn("store failed", mpsdk.Fields{"err": errors.New("down")})
	l.Info("no fields", nil)

	entries := logs.AllUntimed()
	if len(entries) != 3 {
		t.Fatalf("want 3 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel || entries[0].LoggerName != "mpsdk" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if got := entries[0].ContextMap()["name"]; got != "token" {
		t.Fatalf("name field = %v", got)
	}
	if got := entries[1].ContextMap()["err"]; got != "down" {
		t.Fatalf("err field = %v", got)
	}
}
