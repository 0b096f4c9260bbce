package rlog_test

import (
	"log/slog"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/jrm-1535/rawspeed/rlog"
)

func TestDefaultReturnsNonNilLogger(t *testing.T) {
	c := qt.New(t)
	c.Assert(rlog.Default(), qt.Not(qt.IsNil))
}

func TestVerboseEnablesDebugLevel(t *testing.T) {
	c := qt.New(t)
	l := rlog.Verbose()
	c.Assert(l.Enabled(nil, slog.LevelDebug), qt.IsTrue)
}

func TestDefaultDisablesDebugLevel(t *testing.T) {
	c := qt.New(t)
	l := rlog.Default()
	c.Assert(l.Enabled(nil, slog.LevelDebug), qt.IsFalse)
	c.Assert(l.Enabled(nil, slog.LevelInfo), qt.IsTrue)
}

func TestOrDefaultPassesThroughNonNil(t *testing.T) {
	c := qt.New(t)
	custom := rlog.Verbose()
	c.Assert(rlog.OrDefault(custom), qt.Equals, custom)
}

func TestOrDefaultFallsBackOnNil(t *testing.T) {
	c := qt.New(t)
	c.Assert(rlog.OrDefault(nil), qt.Not(qt.IsNil))
}
