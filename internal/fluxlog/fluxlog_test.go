package fluxlog

import "testing"

func TestDebugfRespectsSetDebug(t *testing.T) {
	l := New("test", false)
	if l.DebugEnabled() {
		t.Fatalf("expected debug disabled by default")
	}
	l.SetDebug(true)
	if !l.DebugEnabled() {
		t.Fatalf("expected debug enabled after SetDebug(true)")
	}
}

func TestNopLoggerNeverPanics(t *testing.T) {
	l := NewNop()
	l.Debugf("x=%d", 1)
	l.Infof("hello")
	l.Warnf("careful")
	l.Errorf("boom")
	l.SetDebug(true)
	if l.DebugEnabled() {
		t.Errorf("nop logger should report debug disabled regardless of SetDebug")
	}
}
