package chat

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	a := NewID("msg")
	b := NewID("msg")

	if !strings.HasPrefix(a, "msg_") {
		t.Errorf("NewID = %q, want msg_ prefix", a)
	}
	if len(a) != len("msg_")+26 {
		t.Errorf("len(NewID) = %d, want %d", len(a), len("msg_")+26)
	}
	if a == b {
		t.Errorf("NewID returned duplicate %q", a)
	}
	if a != strings.ToLower(a) {
		t.Errorf("NewID = %q, want lowercase", a)
	}
}
