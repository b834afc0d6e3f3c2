//go:build (linux && !android) || freebsd

package nativeclipboard

import (
	"errors"
	"testing"
	"time"
)

func TestCheckPropertyTypeRejectsIncr(t *testing.T) {
	const incr, utf8 = xAtom(300), xAtom(301)

	if err := checkPropertyType(utf8, incr); err != nil {
		t.Fatalf("Expected no error for a plain reply, got %v", err)
	}
	if err := checkPropertyType(incr, incr); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Expected ErrUnsupported for INCR, got %v", err)
	}
}

func TestWaitForTimesOut(t *testing.T) {
	calls := 0
	start := time.Now()
	ok := waitFor(30*time.Millisecond, time.Millisecond, func() bool {
		calls++
		return false
	})
	if ok {
		t.Fatal("Expected waitFor to give up")
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("Gave up after %s, before the timeout", elapsed)
	}
	if calls < 2 {
		t.Fatalf("Expected repeated polling, got %d calls", calls)
	}
}

func TestWaitForReady(t *testing.T) {
	calls := 0
	ok := waitFor(time.Second, time.Millisecond, func() bool {
		calls++
		return calls == 3
	})
	if !ok || calls != 3 {
		t.Fatalf("Expected success on the third poll, got ok=%v after %d calls", ok, calls)
	}
}
