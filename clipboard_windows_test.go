//go:build windows

package nativeclipboard

import (
	"errors"
	"testing"
	"time"
)

func TestSetImageConversionFailureLeavesClipboardEmpty(t *testing.T) {
	requireClipboard(t)
	logs := observeLogs(t)

	SetString("left over")
	time.Sleep(100 * time.Millisecond)

	prev := convertDIB
	convertDIB = func(int, int, []byte) (uintptr, error) {
		return 0, errors.New("no screen dc")
	}
	defer func() { convertDIB = prev }()

	SetImage(1, 1, []byte{255, 0, 0, 255})

	if n := logs.FilterMessage("failed to set the clipboard image").Len(); n != 1 {
		t.Fatalf("Expected one logged failure, got %d", n)
	}
	if data, err := Text.Read(); err == nil && len(data) > 0 {
		t.Fatalf("Expected empty clipboard, got text %q", data)
	}
	if data, err := Image.Read(); err == nil && len(data) > 0 {
		t.Fatalf("Expected empty clipboard, got %d bytes of image", len(data))
	}
}

func TestSetImagePublishesBothBitmapFormats(t *testing.T) {
	requireClipboard(t)
	SetImage(1, 1, []byte{0, 255, 0, 128})
	time.Sleep(100 * time.Millisecond)

	if !formatAvailable(cfDIB) {
		t.Fatal("CF_DIB not on the clipboard")
	}
	if !formatAvailable(cfDIBV5) {
		t.Fatal("CF_DIBV5 not on the clipboard")
	}
}
