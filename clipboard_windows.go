// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build windows

package nativeclipboard

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"runtime"
	"time"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/winkit/nativeclipboard/internal/dib"
)

// Windows clipboard format constants
const (
	cfUnicodeText = 13
	cfDIB         = 8
	cfDIBV5       = 17
	gmemMoveable  = 0x0002
)

// Windows API functions
var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	openClipboard              = user32.NewProc("OpenClipboard")
	closeClipboard             = user32.NewProc("CloseClipboard")
	emptyClipboard             = user32.NewProc("EmptyClipboard")
	getClipboardData           = user32.NewProc("GetClipboardData")
	setClipboardData           = user32.NewProc("SetClipboardData")
	isClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")
	getClipboardSequenceNumber = user32.NewProc("GetClipboardSequenceNumber")

	gLock   = kernel32.NewProc("GlobalLock")
	gUnlock = kernel32.NewProc("GlobalUnlock")
	gAlloc  = kernel32.NewProc("GlobalAlloc")
	gFree   = kernel32.NewProc("GlobalFree")
	gSize   = kernel32.NewProc("GlobalSize")
)

func initialize() error {
	if err := user32.Load(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := kernel32.Load(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// withClipboard opens the clipboard on a locked OS thread, runs fn and
// closes the clipboard again whatever fn returns.
func withClipboard(fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var lastErr error
	opened := false
	for i := 0; i < config.OpenRetries; i++ {
		r, _, err := openClipboard.Call(0)
		if r != 0 {
			opened = true
			break
		}
		lastErr = err
		time.Sleep(config.RetryDelay)
	}
	if !opened {
		log().Error("failed to open the clipboard", zap.Error(lastErr))
		return fmt.Errorf("%w: open clipboard: %v", ErrUnavailable, lastErr)
	}
	defer closeClipboard.Call()

	return fn()
}

func formatAvailable(cf uintptr) bool {
	r, _, _ := isClipboardFormatAvailable.Call(cf)
	return r != 0
}

func read(t Format) ([]byte, error) {
	switch t {
	case Text:
		if !formatAvailable(cfUnicodeText) {
			return nil, fmt.Errorf("%w: no unicode text on the clipboard", ErrUnavailable)
		}
		var data []byte
		err := withClipboard(func() (err error) {
			data, err = readText()
			return err
		})
		return data, err
	case Image:
		if !formatAvailable(cfDIBV5) && !formatAvailable(cfDIB) {
			return nil, fmt.Errorf("%w: no bitmap on the clipboard", ErrUnavailable)
		}
		var data []byte
		err := withClipboard(func() (err error) {
			data, err = readImage()
			return err
		})
		return data, err
	default:
		return nil, ErrUnsupported
	}
}

func readText() ([]byte, error) {
	hMem, _, err := getClipboardData.Call(cfUnicodeText)
	if hMem == 0 {
		return nil, fmt.Errorf("%w: get clipboard data: %v", ErrUnavailable, err)
	}

	p, _, err := gLock.Call(hMem)
	if p == 0 {
		return nil, fmt.Errorf("%w: lock clipboard data: %v", ErrUnavailable, err)
	}
	defer gUnlock.Call(hMem)

	return []byte(windows.UTF16PtrToString((*uint16)(unsafe.Pointer(p)))), nil
}

// readImage prefers CF_DIBV5, which carries alpha, and falls back to
// CF_DIB. The bitmap is returned as PNG.
func readImage() ([]byte, error) {
	var img image.Image
	var err error
	for _, cf := range []uintptr{cfDIBV5, cfDIB} {
		var b []byte
		b, err = copyGlobal(cf)
		if err != nil {
			continue
		}
		img, err = dib.Unpack(b)
		if err == nil {
			break
		}
		log().Debug("unreadable clipboard bitmap", zap.Uintptr("format", cf), zap.Error(err))
	}
	if img == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// copyGlobal copies the global memory block behind a clipboard format into
// Go memory.
func copyGlobal(cf uintptr) ([]byte, error) {
	hMem, _, err := getClipboardData.Call(cf)
	if hMem == 0 {
		return nil, fmt.Errorf("get clipboard data: %w", err)
	}
	size, _, err := gSize.Call(hMem)
	if size == 0 {
		return nil, fmt.Errorf("global size: %w", err)
	}
	p, _, err := gLock.Call(hMem)
	if p == 0 {
		return nil, fmt.Errorf("lock clipboard data: %w", err)
	}
	defer gUnlock.Call(hMem)

	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(p)), size))
	return out, nil
}

// allocGlobal copies data into a new movable global memory block.
func allocGlobal(data []byte) (uintptr, error) {
	hMem, _, err := gAlloc.Call(gmemMoveable, uintptr(len(data)))
	if hMem == 0 {
		return 0, fmt.Errorf("alloc global memory: %w", err)
	}
	p, _, err := gLock.Call(hMem)
	if p == 0 {
		gFree.Call(hMem)
		return 0, fmt.Errorf("lock global memory: %w", err)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), len(data)), data)
	gUnlock.Call(hMem)
	return hMem, nil
}

// setGlobal hands hMem to the clipboard. On failure the block is freed
// since ownership did not transfer.
func setGlobal(cf, hMem uintptr) error {
	if r, _, err := setClipboardData.Call(cf, hMem); r == 0 {
		gFree.Call(hMem)
		return fmt.Errorf("set clipboard data: %w", err)
	}
	return nil
}

func empty() error {
	if r, _, err := emptyClipboard.Call(); r == 0 {
		log().Error("failed to empty the clipboard", zap.Error(err))
		return fmt.Errorf("empty clipboard: %w", err)
	}
	return nil
}

func write(t Format, buf []byte) (<-chan struct{}, error) {
	var err error
	switch t {
	case Text:
		err = withClipboard(func() error { return writeText(buf) })
	case Image:
		err = writeImage(buf)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	return notifyChange(), nil
}

func writeText(buf []byte) error {
	if err := empty(); err != nil {
		return err
	}
	if len(buf) == 0 {
		return nil
	}

	s, err := windows.UTF16FromString(string(buf))
	if err != nil {
		return fmt.Errorf("failed to convert string: %w", err)
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*2)
	hMem, err := allocGlobal(data)
	if err != nil {
		return err
	}
	return setGlobal(cfUnicodeText, hMem)
}

// writeImage decodes PNG data and places it on the clipboard as a bitmap.
func writeImage(buf []byte) error {
	if len(buf) == 0 {
		return withClipboard(empty)
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("input is not PNG: %w", err)
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Rect, img, b.Min, draw.Src)
	return writeBitmap(b.Dx(), b.Dy(), n.Pix)
}

// convertDIB turns top-down RGBA pixels into a CF_DIB global memory block.
var convertDIB = gdiDIB

// writeBitmap places top-down RGBA pixels on the clipboard as CF_DIB,
// converted through GDI, and as CF_DIBV5 so the alpha channel survives.
// If the conversion fails the clipboard is left empty.
func writeBitmap(width, height int, pixels []byte) error {
	return withClipboard(func() error {
		if err := empty(); err != nil {
			return err
		}

		hDIB, err := convertDIB(width, height, pixels)
		if err != nil {
			return fmt.Errorf("convert bitmap: %w", err)
		}
		if err := setGlobal(cfDIB, hDIB); err != nil {
			return err
		}

		// CF_DIB is already on the clipboard; without CF_DIBV5 only alpha
		// is lost.
		hV5, err := allocGlobal(dib.PackV5(dib.FromRGBA(width, height, pixels)))
		if err == nil {
			err = setGlobal(cfDIBV5, hV5)
		}
		if err != nil {
			log().Debug("failed to set CF_DIBV5", zap.Error(err))
		}
		return nil
	})
}

// notifyChange returns a channel that fires once the clipboard sequence
// number moves past its current value.
func notifyChange() <-chan struct{} {
	changed := make(chan struct{}, 1)
	cnt, _, _ := getClipboardSequenceNumber.Call()
	interval := config.PollInterval

	go func() {
		for {
			time.Sleep(interval)
			cur, _, _ := getClipboardSequenceNumber.Call()
			if cur != cnt {
				changed <- struct{}{}
				close(changed)
				return
			}
		}
	}()
	return changed
}

func watch(ctx context.Context, t Format) <-chan []byte {
	recv := make(chan []byte, 1)
	interval := CurrentConfig().PollInterval
	cnt, _, _ := getClipboardSequenceNumber.Call()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				close(recv)
				return
			case <-ticker.C:
				cur, _, _ := getClipboardSequenceNumber.Call()
				if cnt == cur {
					continue
				}
				cnt = cur
				b, err := readLocked(t)
				if err != nil || b == nil {
					continue
				}
				select {
				case recv <- b:
				case <-ctx.Done():
					close(recv)
					return
				}
			}
		}
	}()

	return recv
}
