// Package nativeclipboard gives a windowing layer access to the native
// system clipboard for text and bitmap images. It calls the platform APIs
// directly (Win32 on Windows, purego bindings to AppKit and Xlib elsewhere)
// instead of going through cgo.
//
// Each operation opens the clipboard, performs one read or write and closes
// it again:
//
//	// Write text to clipboard
//	changed, err := nativeclipboard.Text.Write([]byte("hello world"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Read text from clipboard
//	data, err := nativeclipboard.Text.Read()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(string(data))
//
// Windowing code that does not want to deal with errors can use
// GetString, SetString, GetImage and SetImage, which log failures and fall
// back to an empty result.
//
// Text is exchanged as UTF-8 and images as PNG.
package nativeclipboard

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrUnavailable indicates the clipboard is not available
	ErrUnavailable = errors.New("clipboard unavailable")
	// ErrUnsupported indicates the requested format is not supported
	ErrUnsupported = errors.New("unsupported format")
	// ErrUnsupportedPlatform indicates the platform does not support clipboard operations
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrInvalidImage indicates a pixel buffer that does not match its dimensions
	ErrInvalidImage = errors.New("invalid image")
)

// Format represents a clipboard data format.
type Format int

// Supported clipboard formats
const (
	// Text provides access to text clipboard operations.
	Text Format = iota
	// Image provides access to image (PNG) clipboard operations.
	Image
)

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case Image:
		return "image"
	default:
		return "unknown"
	}
}

var (
	// The system clipboard is a single shared resource and most platforms
	// refuse concurrent opens, so every operation holds this lock.
	lock      = sync.Mutex{}
	initError error
)

func init() {
	initError = initialize()
}

// Read reads clipboard data in this format.
// Returns an error if the clipboard is unavailable or initialization failed.
func (f Format) Read() ([]byte, error) {
	if initError != nil {
		return nil, initError
	}

	lock.Lock()
	defer lock.Unlock()

	return read(f)
}

// Write writes data to the clipboard in this format. An empty buffer
// leaves the clipboard empty.
// Returns a channel that receives a signal when the clipboard content
// has been overwritten by another application, and an error if the operation fails.
func (f Format) Write(buf []byte) (<-chan struct{}, error) {
	if initError != nil {
		return nil, initError
	}

	lock.Lock()
	defer lock.Unlock()

	return write(f, buf)
}

// Watch returns a channel that receives clipboard data whenever it changes.
// The clipboard is polled at Config.PollInterval.
// The channel will be closed when the provided context is canceled.
func (f Format) Watch(ctx context.Context) (<-chan []byte, error) {
	if initError != nil {
		return nil, initError
	}
	return watch(ctx, f), nil
}

// readLocked is read for the polling goroutines, which run outside any
// public call.
func readLocked(f Format) ([]byte, error) {
	lock.Lock()
	defer lock.Unlock()
	return read(f)
}
