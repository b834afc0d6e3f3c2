package nativeclipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"go.uber.org/zap"

	"github.com/winkit/nativeclipboard/internal/dib"
)

// GetString returns the text currently on the clipboard. Failures are
// logged and yield an empty string.
func GetString() string {
	data, err := Text.Read()
	if err != nil {
		logFailure("failed to get the clipboard text", err, zap.Stringer("format", Text))
		return ""
	}
	return string(data)
}

// SetString puts s on the clipboard. Failures are logged.
func SetString(s string) {
	if _, err := Text.Write([]byte(s)); err != nil {
		logFailure("failed to set the clipboard text", err, zap.Stringer("format", Text))
	}
}

// GetImage returns the image currently on the clipboard, or nil if there is
// none or it cannot be decoded.
func GetImage() image.Image {
	data, err := Image.Read()
	if err != nil {
		logFailure("failed to get the clipboard image", err, zap.Stringer("format", Image))
		return nil
	}
	if len(data) == 0 {
		return nil
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		logFailure("failed to decode the clipboard image", err, zap.Int("size", len(data)))
		return nil
	}
	return img
}

// SetImage puts a bitmap on the clipboard. pixels holds width*height
// top-down RGBA pixels. Failures are logged.
func SetImage(width, height uint, pixels []byte) {
	if err := writeImagePixels(width, height, pixels); err != nil {
		logFailure("failed to set the clipboard image", err,
			zap.Uint("width", width), zap.Uint("height", height))
	}
}

func writeImagePixels(width, height uint, pixels []byte) error {
	if err := checkPixels(width, height, pixels); err != nil {
		return err
	}
	if initError != nil {
		return initError
	}

	lock.Lock()
	defer lock.Unlock()

	return writeBitmap(int(width), int(height), pixels[:width*height*4])
}

func checkPixels(width, height uint, pixels []byte) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: empty %dx%d image", ErrInvalidImage, width, height)
	}
	if width > dib.MaxDimension || height > dib.MaxDimension {
		return fmt.Errorf("%w: %dx%d image is too large", ErrInvalidImage, width, height)
	}
	if need := uint64(width) * uint64(height) * 4; uint64(len(pixels)) < need {
		return fmt.Errorf("%w: need %d bytes of pixels, got %d", ErrInvalidImage, need, len(pixels))
	}
	return nil
}

func logFailure(msg string, err error, fields ...zap.Field) {
	l := log()
	if errors.Is(err, ErrUnavailable) {
		l.Warn(msg, append(fields, zap.Error(err))...)
		return
	}
	l.Error(msg, append(fields, zap.Error(err))...)
}
