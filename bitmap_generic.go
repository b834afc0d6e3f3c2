// Copyright 2025 The nativeclipboard Authors
// SPDX-License-Identifier: MIT

//go:build !windows

package nativeclipboard

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/winkit/nativeclipboard/internal/dib"
)

// writeBitmap hands the pixels to the backend as PNG, the image format the
// pasteboard and X11 selections carry.
func writeBitmap(width, height int, pixels []byte) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, dib.FromRGBA(width, height, pixels)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	_, err := write(Image, buf.Bytes())
	return err
}
