// Copyright 2025 The nativeclipboard Authors
// SPDX-License-Identifier: MIT

//go:build windows

package nativeclipboard

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/winkit/nativeclipboard/internal/dib"
)

const (
	defaultPalette = 15
	dibRGBColors   = 0
)

var (
	gdi32 = windows.NewLazySystemDLL("gdi32.dll")

	createBitmap   = gdi32.NewProc("CreateBitmap")
	deleteObject   = gdi32.NewProc("DeleteObject")
	getObject      = gdi32.NewProc("GetObjectW")
	getStockObject = gdi32.NewProc("GetStockObject")
	getDIBits      = gdi32.NewProc("GetDIBits")
	selectPalette  = gdi32.NewProc("SelectPalette")
	realizePalette = gdi32.NewProc("RealizePalette")

	getDC     = user32.NewProc("GetDC")
	releaseDC = user32.NewProc("ReleaseDC")
)

// bitmap is the GDI BITMAP structure.
type bitmap struct {
	Type       int32
	Width      int32
	Height     int32
	WidthBytes int32
	Planes     uint16
	BitsPixel  uint16
	Bits       uintptr
}

// gdiDIB builds a CF_DIB global memory block from top-down RGBA pixels.
// The pixels are turned into a device-dependent bitmap and read back with
// GetDIBits against the screen DC, so the result is in whatever layout the
// display driver produces.
func gdiDIB(width, height int, pixels []byte) (uintptr, error) {
	if err := gdi32.Load(); err != nil {
		return 0, err
	}
	swapped := dib.SwapRB(pixels)

	hBM, _, err := createBitmap.Call(uintptr(width), uintptr(height), 1, 32, uintptr(unsafe.Pointer(&swapped[0])))
	if hBM == 0 {
		return 0, fmt.Errorf("create bitmap: %w", err)
	}
	defer deleteObject.Call(hBM)

	var bm bitmap
	if r, _, err := getObject.Call(hBM, unsafe.Sizeof(bm), uintptr(unsafe.Pointer(&bm))); r == 0 {
		return 0, fmt.Errorf("get bitmap object: %w", err)
	}

	bi := dib.InfoHeader{
		Size:        dib.InfoHeaderSize,
		Width:       bm.Width,
		Height:      bm.Height,
		Planes:      1,
		BitCount:    uint16(dib.NormalizeBitCount(int(bm.BitsPixel))),
		Compression: dib.BIRGB,
	}
	colorTable := dib.ColorTableLen(int(bi.BitCount))

	hDC, _, err := getDC.Call(0)
	if hDC == 0 {
		return 0, fmt.Errorf("get screen dc: %w", err)
	}
	defer releaseDC.Call(0, hDC)

	hPal, _, _ := getStockObject.Call(defaultPalette)
	hOldPal, _, _ := selectPalette.Call(hDC, hPal, 0)
	defer selectPalette.Call(hDC, hOldPal, 0)
	realizePalette.Call(hDC)

	// With no bits buffer GetDIBits only fills in the header. The info
	// buffer must have room for the colour table.
	info := make([]byte, dib.InfoHeaderSize+colorTable)
	copy(info, bi.Bytes())
	getDIBits.Call(hDC, hBM, 0, uintptr(bi.Height), 0, uintptr(unsafe.Pointer(&info[0])), dibRGBColors)
	bi.SizeImage = binary.LittleEndian.Uint32(info[20:])
	bi.FillSizeImage()

	total := dib.InfoHeaderSize + colorTable + int(bi.SizeImage)
	hDIB, _, err := gAlloc.Call(gmemMoveable, uintptr(total))
	if hDIB == 0 {
		return 0, fmt.Errorf("alloc global memory: %w", err)
	}
	p, _, err := gLock.Call(hDIB)
	if p == 0 {
		gFree.Call(hDIB)
		return 0, fmt.Errorf("lock global memory: %w", err)
	}

	copy(unsafe.Slice((*byte)(unsafe.Pointer(p)), dib.InfoHeaderSize), bi.Bytes())
	n, _, _ := getDIBits.Call(hDC, hBM, 0, uintptr(bi.Height), p+uintptr(dib.InfoHeaderSize+colorTable), p, dibRGBColors)
	gUnlock.Call(hDIB)
	if n == 0 {
		gFree.Call(hDIB)
		return 0, errors.New("GetDIBits converted no scan lines")
	}
	return hDIB, nil
}
