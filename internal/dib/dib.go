// Copyright 2025 The nativeclipboard Authors
// SPDX-License-Identifier: MIT

// Package dib implements the in-memory layout of Windows device-independent
// bitmaps as they travel through the clipboard (CF_DIB and CF_DIBV5): a
// BITMAPINFOHEADER or BITMAPV5HEADER, an optional colour table or bit
// masks, and bottom-up pixel rows padded to 32 bits.
package dib

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/bmp"
)

// Compression values.
const (
	BIRGB       = 0
	BIBitfields = 3
)

const (
	// InfoHeaderSize is the size of a BITMAPINFOHEADER.
	InfoHeaderSize = 40
	// V5HeaderSize is the size of a BITMAPV5HEADER.
	V5HeaderSize = 124

	// MaxDimension bounds the width and height of a bitmap this package
	// reads or writes.
	MaxDimension = 1 << 16

	fileHeaderSize = 14
	rgbQuadSize    = 4

	lcsSRGB     = 0x73524742
	lcsGMImages = 4
)

// ErrFormat is returned for data that is not a packed DIB.
var ErrFormat = errors.New("dib: invalid bitmap")

// InfoHeader mirrors BITMAPINFOHEADER.
type InfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// V5Header mirrors BITMAPV5HEADER.
type V5Header struct {
	InfoHeader
	RedMask     uint32
	GreenMask   uint32
	BlueMask    uint32
	AlphaMask   uint32
	CSType      uint32
	Endpoints   [9]int32
	GammaRed    uint32
	GammaGreen  uint32
	GammaBlue   uint32
	Intent      uint32
	ProfileData uint32
	ProfileSize uint32
	Reserved    uint32
}

// NewInfoHeader returns a BI_RGB header for a bottom-up bitmap of the given
// size. The bit count is normalised and SizeImage is filled in.
func NewInfoHeader(width, height, bitCount int) InfoHeader {
	h := InfoHeader{
		Size:        InfoHeaderSize,
		Width:       int32(width),
		Height:      int32(height),
		Planes:      1,
		BitCount:    uint16(NormalizeBitCount(bitCount)),
		Compression: BIRGB,
	}
	h.FillSizeImage()
	return h
}

// NormalizeBitCount maps a device bit depth onto a depth a DIB can carry.
// Anything deeper than 8 bits per pixel becomes 24.
func NormalizeBitCount(n int) int {
	switch {
	case n <= 1:
		return 1
	case n <= 4:
		return 4
	case n <= 8:
		return 8
	default:
		return 24
	}
}

// ColorTableLen returns the size in bytes of the colour table that follows
// the header for the given depth.
func ColorTableLen(bitCount int) int {
	if bitCount <= 8 {
		return (1 << bitCount) * rgbQuadSize
	}
	return 0
}

// Stride returns the length of one scan line, aligned on a DWORD boundary.
func Stride(width, bitCount int) int {
	return ((width*bitCount + 31) &^ 31) / 8
}

// FillSizeImage computes SizeImage if the driver left it zero.
func (h *InfoHeader) FillSizeImage() {
	if h.SizeImage != 0 {
		return
	}
	h.SizeImage = uint32(Stride(int(h.Width), int(h.BitCount)) * abs(int(h.Height)))
}

// TotalSize is the number of bytes a packed DIB with this header occupies.
func (h *InfoHeader) TotalSize() int {
	hh := *h
	hh.FillSizeImage()
	return int(hh.Size) + ColorTableLen(int(hh.BitCount)) + int(hh.SizeImage)
}

// Bytes returns the little-endian encoding of the header.
func (h *InfoHeader) Bytes() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, h)
	return buf.Bytes()
}

// Bytes returns the little-endian encoding of the header.
func (h *V5Header) Bytes() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, h)
	return buf.Bytes()
}

// SwapRB returns a copy of an RGBA buffer with the red and blue channels
// exchanged, which turns RGBA into the BGRA order GDI expects and back.
func SwapRB(pixels []byte) []byte {
	out := make([]byte, len(pixels)&^3)
	for i := 0; i+3 < len(pixels); i += 4 {
		out[i+0] = pixels[i+2]
		out[i+1] = pixels[i+1]
		out[i+2] = pixels[i+0]
		out[i+3] = pixels[i+3]
	}
	return out
}

// PackV5 encodes img as a 32-bit CF_DIBV5 bitmap that keeps its alpha.
func PackV5(img image.Image) []byte {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	hdr := V5Header{
		InfoHeader: InfoHeader{
			Size:        V5HeaderSize,
			Width:       int32(w),
			Height:      int32(h),
			Planes:      1,
			BitCount:    32,
			Compression: BIBitfields,
		},
		RedMask:   0x00ff0000,
		GreenMask: 0x0000ff00,
		BlueMask:  0x000000ff,
		AlphaMask: 0xff000000,
		CSType:    lcsSRGB,
		Intent:    lcsGMImages,
	}
	hdr.FillSizeImage()

	out := make([]byte, 0, V5HeaderSize+int(hdr.SizeImage))
	out = append(out, hdr.Bytes()...)
	out = append(out, packRows(src)...)
	return out
}

// packRows writes src bottom-up as BGRA rows.
func packRows(src *image.NRGBA) []byte {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	stride := 4 * w
	data := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		row := data[(h-1-y)*stride:]
		line := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			p := line[4*x:]
			d := row[4*x:]
			d[0], d[1], d[2], d[3] = p[2], p[1], p[0], p[3]
		}
	}
	return data
}

// Unpack decodes a packed DIB, as found in CF_DIB or CF_DIBV5 clipboard
// memory, into an image. 24 and 32 bit BI_RGB/BI_BITFIELDS bitmaps are
// decoded directly, anything else goes through golang.org/x/image/bmp.
func Unpack(b []byte) (image.Image, error) {
	if len(b) < InfoHeaderSize {
		return nil, ErrFormat
	}
	var hdr InfoHeader
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if hdr.Size < InfoHeaderSize || int(hdr.Size) > len(b) || hdr.Width <= 0 || hdr.Height == 0 {
		return nil, ErrFormat
	}
	if hdr.Width > MaxDimension || hdr.Height > MaxDimension || hdr.Height < -MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d bitmap is too large", ErrFormat, hdr.Width, hdr.Height)
	}

	offset := int(hdr.Size)
	masks := [4]uint32{0x00ff0000, 0x0000ff00, 0x000000ff, 0}
	if hdr.Compression == BIBitfields {
		if hdr.Size == InfoHeaderSize {
			if len(b) < offset+12 {
				return nil, ErrFormat
			}
			for i := 0; i < 3; i++ {
				masks[i] = binary.LittleEndian.Uint32(b[offset+4*i:])
			}
			offset += 12
		} else {
			n := min(int(hdr.Size-InfoHeaderSize)/4, 4)
			for i := 0; i < n; i++ {
				masks[i] = binary.LittleEndian.Uint32(b[InfoHeaderSize+4*i:])
			}
		}
	} else if hdr.Size >= InfoHeaderSize+16 {
		masks[3] = binary.LittleEndian.Uint32(b[InfoHeaderSize+12:])
	}

	standard := masks[0] == 0x00ff0000 && masks[1] == 0x0000ff00 && masks[2] == 0x000000ff
	direct := (hdr.BitCount == 24 && hdr.Compression == BIRGB) ||
		(hdr.BitCount == 32 && (hdr.Compression == BIRGB || hdr.Compression == BIBitfields && standard))
	if !direct {
		return unpackBMP(b, &hdr)
	}

	w, h := int(hdr.Width), abs(int(hdr.Height))
	bpp := int(hdr.BitCount) / 8
	stride := Stride(w, int(hdr.BitCount))
	need := uint64(offset) + uint64(hdr.ClrUsed)*rgbQuadSize + uint64(stride)*uint64(h)
	if need > uint64(len(b)) {
		return nil, fmt.Errorf("%w: short pixel data", ErrFormat)
	}
	offset += int(hdr.ClrUsed) * rgbQuadSize
	pix := b[offset:]
	topDown := hdr.Height < 0
	useAlpha := bpp == 4 && (masks[3] != 0 || hasAlpha(pix, w, h, stride))

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := h - 1 - y
		if topDown {
			sy = y
		}
		row := pix[sy*stride:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			s := row[bpp*x:]
			d := dst[4*x:]
			d[0], d[1], d[2], d[3] = s[2], s[1], s[0], 0xff
			if useAlpha {
				d[3] = s[3]
			}
		}
	}
	return img, nil
}

// unpackBMP prefixes a BITMAPFILEHEADER so the bmp decoder can read the
// bitmap.
func unpackBMP(b []byte, hdr *InfoHeader) (image.Image, error) {
	colors := int(hdr.ClrUsed)
	if colors == 0 && hdr.BitCount <= 8 {
		colors = 1 << hdr.BitCount
	}
	pixOffset := fileHeaderSize + int(hdr.Size) + colors*rgbQuadSize
	if hdr.Compression == BIBitfields && hdr.Size == InfoHeaderSize {
		pixOffset += 12
	}

	var buf bytes.Buffer
	buf.Grow(fileHeaderSize + len(b))
	_ = binary.Write(&buf, binary.LittleEndian, uint16('B')|uint16('M')<<8)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(fileHeaderSize+len(b)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(pixOffset))
	buf.Write(b)

	img, err := bmp.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return img, nil
}

// hasAlpha reports whether any pixel in a 32-bit BI_RGB bitmap carries a
// non-zero alpha byte. Producers that ignore alpha leave it zeroed.
func hasAlpha(pix []byte, w, h, stride int) bool {
	for y := 0; y < h; y++ {
		row := pix[y*stride:]
		for x := 0; x < w; x++ {
			if row[4*x+3] != 0 {
				return true
			}
		}
	}
	return false
}

// FromRGBA wraps a top-down RGBA pixel buffer in an image without copying.
func FromRGBA(width, height int, pixels []byte) *image.NRGBA {
	return &image.NRGBA{
		Pix:    pixels,
		Stride: 4 * width,
		Rect:   image.Rect(0, 0, width, height),
	}
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Rect, img, b.Min, draw.Src)
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
