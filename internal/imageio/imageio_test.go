package imageio

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestEncodeDecode(t *testing.T) {
	img := solid(4, 3, color.RGBA{255, 0, 0, 255})
	for _, format := range []string{"png", "bmp", "jpeg", "JPG"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, img, format))

			got, name, err := Decode(&buf)
			require.NoError(t, err)
			assert.NotEmpty(t, name)
			assert.Equal(t, img.Bounds(), got.Bounds())
		})
	}
}

func TestEncodeUnknown(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, solid(1, 1, color.Black), "tiff")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecodeGarbage(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "png", FormatFromPath("out"))
	assert.Equal(t, "bmp", FormatFromPath("/tmp/shot.BMP"))
	assert.Equal(t, "jpg", FormatFromPath("a.b/c.jpg"))
}
