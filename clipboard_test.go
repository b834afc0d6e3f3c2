package nativeclipboard

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

// requireClipboard skips tests that need a real system clipboard, such as
// on a headless CI machine without an X server.
func requireClipboard(t *testing.T) {
	t.Helper()
	if initError != nil {
		t.Skipf("clipboard not available: %v", initError)
	}
}

// createTestPNG creates a simple test PNG image and returns it as PNG-encoded bytes
func createTestPNG(width, height int, c color.Color) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestWriteReadText(t *testing.T) {
	requireClipboard(t)
	testData := []byte("Hello, clipboard!")

	ch, err := Text.Write(testData)
	if err != nil {
		t.Fatalf("Text.Write failed: %v", err)
	}
	if ch == nil {
		t.Fatal("Text.Write returned nil channel")
	}

	time.Sleep(100 * time.Millisecond)

	data, err := Text.Read()
	if err != nil {
		t.Fatalf("Text.Read failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Fatalf("Expected %q, got %q", testData, data)
	}
}

func TestWriteReadUnicodeText(t *testing.T) {
	requireClipboard(t)
	want := "grüße, 世界 🎉"

	SetString(want)
	time.Sleep(100 * time.Millisecond)

	if got := GetString(); got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}

func TestWriteReadImage(t *testing.T) {
	requireClipboard(t)
	testImage, err := createTestPNG(10, 10, color.RGBA{255, 0, 0, 255})
	if err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}

	ch, err := Image.Write(testImage)
	if err != nil {
		t.Fatalf("Image.Write failed: %v", err)
	}
	if ch == nil {
		t.Fatal("Image.Write returned nil channel")
	}

	time.Sleep(100 * time.Millisecond)

	data, err := Image.Read()
	if err != nil {
		t.Fatalf("Image.Read failed: %v", err)
	}
	// Platforms may re-encode the image, so only check that it decodes.
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Image.Read returned invalid PNG data: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Fatalf("Expected 10x10 image, got %v", img.Bounds())
	}
}

func TestSetGetImage(t *testing.T) {
	requireClipboard(t)
	pixels := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}

	SetImage(2, 2, pixels)
	time.Sleep(100 * time.Millisecond)

	img := GetImage()
	if img == nil {
		t.Fatal("GetImage returned nil")
	}
	want := []color.NRGBA{
		{255, 0, 0, 255}, {0, 255, 0, 255},
		{0, 0, 255, 255}, {255, 255, 255, 255},
	}
	for i, c := range want {
		x, y := i%2, i/2
		got := color.NRGBAModel.Convert(img.At(img.Bounds().Min.X+x, img.Bounds().Min.Y+y)).(color.NRGBA)
		if got != c {
			t.Errorf("pixel %d,%d: expected %v, got %v", x, y, c, got)
		}
	}
}

func TestWriteEmptyText(t *testing.T) {
	requireClipboard(t)
	if _, err := Text.Write([]byte{}); err != nil {
		t.Fatalf("Text.Write failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	// Read may return empty, nil, or error (platform dependent)
	data, _ := Text.Read()
	if len(data) > 0 {
		t.Fatalf("Expected empty clipboard, got %q", data)
	}
}

func TestWatchText(t *testing.T) {
	requireClipboard(t)
	prev := CurrentConfig()
	cfg := prev
	cfg.PollInterval = 100 * time.Millisecond
	Configure(cfg)
	defer Configure(prev)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := Text.Watch(ctx)
	if err != nil {
		t.Fatalf("Text.Watch failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	testData := []byte("Watch test")
	if _, err := Text.Write(testData); err != nil {
		t.Fatalf("Text.Write failed: %v", err)
	}

	select {
	case data := <-ch:
		if string(data) != string(testData) {
			t.Fatalf("Expected %q, got %q", testData, data)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for clipboard change")
	}
}

func TestMultipleReads(t *testing.T) {
	requireClipboard(t)
	testData := []byte("Multiple reads test")
	if _, err := Text.Write(testData); err != nil {
		t.Fatalf("Text.Write failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		data, err := Text.Read()
		if err != nil {
			t.Fatalf("Text.Read %d failed: %v", i, err)
		}
		if string(data) != string(testData) {
			t.Fatalf("Text.Read %d: expected %q, got %q", i, testData, data)
		}
	}
}

func TestUnsupportedFormat(t *testing.T) {
	requireClipboard(t)
	if _, err := Format(42).Read(); err != ErrUnsupported {
		t.Fatalf("Expected ErrUnsupported, got %v", err)
	}
}
