package toktx

import (
	"image"
	"image/color"
	"testing"
)

// testNRGBA builds a deterministic smooth image with mild high-frequency detail.
func testNRGBA(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(width-1, 1)),          //nolint:gosec // bounded
				G: uint8(y * 255 / max(height-1, 1)),         //nolint:gosec // bounded
				B: uint8(96 + (x^y)&0x0f),                    //nolint:gosec // bounded
				A: uint8(255 - (x*y)%16),                     //nolint:gosec // bounded
			})
		}
	}
	return img
}

// testRaw returns an RGBA raw image of the given size.
func testRaw(t testing.TB, width, height int) *RawImage {
	t.Helper()

	raw, err := NewRawImageFromNRGBA(testNRGBA(width, height), FormatRGBA, true)
	if err != nil {
		t.Fatalf("NewRawImageFromNRGBA: %v", err)
	}
	return raw
}

// testRawRGB returns an RGB raw image of the given size.
func testRawRGB(t testing.TB, width, height int) *RawImage {
	t.Helper()

	raw, err := NewRawImageFromNRGBA(testNRGBA(width, height), FormatRGB, true)
	if err != nil {
		t.Fatalf("NewRawImageFromNRGBA: %v", err)
	}
	return raw
}
