package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int, alpha uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 80, A: alpha})
		}
	}
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "in.png")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestLoadPNG(t *testing.T) {
	path := writePNG(t, gradient(17, 9, 255))

	img, info, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 17, img.Bounds().Dx())
	assert.Equal(t, 9, img.Bounds().Dy())
	assert.Equal(t, "png", info.Format)
	assert.True(t, info.SRGB)
	assert.False(t, info.HasAlpha)
}

func TestLoadDetectsAlpha(t *testing.T) {
	path := writePNG(t, gradient(8, 8, 100))

	_, info, err := Load(path)
	require.NoError(t, err)
	assert.True(t, info.HasAlpha)
}

func TestLoadErrors(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, _, err = Load(bad)
	assert.Error(t, err)
}

func TestColorSpace16Bit(t *testing.T) {
	img := image.NewRGBA64(image.Rect(0, 0, 2, 2))
	srgb, alpha := ColorSpace(img)
	assert.False(t, srgb)
	assert.True(t, alpha)
}

func TestResizeStretches(t *testing.T) {
	src := gradient(64, 32, 255)

	out, err := Resize(src, 10, 30)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 30), out.Bounds())

	_, err = Resize(src, 0, 4)
	assert.Error(t, err)
}

func TestPackLayouts(t *testing.T) {
	src := gradient(3, 2, 77)

	rgba := PackRGBA(src)
	require.Len(t, rgba, 3*2*4)
	assert.Equal(t, src.Pix, rgba)

	rgb := PackRGB(src)
	require.Len(t, rgb, 3*2*3)
	assert.Equal(t, src.Pix[4:7], rgb[3:6])

	back := FromRGB(rgb, 3, 2)
	assert.Equal(t, uint8(0xff), back.Pix[3])
	assert.Equal(t, src.Pix[0:3], back.Pix[0:3])

	wrapped := FromRGBA(rgba, 3, 2)
	assert.Equal(t, src.NRGBAAt(2, 1), wrapped.NRGBAAt(2, 1))
}

func TestToNRGBAOffsetImage(t *testing.T) {
	src := gradient(8, 8, 255).SubImage(image.Rect(2, 2, 6, 5))

	out := ToNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 4, 3), out.Bounds())
	assert.Equal(t, src.At(2, 2), out.At(0, 0))
}
