// Package imaging loads, resizes and repacks source images for toktx.
package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrEmptyImage indicates a source image without pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Info describes the colour properties detected on load.
type Info struct {
	Format   string
	SRGB     bool
	HasAlpha bool
}

// Load decodes the image file at path into NRGBA pixels.
func Load(path string) (*image.NRGBA, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, errors.Wrapf(err, "open image %q", path)
	}
	defer func() { _ = f.Close() }()

	img, info, err := Decode(f)
	if err != nil {
		return nil, Info{}, errors.Wrapf(err, "load %q", path)
	}

	return img, info, nil
}

// Decode reads any registered image format (PNG, JPEG, GIF, BMP, TIFF, WEBP).
func Decode(r io.Reader) (*image.NRGBA, Info, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, Info{}, errors.Wrap(err, "decode image")
	}
	if src.Bounds().Empty() {
		return nil, Info{}, ErrEmptyImage
	}

	srgb, alpha := ColorSpace(src)
	return ToNRGBA(src), Info{Format: format, SRGB: srgb, HasAlpha: alpha}, nil
}

// ColorSpace reports whether img should be tagged sRGB and whether it carries
// meaningful alpha.
//
// Go decoders drop gAMA and ICC data, so 8-bit sources are taken as sRGB and
// 16-bit sources as linear.
func ColorSpace(img image.Image) (srgb, hasAlpha bool) {
	switch img.ColorModel() {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model, color.Alpha16Model:
		srgb = false
	default:
		srgb = true
	}

	if o, ok := img.(interface{ Opaque() bool }); ok {
		return srgb, !o.Opaque()
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return srgb, true
			}
		}
	}

	return srgb, false
}

// ToNRGBA returns img as a zero-origin, tightly packed NRGBA image.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Resize stretches img to exactly width x height; aspect ratio is not kept.
func Resize(img image.Image, width, height int) (*image.NRGBA, error) {
	if width < 1 || height < 1 {
		return nil, errors.Errorf("invalid resize target %dx%d", width, height)
	}

	// #nosec G115 -- bounds checked above.
	out := resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
	return ToNRGBA(out), nil
}

// PackRGBA returns the tightly packed RGBA bytes of img.
func PackRGBA(img *image.NRGBA) []byte {
	img = ToNRGBA(img)
	out := make([]byte, len(img.Pix))
	copy(out, img.Pix)
	return out
}

// PackRGB returns the tightly packed RGB bytes of img, dropping alpha.
func PackRGB(img *image.NRGBA) []byte {
	img = ToNRGBA(img)
	n := img.Rect.Dx() * img.Rect.Dy()
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		copy(out[i*3:i*3+3], img.Pix[i*4:i*4+3])
	}
	return out
}

// FromRGBA wraps tightly packed RGBA bytes without copying.
func FromRGBA(pix []byte, width, height int) *image.NRGBA {
	return &image.NRGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
}

// FromRGB expands tightly packed RGB bytes into an opaque NRGBA image.
func FromRGB(pix []byte, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	n := width * height
	for i := 0; i < n; i++ {
		copy(img.Pix[i*4:i*4+3], pix[i*3:i*3+3])
		img.Pix[i*4+3] = 0xff
	}
	return img
}
