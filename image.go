package toktx

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Kind tags the concrete Image variant.
type Kind uint8

const (
	// KindRaw is an uncompressed interleaved pixel buffer.
	KindRaw Kind = iota
	// KindASTC is an ASTC block-compressed buffer.
	KindASTC
	// KindBC is a BCn block-compressed buffer.
	KindBC
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindASTC:
		return "astc"
	case KindBC:
		return "bc"
	default:
		return "unknown"
	}
}

// Image is an exclusively owned pixel buffer with its dimensions.
//
// The buffer returned by Data is never modified after construction;
// Resize produces a new Image, and Convert replaces the buffer as a whole.
type Image interface {
	Kind() Kind
	// Data returns the pixel or block payload, without any file header.
	Data() []byte
	// Size is len(Data()).
	Size() int
	Width() int
	Height() int
	Depth() int

	// Resize returns a new image stretched to width x height.
	Resize(width, height int) (Image, error)
	// Convert changes the pixel layout in place.
	Convert(layout Format) error
	// GLFormat is the GL internal format the container stores.
	GLFormat() uint32
}

// Diff returns the mean absolute byte difference of a and b in [0, 1].
//
// Bytes are read as signed 8-bit values before subtracting. Images with
// different buffer sizes are not comparable and yield exactly 1.
func Diff(a, b Image) float32 {
	if a.Size() != b.Size() {
		return 1
	}
	if a.Size() == 0 {
		return 0
	}

	ad, bd := a.Data(), b.Data()
	var sum float32
	for i := range ad {
		d := int(int8(ad[i])) - int(int8(bd[i]))
		if d < 0 {
			d = -d
		}
		sum += float32(d)
	}

	return sum / float32(a.Size()) / 255
}

// PSNR returns the peak signal-to-noise ratio of a against b in decibels.
//
// Identical buffers yield +Inf; buffers of different size yield 0.
func PSNR(a, b Image) float32 {
	if a.Size() != b.Size() || a.Size() == 0 {
		return 0
	}

	ad, bd := a.Data(), b.Data()
	var sq float64
	for i := range ad {
		d := float64(ad[i]) - float64(bd[i])
		sq += d * d
	}
	if sq == 0 {
		return math32.Inf(1)
	}

	mse := float32(sq / float64(len(ad)))
	return 10 * math32.Log10(255*255/mse)
}

// DecodeImage returns the uncompressed pixels of img. Raw images are returned
// as is.
func DecodeImage(img Image) (*RawImage, error) {
	switch v := img.(type) {
	case *RawImage:
		return v, nil
	case *ASTCImage:
		return v.Decode()
	case *BCImage:
		return v.Decode()
	default:
		return nil, fmt.Errorf("%w: decode of %s image", ErrUnsupportedOperation, img.Kind())
	}
}
