package toktx

import (
	"fmt"

	"github.com/woozymasta/toktx/codec"
	"github.com/woozymasta/toktx/internal/imaging"
)

// EncodeASTC compresses a raw image into ASTC blocks. src is not modified.
func EncodeASTC(src Image, opts *ASTCOptions) (*ASTCImage, error) {
	raw, ok := src.(*RawImage)
	if !ok {
		return nil, fmt.Errorf("%w: encode from %s image", ErrUnsupportedOperation, src.Kind())
	}

	s := opts.settings()
	hdr := ASTCHeader{BlockDim: s.dim, Width: raw.width, Height: raw.height, Depth: raw.depth}
	if err := hdr.validate(); err != nil {
		return nil, err
	}
	head, err := PackHeader(hdr)
	if err != nil {
		return nil, err
	}
	size, err := hdr.PayloadSize()
	if err != nil {
		return nil, err
	}

	rgba, err := rgbaBytes(raw)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, ASTCHeaderSize+size)
	copy(buf, head[:])

	s.codec.Prepare()
	in := &codec.Image{Width: raw.width, Height: raw.height, Depth: raw.depth, Data: rgba}
	if err := s.codec.EncodeImage(in, s.dim, &s.params, s.profile, s.swizzle, s.swizzle,
		buf[ASTCHeaderSize:], s.threads); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodecEncode, err)
	}

	return newASTCImage(buf, hdr, s), nil
}

// EncodeASTCFile loads an image file and compresses it into ASTC blocks.
func EncodeASTCFile(path string, opts *ASTCOptions) (*ASTCImage, error) {
	raw, err := LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadSource, err)
	}

	return EncodeASTC(raw, opts)
}

// rgbaBytes returns the RGBA8 pixels of raw without modifying it.
func rgbaBytes(raw *RawImage) ([]byte, error) {
	switch raw.layout {
	case FormatRGBA:
		return raw.data, nil
	case FormatRGB:
		if raw.depth != 1 {
			return nil, fmt.Errorf("%w: RGB volume", ErrUnsupportedOperation)
		}
		return imaging.FromRGB(raw.data, raw.width, raw.height).Pix, nil
	default:
		return nil, fmt.Errorf("%w: raw image has no known layout", ErrUnsupportedOperation)
	}
}
