package toktx

import (
	"fmt"
	"image"
	"io"

	"github.com/woozymasta/bcn"
	"github.com/woozymasta/toktx/internal/imaging"
)

// writeEDDS serializes the container as EDDS. RGB levels are stored as
// RGBA8; ASTC cannot be stored. When the container asks for generated
// mipmaps, bcn builds the chain from the base level.
func (c *Container) writeEDDS(w io.Writer, opts *SaveOptions) error {
	const op = "cannot save EDDS texture"

	var format bcn.Format
	switch {
	case c.desc.format == FormatRGB || c.desc.format == FormatRGBA:
		format = bcn.FormatRGBA8
	case c.desc.format.IsBC():
		format = bcnFormat(c.desc.format)
	default:
		return containerErr(op, CodeUnsupportedTextureType, fmt.Errorf("%w: %s", ErrEDDSFormat, c.desc.format))
	}
	if c.depth > 1 {
		return containerErr(op, CodeUnsupportedTextureType, fmt.Errorf("%w: volume texture", ErrEDDSFormat))
	}

	if len(c.levels) == 0 {
		return containerErr(op, CodeInvalidValue, ErrEmptyMipmaps)
	}

	levels := make([][]byte, len(c.levels))
	for i, level := range c.levels {
		if level == nil {
			return containerErr(op, CodeInvalidOperation, fmt.Errorf("level %d has no data", i))
		}
		if c.desc.format == FormatRGB {
			lw, lh, _ := c.levelDims(i)
			level = imaging.FromRGB(level, lw, lh).Pix
		}
		levels[i] = level
	}

	if c.generate {
		generated, err := c.generateEDDSMipmaps(levels[0], format, opts.BC)
		if err != nil {
			return containerErr(op, CodeInvalidOperation, err)
		}
		levels = append(levels[:1], generated...)
	}

	w32, err := u32FromInt(c.width)
	if err != nil {
		return containerErr(op, CodeFileOverflow, err)
	}
	h32, err := u32FromInt(c.height)
	if err != nil {
		return containerErr(op, CodeFileOverflow, err)
	}
	mip32, err := u32FromInt(len(levels))
	if err != nil {
		return containerErr(op, CodeFileOverflow, err)
	}

	header, err := makeDDSHeader(w32, h32, mip32, format)
	if err != nil {
		return containerErr(op, CodeUnsupportedTextureType, err)
	}

	blocks := make([]*eddsBlock, len(levels))
	for i, level := range levels {
		want := eddsDataLength(format, mipDimension(c.width, i), mipDimension(c.height, i))
		if len(level) != want {
			return containerErr(op, CodeInvalidValue,
				fmt.Errorf("%w: level %d: expected %d, got %d", ErrMipmapSizeMismatch, i, want, len(level)))
		}

		// Bodies go smallest level first.
		slot := len(levels) - 1 - i
		if opts.EDDSCopyBlocks {
			blocks[slot] = copyBlock(level)
			continue
		}
		if blocks[slot], err = lz4Block(level); err != nil {
			return containerErr(op, CodeInvalidValue, fmt.Errorf("level %d: %w", i, err))
		}
	}

	if err := bcn.WriteDDSMagic(w); err != nil {
		return containerErr(op, CodeFileWriteError, fmt.Errorf("%w: %v", ErrDDSHeader, err))
	}
	if err := bcn.WriteDDSHeader(w, header); err != nil {
		return containerErr(op, CodeFileWriteError, fmt.Errorf("%w: %v", ErrDDSHeader, err))
	}
	if err := writeBlocks(w, blocks); err != nil {
		return containerErr(op, CodeFileWriteError, err)
	}

	return nil
}

// generateEDDSMipmaps returns levels 1.. of a chain built by bcn from the
// base payload, capped at maxEDDSMipmaps levels in total.
func (c *Container) generateEDDSMipmaps(base []byte, format bcn.Format, opts *BCOptions) ([][]byte, error) {
	var (
		src image.Image
		err error
	)
	if format == bcn.FormatRGBA8 {
		src = imaging.FromRGBA(base, c.width, c.height)
	} else {
		var dec *bcn.DecodeOptions
		if opts != nil {
			dec = opts.Decode
		}
		if src, err = bcn.DecodeImageWithOptions(base, c.width, c.height, format, dec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBCDecode, err)
		}
	}

	count, err := calculateMipMapCount(c.width, c.height)
	if err != nil {
		return nil, err
	}
	count = min(count, maxEDDSMipmaps)

	mips := bcn.GenerateMipmaps(src, false)
	if len(mips) > count {
		mips = mips[:count]
	}

	var enc *bcn.EncodeOptions
	if opts != nil {
		enc = opts.Encode
	}

	out := make([][]byte, 0, len(mips))
	for i := 1; i < len(mips); i++ {
		if format == bcn.FormatRGBA8 {
			out = append(out, imaging.ToNRGBA(mips[i]).Pix)
			continue
		}

		data, _, _, err := bcn.EncodeImageWithOptions(mips[i], format, enc)
		if err != nil {
			return nil, fmt.Errorf("%w: mipmap %d: %v", ErrBCEncode, i, err)
		}
		out = append(out, data)
	}

	return out, nil
}
