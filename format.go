package toktx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/woozymasta/bcn"
	"github.com/woozymasta/toktx/codec"
)

// Format is a pixel layout a Texture can be converted to.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatRGB
	FormatRGBA
	FormatASTC
	FormatDXT1
	FormatDXT3
	FormatDXT5
	FormatBC4
	FormatBC5
)

var formatNames = map[Format]string{
	FormatRGB:  "rgb",
	FormatRGBA: "rgba",
	FormatASTC: "astc",
	FormatDXT1: "dxt1",
	FormatDXT3: "dxt3",
	FormatDXT5: "dxt5",
	FormatBC4:  "bc4",
	FormatBC5:  "bc5",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}

	return "unknown"
}

// IsBC reports whether f is one of the BCn block formats.
func (f Format) IsBC() bool {
	return f >= FormatDXT1 && f <= FormatBC5
}

// ParseFormat maps a CLI or config name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rgb":
		return FormatRGB, nil
	case "rgba":
		return FormatRGBA, nil
	case "astc":
		return FormatASTC, nil
	case "dxt1", "bc1":
		return FormatDXT1, nil
	case "dxt3", "bc2":
		return FormatDXT3, nil
	case "dxt5", "bc3":
		return FormatDXT5, nil
	case "bc4":
		return FormatBC4, nil
	case "bc5":
		return FormatBC5, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// ParseBlockDim parses an ASTC footprint such as "8x8" or "4x4x4".
func ParseBlockDim(s string) (codec.BlockDim, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) < 2 || len(parts) > 3 {
		return codec.BlockDim{}, fmt.Errorf("%w: %q", ErrInvalidBlockDim, s)
	}

	v := [3]uint8{1, 1, 1}
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return codec.BlockDim{}, fmt.Errorf("%w: %q", ErrInvalidBlockDim, s)
		}
		v[i] = uint8(n)
	}

	dim := codec.BlockDim{X: v[0], Y: v[1], Z: v[2]}
	if !dim.Valid() {
		return codec.BlockDim{}, fmt.Errorf("%w: %q", ErrInvalidBlockDim, s)
	}

	return dim, nil
}

// OpenGL enums used by the container layer.
const (
	glUnsignedByte = 0x1401

	glRed  = 0x1903
	glRGB  = 0x1907
	glRGBA = 0x1908
	glRG   = 0x8227

	glSRGB8       = 0x8C41
	glSRGB8Alpha8 = 0x8C43

	glCompressedRGBADXT1 = 0x83F1
	glCompressedRGBADXT3 = 0x83F2
	glCompressedRGBADXT5 = 0x83F3
	glCompressedSRGBDXT1 = 0x8C4D
	glCompressedSRGBDXT3 = 0x8C4E
	glCompressedSRGBDXT5 = 0x8C4F
	glCompressedRedRGTC1 = 0x8DBB
	glCompressedRGRGTC2  = 0x8DBD

	glASTC2DRGBA = 0x93B0
	glASTC3DRGBA = 0x93C0
	glASTC2DSRGB = 0x93D0
	glASTC3DSRGB = 0x93E0
)

// ASTC footprints in GL enum order.
var (
	astc2DDims = []codec.BlockDim{
		{X: 4, Y: 4, Z: 1}, {X: 5, Y: 4, Z: 1}, {X: 5, Y: 5, Z: 1}, {X: 6, Y: 5, Z: 1},
		{X: 6, Y: 6, Z: 1}, {X: 8, Y: 5, Z: 1}, {X: 8, Y: 6, Z: 1}, {X: 8, Y: 8, Z: 1},
		{X: 10, Y: 5, Z: 1}, {X: 10, Y: 6, Z: 1}, {X: 10, Y: 8, Z: 1}, {X: 10, Y: 10, Z: 1},
		{X: 12, Y: 10, Z: 1}, {X: 12, Y: 12, Z: 1},
	}
	astc3DDims = []codec.BlockDim{
		{X: 3, Y: 3, Z: 3}, {X: 4, Y: 3, Z: 3}, {X: 4, Y: 4, Z: 3}, {X: 4, Y: 4, Z: 4},
		{X: 5, Y: 4, Z: 4}, {X: 5, Y: 5, Z: 4}, {X: 5, Y: 5, Z: 5}, {X: 6, Y: 5, Z: 5},
		{X: 6, Y: 6, Z: 5}, {X: 6, Y: 6, Z: 6},
	}
)

// GLASTCFormat returns the GL internal format of an ASTC footprint.
func GLASTCFormat(dim codec.BlockDim, srgb bool) (uint32, bool) {
	table, rgba, srgbBase := astc2DDims, uint32(glASTC2DRGBA), uint32(glASTC2DSRGB)
	if dim.Z > 1 {
		table, rgba, srgbBase = astc3DDims, glASTC3DRGBA, glASTC3DSRGB
	}

	for i, d := range table {
		if d == dim {
			// #nosec G115 -- tables hold fewer than 16 entries.
			if srgb {
				return srgbBase + uint32(i), true
			}
			return rgba + uint32(i), true
		}
	}

	return 0, false
}

// ASTCBlockDimFromGL returns the footprint encoded in an ASTC GL internal format.
func ASTCBlockDimFromGL(gl uint32) (dim codec.BlockDim, srgb bool, ok bool) {
	lookup := func(base uint32, table []codec.BlockDim) (codec.BlockDim, bool) {
		if gl < base || int(gl-base) >= len(table) {
			return codec.BlockDim{}, false
		}
		return table[gl-base], true
	}

	if d, ok := lookup(glASTC2DRGBA, astc2DDims); ok {
		return d, false, true
	}
	if d, ok := lookup(glASTC2DSRGB, astc2DDims); ok {
		return d, true, true
	}
	if d, ok := lookup(glASTC3DRGBA, astc3DDims); ok {
		return d, false, true
	}
	if d, ok := lookup(glASTC3DSRGB, astc3DDims); ok {
		return d, true, true
	}

	return codec.BlockDim{}, false, false
}

// IsASTCGL reports whether gl is any known ASTC internal format.
func IsASTCGL(gl uint32) bool {
	_, _, ok := ASTCBlockDimFromGL(gl)
	return ok
}

// glBCFormat returns the GL internal format for a BCn format.
func glBCFormat(f Format, srgb bool) uint32 {
	switch f {
	case FormatDXT1:
		if srgb {
			return glCompressedSRGBDXT1
		}
		return glCompressedRGBADXT1
	case FormatDXT3:
		if srgb {
			return glCompressedSRGBDXT3
		}
		return glCompressedRGBADXT3
	case FormatDXT5:
		if srgb {
			return glCompressedSRGBDXT5
		}
		return glCompressedRGBADXT5
	case FormatBC4:
		return glCompressedRedRGTC1
	case FormatBC5:
		return glCompressedRGRGTC2
	default:
		return 0
	}
}

// bcFromGL maps a BCn GL internal format back to a Format.
func bcFromGL(gl uint32) (Format, bool) {
	switch gl {
	case glCompressedRGBADXT1, glCompressedSRGBDXT1:
		return FormatDXT1, true
	case glCompressedRGBADXT3, glCompressedSRGBDXT3:
		return FormatDXT3, true
	case glCompressedRGBADXT5, glCompressedSRGBDXT5:
		return FormatDXT5, true
	case glCompressedRedRGTC1:
		return FormatBC4, true
	case glCompressedRGRGTC2:
		return FormatBC5, true
	default:
		return FormatUnknown, false
	}
}

// glDesc is what the container layer needs to know about a GL internal format.
type glDesc struct {
	internal   uint32
	base       uint32
	compressed bool
	// channels is the texel size of uncompressed formats.
	channels int
	srgb     bool
	format   Format
	astcDim  codec.BlockDim
}

// describeGL classifies a GL internal format.
func describeGL(gl uint32) (glDesc, error) {
	d := glDesc{internal: gl}

	switch gl {
	case glRGB, glSRGB8:
		d.base, d.channels, d.format, d.srgb = glRGB, 3, FormatRGB, gl == glSRGB8
		return d, nil
	case glRGBA, glSRGB8Alpha8:
		d.base, d.channels, d.format, d.srgb = glRGBA, 4, FormatRGBA, gl == glSRGB8Alpha8
		return d, nil
	}

	if dim, srgb, ok := ASTCBlockDimFromGL(gl); ok {
		d.base, d.compressed, d.format, d.srgb, d.astcDim = glRGBA, true, FormatASTC, srgb, dim
		return d, nil
	}

	if f, ok := bcFromGL(gl); ok {
		d.compressed, d.format = true, f
		switch f {
		case FormatBC4:
			d.base = glRed
		case FormatBC5:
			d.base = glRG
		default:
			d.base = glRGBA
			d.srgb = gl == glCompressedSRGBDXT1 || gl == glCompressedSRGBDXT3 || gl == glCompressedSRGBDXT5
		}
		return d, nil
	}

	return glDesc{}, fmt.Errorf("%w: GL internal format 0x%04X", ErrUnknownFormat, gl)
}

// bcnFormat maps a BCn Format to the bcn encoder format.
func bcnFormat(f Format) bcn.Format {
	switch f {
	case FormatDXT1:
		return bcn.FormatDXT1
	case FormatDXT3:
		return bcn.FormatDXT3
	case FormatDXT5:
		return bcn.FormatDXT5
	case FormatBC4:
		return bcn.FormatBC4
	case FormatBC5:
		return bcn.FormatBC5
	case FormatRGBA:
		return bcn.FormatRGBA8
	default:
		return bcn.FormatUnknown
	}
}

// formatFromBCN maps a bcn format to a Format.
func formatFromBCN(f bcn.Format) Format {
	switch f {
	case bcn.FormatDXT1:
		return FormatDXT1
	case bcn.FormatDXT3:
		return FormatDXT3
	case bcn.FormatDXT5:
		return FormatDXT5
	case bcn.FormatBC4:
		return FormatBC4
	case bcn.FormatBC5:
		return FormatBC5
	case bcn.FormatRGBA8, bcn.FormatBGRA8:
		return FormatRGBA
	default:
		return FormatUnknown
	}
}

// bcDataLength returns the payload size of a BCn level.
func bcDataLength(f Format, width, height int) int {
	blocksW := (width + 3) / 4
	blocksH := (height + 3) / 4
	switch f {
	case FormatDXT1, FormatBC4:
		return blocksW * blocksH * 8
	case FormatDXT3, FormatDXT5, FormatBC5:
		return blocksW * blocksH * 16
	default:
		return -1
	}
}
