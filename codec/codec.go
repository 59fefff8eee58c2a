/*
Package codec defines the block codec contract used by toktx to compress and
decompress ASTC block data, and ships a small built-in codec.

The container and image layers never touch bit-level block encoding. They
hand a tightly packed RGBA8 image to BlockCodec.EncodeImage and receive
16-byte physical blocks back; decoding goes through two pure stages per block,
PhysicalToSymbolic and DecompressSymbolic.
*/
package codec

import (
	"errors"
	"fmt"
)

// BlockBytes is the size of one compressed ASTC block.
const BlockBytes = 16

// MaxBlockTexels is the largest texel count of a legal footprint (6x6x6).
const MaxBlockTexels = 216

var (
	// ErrInvalidBlockDim indicates a block footprint outside the ASTC allow-list.
	ErrInvalidBlockDim = errors.New("invalid block dimensions")
	// ErrBufferSize indicates an input or output buffer with the wrong length.
	ErrBufferSize = errors.New("buffer size mismatch")
	// ErrUnsupportedBlock indicates a block mode the codec cannot decode.
	ErrUnsupportedBlock = errors.New("unsupported block mode")
	// ErrNotPrepared indicates EncodeImage was called before Prepare.
	ErrNotPrepared = errors.New("codec tables not prepared")
)

// BlockDim is a block footprint in texels per axis.
type BlockDim struct {
	X uint8
	Y uint8
	Z uint8
}

// Valid reports whether d is a legal 2D or 3D ASTC footprint.
//
// 3D footprints use 3..6 on every axis. 2D footprints use 4, 5, 6, 8, 10 or 12
// on X and Y with Z fixed to 1.
func (d BlockDim) Valid() bool {
	in3D := func(v uint8) bool { return v >= 3 && v <= 6 }
	in2D := func(v uint8) bool {
		return v >= 4 && v <= 12 && v != 7 && v != 9 && v != 11
	}

	if in3D(d.X) && in3D(d.Y) && in3D(d.Z) {
		return true
	}

	return in2D(d.X) && in2D(d.Y) && d.Z == 1
}

func (d BlockDim) String() string {
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}

// Texels returns the texel count of one block.
func (d BlockDim) Texels() int {
	return int(d.X) * int(d.Y) * int(d.Z)
}

// Blocks returns the block grid covering a width x height x depth image.
func (d BlockDim) Blocks(width, height, depth int) (bx, by, bz int) {
	bx = (width + int(d.X) - 1) / int(d.X)
	by = (height + int(d.Y) - 1) / int(d.Y)
	bz = (depth + int(d.Z) - 1) / int(d.Z)
	return bx, by, bz
}

// Profile selects the decode rules for endpoint colours.
type Profile uint8

const (
	// ProfileLDR decodes using linear LDR rules.
	ProfileLDR Profile = iota
	// ProfileLDRSRGB decodes using sRGB LDR rules.
	ProfileLDRSRGB
)

func (p Profile) String() string {
	switch p {
	case ProfileLDR:
		return "LDR"
	case ProfileLDRSRGB:
		return "LDR_SRGB"
	default:
		return "UNKNOWN"
	}
}

// Swz is a single component selector.
type Swz uint8

const (
	SwzR Swz = iota
	SwzG
	SwzB
	SwzA
	Swz0
	Swz1
)

// Swizzle maps output components to source components.
type Swizzle struct {
	R Swz
	G Swz
	B Swz
	A Swz
}

// SwizzleRGBA is the identity mapping.
var SwizzleRGBA = Swizzle{R: SwzR, G: SwzG, B: SwzB, A: SwzA}

// Apply remaps one RGBA8 texel.
func (s Swizzle) Apply(px [4]uint8) [4]uint8 {
	pick := func(c Swz) uint8 {
		switch c {
		case SwzR, SwzG, SwzB, SwzA:
			return px[c]
		case Swz1:
			return 0xff
		default:
			return 0
		}
	}

	return [4]uint8{pick(s.R), pick(s.G), pick(s.B), pick(s.A)}
}

// EncodeParams holds the error weighting and search limits for an encode.
type EncodeParams struct {
	RGBPower        float32
	AlphaPower      float32
	RGBBaseWeight   float32
	AlphaBaseWeight float32
	RGBAWeights     [4]float32

	MaxRefinementIters      int
	BlockModeCutoff         float32
	Partition1To2Limit      float32
	LowestCorrelationCutoff float32
	PartitionSearchLimit    int
}

// ThoroughParams returns the weighting used for every encode by default.
func ThoroughParams() EncodeParams {
	return EncodeParams{
		RGBPower:        1,
		AlphaPower:      1,
		RGBBaseWeight:   1,
		AlphaBaseWeight: 1,
		RGBAWeights:     [4]float32{1, 1, 1, 1},

		MaxRefinementIters:      4,
		BlockModeCutoff:         0.95,
		Partition1To2Limit:      2.5,
		LowestCorrelationCutoff: 0.95,
		PartitionSearchLimit:    100,
	}
}

// Image is a tightly packed RGBA8 volume handed to the encoder.
type Image struct {
	Width  int
	Height int
	Depth  int
	Data   []byte
}

// PhysicalBlock is one encoded 128-bit block.
type PhysicalBlock [BlockBytes]byte

// SymbolicKind classifies a symbolic block.
type SymbolicKind uint8

const (
	// SymbolicError marks a block that must decode to the error colour.
	SymbolicError SymbolicKind = iota
	// SymbolicConstant marks a void-extent block with a single colour.
	SymbolicConstant
	// SymbolicNormal marks a partitioned, weighted block.
	SymbolicNormal
)

// SymbolicBlock is the unpacked form of a PhysicalBlock.
type SymbolicBlock struct {
	Kind SymbolicKind
	// Constant is the UNORM16 colour of a void-extent block.
	Constant [4]uint16
	// Physical keeps the source bits for codecs that decode normal blocks lazily.
	Physical PhysicalBlock
}

// PixelBlock holds decoded RGBA8 texels of one block, x fastest then y then z.
type PixelBlock struct {
	Dim  BlockDim
	Data [MaxBlockTexels * 4]uint8
}

// Texel returns the texel at block-local coordinates.
func (p *PixelBlock) Texel(x, y, z int) [4]uint8 {
	i := ((z*int(p.Dim.Y)+y)*int(p.Dim.X) + x) * 4
	return [4]uint8{p.Data[i], p.Data[i+1], p.Data[i+2], p.Data[i+3]}
}

// BlockCodec is the bit-level ASTC codec.
//
// Prepare must run before the first EncodeImage call; it builds the codec's
// shared lookup tables and is safe to call more than once.
type BlockCodec interface {
	Prepare()

	// EncodeImage compresses src into out, which must hold exactly
	// blocksX*blocksY*blocksZ*BlockBytes bytes. threads bounds the number of
	// concurrent block encoders; the call returns after every block is done.
	EncodeImage(src *Image, dim BlockDim, params *EncodeParams, profile Profile,
		swzIn, swzOut Swizzle, out []byte, threads int) error

	// PhysicalToSymbolic unpacks one block.
	PhysicalToSymbolic(dim BlockDim, pcb *PhysicalBlock, scb *SymbolicBlock)

	// DecompressSymbolic expands one symbolic block into texels.
	DecompressSymbolic(profile Profile, dim BlockDim, scb *SymbolicBlock, pb *PixelBlock) error
}
