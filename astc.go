package toktx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/woozymasta/toktx/codec"
)

const (
	// ASTCMagic is the signature of the .astc file header.
	ASTCMagic = 0x5CA1AB13
	// ASTCHeaderSize is the size of the .astc file header.
	ASTCHeaderSize = 16
	// DefaultThreads is the encoder worker count when none is configured.
	DefaultThreads = 4
)

// DefaultBlockDim is the footprint used when none is configured.
var DefaultBlockDim = codec.BlockDim{X: 8, Y: 8, Z: 1}

var defaultCodec codec.BlockCodec = codec.NewConstant()

// ASTCHeader is the decoded .astc file header.
type ASTCHeader struct {
	BlockDim codec.BlockDim
	Width    int
	Height   int
	Depth    int
}

// PackHeader encodes h as the 16-byte little-endian .astc header.
func PackHeader(h ASTCHeader) ([ASTCHeaderSize]byte, error) {
	var out [ASTCHeaderSize]byte

	w, err := u24FromInt(h.Width)
	if err != nil {
		return out, fmt.Errorf("%w: width %d", err, h.Width)
	}
	hh, err := u24FromInt(h.Height)
	if err != nil {
		return out, fmt.Errorf("%w: height %d", err, h.Height)
	}
	d, err := u24FromInt(h.Depth)
	if err != nil {
		return out, fmt.Errorf("%w: depth %d", err, h.Depth)
	}

	binary.LittleEndian.PutUint32(out[0:4], ASTCMagic)
	out[4], out[5], out[6] = h.BlockDim.X, h.BlockDim.Y, h.BlockDim.Z
	putU24(out[7:10], w)
	putU24(out[10:13], hh)
	putU24(out[13:16], d)

	return out, nil
}

// UnpackHeader decodes the .astc header at the front of b.
// Block dimensions are not validated here.
func UnpackHeader(b []byte) (ASTCHeader, error) {
	if len(b) < ASTCHeaderSize {
		return ASTCHeader{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(b))
	}
	if magic := binary.LittleEndian.Uint32(b[0:4]); magic != ASTCMagic {
		return ASTCHeader{}, fmt.Errorf("%w: 0x%08X", ErrBadMagic, magic)
	}

	return ASTCHeader{
		BlockDim: codec.BlockDim{X: b[4], Y: b[5], Z: b[6]},
		Width:    int(u24(b[7:10])),
		Height:   int(u24(b[10:13])),
		Depth:    int(u24(b[13:16])),
	}, nil
}

// Blocks returns the block grid of h.
func (h ASTCHeader) Blocks() (bx, by, bz int) {
	return h.BlockDim.Blocks(h.Width, h.Height, h.Depth)
}

// PayloadSize returns the byte size of the block payload described by h.
// Grids larger than maxASTCPayload fail with ErrSizeOverflow.
func (h ASTCHeader) PayloadSize() (int, error) {
	bx, by, bz := h.Blocks()

	size := codec.BlockBytes
	for _, n := range [3]int{bx, by, bz} {
		if n < 0 || (n > 0 && size > maxASTCPayload/n) {
			return 0, fmt.Errorf("%w: %dx%dx%d blocks", ErrSizeOverflow, bx, by, bz)
		}
		size *= n
	}

	return size, nil
}

// validate checks the footprint allow-list and non-zero axes.
func (h ASTCHeader) validate() error {
	if !h.BlockDim.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidBlockDim, h.BlockDim)
	}
	if h.Width == 0 || h.Height == 0 || h.Depth == 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrZeroDimension, h.Width, h.Height, h.Depth)
	}
	if _, err := h.PayloadSize(); err != nil {
		return err
	}

	return nil
}

// ASTCOptions configures ASTC encode and decode. Nil options use defaults.
type ASTCOptions struct {
	// BlockDim is the footprint for encoding; zero means DefaultBlockDim.
	BlockDim codec.BlockDim
	// Threads bounds concurrent block encoders; zero means DefaultThreads.
	Threads int
	// Params overrides codec.ThoroughParams.
	Params *codec.EncodeParams
	// Linear selects LDR decoding instead of sRGB.
	Linear bool
	// Swizzle overrides the identity channel mapping.
	Swizzle *codec.Swizzle
	// Codec overrides the built-in constant-colour codec.
	Codec codec.BlockCodec
}

type astcSettings struct {
	dim     codec.BlockDim
	threads int
	params  codec.EncodeParams
	profile codec.Profile
	swizzle codec.Swizzle
	codec   codec.BlockCodec
}

func (o *ASTCOptions) settings() astcSettings {
	s := astcSettings{
		dim:     DefaultBlockDim,
		threads: DefaultThreads,
		params:  codec.ThoroughParams(),
		profile: codec.ProfileLDRSRGB,
		swizzle: codec.SwizzleRGBA,
		codec:   defaultCodec,
	}
	if o == nil {
		return s
	}

	if o.BlockDim != (codec.BlockDim{}) {
		s.dim = o.BlockDim
	}
	if o.Threads > 0 {
		s.threads = o.Threads
	}
	if o.Params != nil {
		s.params = *o.Params
	}
	if o.Linear {
		s.profile = codec.ProfileLDR
	}
	if o.Swizzle != nil {
		s.swizzle = *o.Swizzle
	}
	if o.Codec != nil {
		s.codec = o.Codec
	}

	return s
}

// ASTCImage is an ASTC block-compressed image. The buffer holds the .astc
// header followed by the block payload.
type ASTCImage struct {
	buf     []byte
	hdr     ASTCHeader
	profile codec.Profile
	swizzle codec.Swizzle
	codec   codec.BlockCodec
}

// ParseASTC wraps a buffer that starts with an .astc header. Bytes past the
// payload are dropped.
func ParseASTC(data []byte, opts *ASTCOptions) (*ASTCImage, error) {
	hdr, err := UnpackHeader(data)
	if err != nil {
		return nil, err
	}
	if err := hdr.validate(); err != nil {
		return nil, err
	}

	size, err := hdr.PayloadSize()
	if err != nil {
		return nil, err
	}
	if len(data)-ASTCHeaderSize < size {
		return nil, fmt.Errorf("%w: expected %d payload bytes, got %d", ErrPayloadSize, size, len(data)-ASTCHeaderSize)
	}

	return newASTCImage(data[:ASTCHeaderSize+size], hdr, opts.settings()), nil
}

// NewASTCFromBlocks wraps a headerless block payload whose dimensions are
// known out of band, synthesizing the header.
func NewASTCFromBlocks(payload []byte, width, height, depth int, dim codec.BlockDim, opts *ASTCOptions) (*ASTCImage, error) {
	if depth == 0 {
		depth = 1
	}

	hdr := ASTCHeader{BlockDim: dim, Width: width, Height: height, Depth: depth}
	if err := hdr.validate(); err != nil {
		return nil, err
	}
	size, err := hdr.PayloadSize()
	if err != nil {
		return nil, err
	}
	if len(payload) != size {
		return nil, fmt.Errorf("%w: expected %d payload bytes, got %d", ErrPayloadSize, size, len(payload))
	}

	head, err := PackHeader(hdr)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, ASTCHeaderSize+len(payload))
	copy(buf, head[:])
	copy(buf[ASTCHeaderSize:], payload)

	return newASTCImage(buf, hdr, opts.settings()), nil
}

func newASTCImage(buf []byte, hdr ASTCHeader, s astcSettings) *ASTCImage {
	return &ASTCImage{buf: buf, hdr: hdr, profile: s.profile, swizzle: s.swizzle, codec: s.codec}
}

// LoadASTC reads an .astc file. A file that cannot be read in full is an error.
func LoadASTC(path string, opts *ASTCOptions) (*ASTCImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}

	data := make([]byte, st.Size())
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrShortRead, path, err)
	}

	img, err := ParseASTC(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}

	return img, nil
}

// Store writes the header and payload to path.
func (a *ASTCImage) Store(path string) error {
	if err := os.WriteFile(path, a.buf, 0o644); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrWriteFile, path, err)
	}

	return nil
}

// ASTCMipmapPath returns the sidecar path of a mip level: foo.astc -> foo_mip_<level>.astc.
func ASTCMipmapPath(path string, level int) string {
	return strings.TrimSuffix(path, ".astc") + "_mip_" + strconv.Itoa(level) + ".astc"
}

// FindASTCMipmap loads the sidecar file of a mip level. It returns nil and no
// error when the sidecar does not exist.
func FindASTCMipmap(path string, level int, opts *ASTCOptions) (*ASTCImage, error) {
	mip := ASTCMipmapPath(path, level)
	img, err := LoadASTC(mip, opts)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	return img, err
}

// Kind implements Image.
func (a *ASTCImage) Kind() Kind { return KindASTC }

// Data returns the block payload without the header.
func (a *ASTCImage) Data() []byte { return a.buf[ASTCHeaderSize:] }

// Bytes returns the header followed by the payload.
func (a *ASTCImage) Bytes() []byte { return a.buf }

// Size implements Image; it excludes the header.
func (a *ASTCImage) Size() int { return len(a.buf) - ASTCHeaderSize }

// Width implements Image.
func (a *ASTCImage) Width() int { return a.hdr.Width }

// Height implements Image.
func (a *ASTCImage) Height() int { return a.hdr.Height }

// Depth implements Image.
func (a *ASTCImage) Depth() int { return a.hdr.Depth }

// Header returns the parsed header.
func (a *ASTCImage) Header() ASTCHeader { return a.hdr }

// BlockDim returns the block footprint.
func (a *ASTCImage) BlockDim() codec.BlockDim { return a.hdr.BlockDim }

// XBlocks returns the block count along X.
func (a *ASTCImage) XBlocks() int { bx, _, _ := a.hdr.Blocks(); return bx }

// YBlocks returns the block count along Y.
func (a *ASTCImage) YBlocks() int { _, by, _ := a.hdr.Blocks(); return by }

// ZBlocks returns the block count along Z.
func (a *ASTCImage) ZBlocks() int { _, _, bz := a.hdr.Blocks(); return bz }

// GLFormat implements Image.
func (a *ASTCImage) GLFormat() uint32 {
	gl, _ := GLASTCFormat(a.hdr.BlockDim, a.profile == codec.ProfileLDRSRGB)
	return gl
}

// Resize always fails: compressed blocks are resized from a raw source.
func (a *ASTCImage) Resize(_, _ int) (Image, error) {
	return nil, ErrResizeCompressed
}

// Convert always fails.
func (a *ASTCImage) Convert(_ Format) error {
	return ErrConvertCompressed
}

func (a *ASTCImage) String() string {
	bx, by, bz := a.hdr.Blocks()
	return fmt.Sprintf("ASTC [%d bytes]\n  blocks [%dx%dx%d]\n  size [%dx%dx%d]\n",
		a.Size(), bx, by, bz, a.hdr.Width, a.hdr.Height, a.hdr.Depth)
}

// Decode expands every block into a tightly packed RGBA8 raw image.
func (a *ASTCImage) Decode() (*RawImage, error) {
	if err := a.hdr.validate(); err != nil {
		return nil, err
	}

	dim := a.hdr.BlockDim
	width, height, depth := a.hdr.Width, a.hdr.Height, a.hdr.Depth
	bx, by, bz := a.hdr.Blocks()
	payload := a.Data()
	if len(payload) != bx*by*bz*codec.BlockBytes {
		return nil, fmt.Errorf("%w: expected %d payload bytes, got %d", ErrPayloadSize, bx*by*bz*codec.BlockBytes, len(payload))
	}

	out := make([]byte, width*height*depth*4)

	var (
		pcb codec.PhysicalBlock
		scb codec.SymbolicBlock
		pb  codec.PixelBlock
	)
	for z := 0; z < bz; z++ {
		for y := 0; y < by; y++ {
			for x := 0; x < bx; x++ {
				offset := ((z*by+y)*bx + x) * codec.BlockBytes
				copy(pcb[:], payload[offset:offset+codec.BlockBytes])

				a.codec.PhysicalToSymbolic(dim, &pcb, &scb)
				if err := a.codec.DecompressSymbolic(a.profile, dim, &scb, &pb); err != nil {
					return nil, fmt.Errorf("%w: block %d,%d,%d: %v", ErrCodecDecode, x, y, z, err)
				}

				writeBlock(out, &pb, a.swizzle, width, height, depth,
					x*int(dim.X), y*int(dim.Y), z*int(dim.Z))
			}
		}
	}

	img, err := NewRawImage(out, width, height, depth, FormatRGBA)
	if err != nil {
		return nil, err
	}
	img.srgb = a.profile == codec.ProfileLDRSRGB

	return img, nil
}

// writeBlock stores the in-bounds texels of pb at (x0, y0, z0).
func writeBlock(out []byte, pb *codec.PixelBlock, swz codec.Swizzle, width, height, depth, x0, y0, z0 int) {
	dim := pb.Dim
	for lz := 0; lz < int(dim.Z) && z0+lz < depth; lz++ {
		for ly := 0; ly < int(dim.Y) && y0+ly < height; ly++ {
			row := ((z0+lz)*height + y0 + ly) * width
			for lx := 0; lx < int(dim.X) && x0+lx < width; lx++ {
				px := swz.Apply(pb.Texel(lx, ly, lz))
				i := (row + x0 + lx) * 4
				copy(out[i:i+4], px[:])
			}
		}
	}
}
