package codec

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
)

// voidExtentLDR is the low half of an LDR void-extent block with all extent
// coordinates set to ones (no extent information).
const voidExtentLDR = uint64(0xFFFFFFFFFFFFFDFC)

var errorColor = [4]uint8{0xff, 0x00, 0xff, 0xff}

// Constant is a BlockCodec that stores every block as an ASTC void-extent
// block holding the block's mean colour.
//
// Its output is a valid ASTC stream any conformant decoder reads, at the cost
// of detail inside a block. Decoding covers void-extent and error blocks only;
// normal blocks fail with ErrUnsupportedBlock.
type Constant struct {
	once     sync.Once
	prepared atomic.Bool
	unorm16  [256]uint16
}

// NewConstant returns an unprepared Constant codec.
func NewConstant() *Constant {
	return &Constant{}
}

// Prepare builds the UNORM8 to UNORM16 expansion table.
func (c *Constant) Prepare() {
	c.once.Do(func() {
		for i := range c.unorm16 {
			c.unorm16[i] = uint16(i) * 257
		}
		c.prepared.Store(true)
	})
}

// EncodeImage implements BlockCodec.
//
// swzOut is accepted for contract compatibility; it only matters to codecs
// that verify blocks by decoding them during the search.
func (c *Constant) EncodeImage(src *Image, dim BlockDim, params *EncodeParams, profile Profile,
	swzIn, swzOut Swizzle, out []byte, threads int) error {
	if !c.prepared.Load() {
		return ErrNotPrepared
	}
	if !dim.Valid() {
		return fmt.Errorf("%w: %dx%dx%d", ErrInvalidBlockDim, dim.X, dim.Y, dim.Z)
	}

	want := src.Width * src.Height * src.Depth * 4
	if len(src.Data) != want {
		return fmt.Errorf("%w: source expected %d, got %d", ErrBufferSize, want, len(src.Data))
	}

	bx, by, bz := dim.Blocks(src.Width, src.Height, src.Depth)
	total := bx * by * bz
	if len(out) != total*BlockBytes {
		return fmt.Errorf("%w: output expected %d, got %d", ErrBufferSize, total*BlockBytes, len(out))
	}

	if threads < 1 {
		threads = 1
	}
	if threads > total {
		threads = total
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	for range threads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= total {
					return
				}
				x := i % bx
				y := (i / bx) % by
				z := i / (bx * by)
				c.encodeBlock(src, dim, swzIn, x, y, z, out[i*BlockBytes:(i+1)*BlockBytes])
			}
		}()
	}
	wg.Wait()

	return nil
}

// encodeBlock averages the in-bounds texels of one block.
func (c *Constant) encodeBlock(src *Image, dim BlockDim, swz Swizzle, bx, by, bz int, dst []byte) {
	var sum [4]uint32
	n := uint32(0)

	x0, y0, z0 := bx*int(dim.X), by*int(dim.Y), bz*int(dim.Z)
	for z := z0; z < z0+int(dim.Z) && z < src.Depth; z++ {
		for y := y0; y < y0+int(dim.Y) && y < src.Height; y++ {
			row := (z*src.Height + y) * src.Width * 4
			for x := x0; x < x0+int(dim.X) && x < src.Width; x++ {
				i := row + x*4
				px := swz.Apply([4]uint8{src.Data[i], src.Data[i+1], src.Data[i+2], src.Data[i+3]})
				for ch := range sum {
					sum[ch] += uint32(px[ch])
				}
				n++
			}
		}
	}

	binary.LittleEndian.PutUint64(dst[0:8], voidExtentLDR)
	for ch := range sum {
		avg := (sum[ch] + n/2) / n
		binary.LittleEndian.PutUint16(dst[8+ch*2:], c.unorm16[avg])
	}
}

// PhysicalToSymbolic implements BlockCodec.
func (c *Constant) PhysicalToSymbolic(dim BlockDim, pcb *PhysicalBlock, scb *SymbolicBlock) {
	scb.Physical = *pcb

	low := binary.LittleEndian.Uint64(pcb[0:8])
	if low&0x1ff != 0x1fc {
		scb.Kind = SymbolicNormal
		return
	}

	// HDR void-extent blocks are errors under LDR profiles; 2D blocks also
	// require both reserved bits set.
	hdr := low&(1<<9) != 0
	reserved := (low>>10)&0x3 == 0x3
	if hdr || (dim.Z == 1 && !reserved) {
		scb.Kind = SymbolicError
		return
	}

	scb.Kind = SymbolicConstant
	for ch := range scb.Constant {
		scb.Constant[ch] = binary.LittleEndian.Uint16(pcb[8+ch*2:])
	}
}

// DecompressSymbolic implements BlockCodec.
func (c *Constant) DecompressSymbolic(profile Profile, dim BlockDim, scb *SymbolicBlock, pb *PixelBlock) error {
	pb.Dim = dim
	texels := dim.Texels()

	var px [4]uint8
	switch scb.Kind {
	case SymbolicError:
		px = errorColor
	case SymbolicConstant:
		for ch := range px {
			v := uint32(scb.Constant[ch])
			if profile == ProfileLDRSRGB {
				px[ch] = uint8(v >> 8)
			} else {
				px[ch] = uint8((v + 128) / 257)
			}
		}
	default:
		return fmt.Errorf("%w: block mode 0x%03x", ErrUnsupportedBlock,
			binary.LittleEndian.Uint16(scb.Physical[0:2])&0x7ff)
	}

	for i := 0; i < texels; i++ {
		copy(pb.Data[i*4:i*4+4], px[:])
	}

	return nil
}
