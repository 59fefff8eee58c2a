package toktx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

const (
	// BlockMagicCOPY marks an uncompressed EDDS block.
	BlockMagicCOPY = "COPY"
	// BlockMagicLZ4 marks an LZ4 chunk-stream EDDS block.
	BlockMagicLZ4 = "LZ4 "

	// ChunkSize is the Enfusion chunk size for LZ4 streams.
	ChunkSize = 64 * 1024

	lz4DictSize      = 64 * 1024
	lz4LastChunkFlag = 0x80
	lz4MaxChunk      = 0x7FFFFF
	// lz4MinInput is the smallest level worth compressing.
	lz4MinInput = 1024
	// lz4MaxRatio is the compressed/raw ratio above which COPY is stored.
	lz4MaxRatio = 0.85
)

// eddsBlock is one level body: its table entry and payload.
type eddsBlock struct {
	magic string
	// body is what follows the table; for LZ4 it starts with the raw size.
	body []byte
}

func (b *eddsBlock) size() (int32, error) {
	return i32FromInt(len(b.body))
}

// copyBlock stores data as is.
func copyBlock(data []byte) *eddsBlock {
	return &eddsBlock{magic: BlockMagicCOPY, body: data}
}

// lz4Block compresses data into an Enfusion chunk stream, falling back to a
// COPY block when compression does not pay off.
func lz4Block(data []byte) (*eddsBlock, error) {
	rawSize, err := i32FromInt(len(data))
	if err != nil {
		return nil, err
	}
	if len(data) < lz4MinInput {
		return copyBlock(data), nil
	}

	var body bytes.Buffer
	_ = binary.Write(&body, binary.LittleEndian, rawSize)

	scratch := make([]byte, lz4.CompressBlockBound(ChunkSize))
	for start := 0; start < len(data); start += ChunkSize {
		chunk := data[start:min(start+ChunkSize, len(data))]

		n, err := lz4.CompressBlockHC(chunk, scratch, 0, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLZ4Compress, err)
		}
		if n == 0 || float64(n) > float64(len(chunk))*lz4MaxRatio {
			return copyBlock(data), nil
		}
		if n > lz4MaxChunk {
			return nil, fmt.Errorf("%w: %d", ErrChunkTooLarge, n)
		}

		flags := byte(0)
		if start+len(chunk) == len(data) {
			flags = lz4LastChunkFlag
		}
		body.Write([]byte{byte(n), byte(n >> 8), byte(n >> 16), flags})
		body.Write(scratch[:n])
	}

	if float64(body.Len()) > float64(len(data))*lz4MaxRatio {
		return copyBlock(data), nil
	}
	if _, err := i32FromInt(body.Len()); err != nil {
		return nil, err
	}

	return &eddsBlock{magic: BlockMagicLZ4, body: body.Bytes()}, nil
}

// inflate returns the raw level data of b.
func (b *eddsBlock) inflate(expected int) ([]byte, error) {
	switch b.magic {
	case BlockMagicCOPY:
		if len(b.body) != expected {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrCopySizeMismatch, expected, len(b.body))
		}
		return b.body, nil
	case BlockMagicLZ4:
		return inflateChunkStream(b.body, expected)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBlockMagic, b.magic)
	}
}

// slidingDict keeps the last 64 KiB of decoded output for the next chunk.
type slidingDict struct {
	buf []byte
}

func (d *slidingDict) push(decoded []byte) {
	if len(decoded) >= lz4DictSize {
		d.buf = append(d.buf[:0], decoded[len(decoded)-lz4DictSize:]...)
		return
	}

	d.buf = append(d.buf, decoded...)
	if over := len(d.buf) - lz4DictSize; over > 0 {
		d.buf = append(d.buf[:0], d.buf[over:]...)
	}
}

// inflateChunkStream decodes an Enfusion LZ4 chunk stream. The stream may
// start with its raw size; otherwise expected is used.
func inflateChunkStream(stream []byte, expected int) ([]byte, error) {
	target := expected
	if len(stream) >= 8 {
		peek := int(binary.LittleEndian.Uint32(stream[:4]))
		first := int(stream[4]) | int(stream[5])<<8 | int(stream[6])<<16
		if peek == expected && first > 0 && first < 1<<20 {
			target = peek
			stream = stream[4:]
		}
	}
	if target <= 0 {
		return nil, fmt.Errorf("%w: target %d", ErrDecodedSizeMismatch, target)
	}
	// Every chunk takes a 4-byte header plus at least one byte and yields at
	// most ChunkSize bytes.
	if chunks := len(stream) / 5; target > chunks*ChunkSize {
		return nil, fmt.Errorf("%w: %d bytes cannot hold %d decoded bytes", ErrChunkStreamTruncated, len(stream), target)
	}

	out := make([]byte, target)
	dict := slidingDict{buf: make([]byte, 0, 2*lz4DictSize)}
	written := 0

	for off := 0; ; {
		if len(stream)-off < 4 {
			return nil, fmt.Errorf("%w: need 4 bytes header, have %d", ErrChunkStreamTruncated, len(stream)-off)
		}
		size := int(stream[off]) | int(stream[off+1])<<8 | int(stream[off+2])<<16
		flags := stream[off+3]
		off += 4

		if flags&^lz4LastChunkFlag != 0 {
			return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownLZ4Flags, flags)
		}
		if size <= 0 || size > len(stream)-off {
			return nil, fmt.Errorf("%w: %d (remaining %d)", ErrInvalidChunkSize, size, len(stream)-off)
		}
		if written >= target {
			return nil, ErrDecodeOverrun
		}

		dst := out[written:min(written+ChunkSize, target)]
		n, err := lz4.UncompressBlockWithDict(stream[off:off+size], dst, dict.buf)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLZ4Decode, err)
		}
		off += size

		dict.push(out[written : written+n])
		written += n

		if flags&lz4LastChunkFlag != 0 {
			if off != len(stream) {
				return nil, fmt.Errorf("%w: %d bytes left after decode", ErrDecodedSizeMismatch, len(stream)-off)
			}
			break
		}
	}

	if written != target {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDecodedSizeMismatch, target, written)
	}

	return out, nil
}

// readBlockTable reads count table entries. Bodies are allocated only once
// the table fits the bytes left in r.
func readBlockTable(r *bytes.Reader, count int) ([]eddsBlock, error) {
	type entry struct {
		Magic [4]byte
		Size  int32
	}

	entries := make([]entry, count)
	total := int64(0)
	for i := range entries {
		e := &entries[i]
		if err := binary.Read(r, binary.LittleEndian, e); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrBlockTable, i, err)
		}

		magic := string(e.Magic[:])
		if magic != BlockMagicCOPY && magic != BlockMagicLZ4 {
			return nil, fmt.Errorf("%w: entry %d: magic %q", ErrBlockTable, i, magic)
		}
		if e.Size < 0 {
			return nil, fmt.Errorf("%w: entry %d: size %d", ErrBlockTable, i, e.Size)
		}
		total += int64(e.Size)
	}
	if total > int64(r.Len()) {
		return nil, fmt.Errorf("%w: blocks need %d bytes, %d left", ErrBlockTable, total, r.Len())
	}

	table := make([]eddsBlock, count)
	for i, e := range entries {
		table[i] = eddsBlock{magic: string(e.Magic[:]), body: make([]byte, e.Size)}
	}

	return table, nil
}

// writeBlocks writes the table followed by the bodies.
func writeBlocks(w io.Writer, blocks []*eddsBlock) error {
	for i, b := range blocks {
		size, err := b.size()
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, b.magic); err != nil {
			return fmt.Errorf("%w: table entry %d: %v", ErrWriteFile, i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, size); err != nil {
			return fmt.Errorf("%w: table entry %d: %v", ErrWriteFile, i, err)
		}
	}

	for i, b := range blocks {
		if _, err := w.Write(b.body); err != nil {
			return fmt.Errorf("%w: block %d: %v", ErrWriteFile, i, err)
		}
	}

	return nil
}
