package toktx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

const (
	ktxEndianness = 0x04030201
	// ktxHeaderSize covers the identifier and the thirteen header fields.
	ktxHeaderSize    = 64
	ktxIdentifierLen = 12
	ktxWriterKey     = "KTXwriter"
	ktxWriterValue   = "toktx"
)

var ktxIdentifier = [ktxIdentifierLen]byte{0xAB, 'K', 'T', 'X', ' ', '1', '1', 0xBB, '\r', '\n', 0x1A, '\n'}

// ktxHeader holds the thirteen uint32 fields after the identifier.
type ktxHeader struct {
	Endianness            uint32
	GLType                uint32
	GLTypeSize            uint32
	GLFormat              uint32
	GLInternalFormat      uint32
	GLBaseInternalFormat  uint32
	PixelWidth            uint32
	PixelHeight           uint32
	PixelDepth            uint32
	NumberOfArrayElements uint32
	NumberOfFaces         uint32
	NumberOfMipmapLevels  uint32
	BytesOfKeyValueData   uint32
}

func pad4(n int) int {
	return (n + 3) &^ 3
}

// writeKTX serializes the container as KTX 1.1.
func (c *Container) writeKTX(w io.Writer) error {
	const op = "cannot save KTX texture"

	hdr := ktxHeader{
		Endianness:           ktxEndianness,
		GLTypeSize:           1,
		GLInternalFormat:     c.glFormat,
		GLBaseInternalFormat: c.desc.base,
		NumberOfFaces:        1,
	}
	if !c.desc.compressed {
		hdr.GLType = glUnsignedByte
		hdr.GLFormat = c.desc.base
	}

	var err error
	if hdr.PixelWidth, err = u32FromInt(c.width); err != nil {
		return containerErr(op, CodeFileOverflow, err)
	}
	if hdr.PixelHeight, err = u32FromInt(c.height); err != nil {
		return containerErr(op, CodeFileOverflow, err)
	}
	if c.depth > 1 {
		if hdr.PixelDepth, err = u32FromInt(c.depth); err != nil {
			return containerErr(op, CodeFileOverflow, err)
		}
	}
	if !c.generate {
		if hdr.NumberOfMipmapLevels, err = u32FromInt(len(c.levels)); err != nil {
			return containerErr(op, CodeFileOverflow, err)
		}
	}

	kv := encodeKTXKeyValues(map[string]string{ktxWriterKey: ktxWriterValue})
	if hdr.BytesOfKeyValueData, err = u32FromInt(len(kv)); err != nil {
		return containerErr(op, CodeFileOverflow, err)
	}

	var buf bytes.Buffer
	buf.Write(ktxIdentifier[:])
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return containerErr(op, CodeFileWriteError, err)
	}
	buf.Write(kv)

	var zero [4]byte
	for i, level := range c.levels {
		if level == nil {
			return containerErr(op, CodeInvalidOperation, fmt.Errorf("level %d has no data", i))
		}

		lw, lh, ld := c.levelDims(i)
		data := level
		if !c.desc.compressed && c.desc.channels > 0 {
			data = padRows(level, lw*c.desc.channels, lh*ld)
		}

		size, err := u32FromInt(len(data))
		if err != nil {
			return containerErr(op, CodeFileOverflow, err)
		}
		_ = binary.Write(&buf, binary.LittleEndian, size)
		buf.Write(data)
		buf.Write(zero[:pad4(len(data))-len(data)])
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return containerErr(op, CodeFileWriteError, err)
	}

	return nil
}

// encodeKTXKeyValues lays out key/value pairs in key order, each padded to 4 bytes.
func encodeKTXKeyValues(kv map[string]string) []byte {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		entry := k + "\x00" + kv[k] + "\x00"
		// #nosec G115 -- entries are short literals.
		_ = binary.Write(&buf, binary.LittleEndian, uint32(len(entry)))
		buf.WriteString(entry)
		buf.Write(make([]byte, pad4(len(entry))-len(entry)))
	}

	return buf.Bytes()
}

// padRows copies rows of rowBytes each into 4-byte aligned rows.
func padRows(data []byte, rowBytes, rows int) []byte {
	stride := pad4(rowBytes)
	if stride == rowBytes {
		return data
	}

	out := make([]byte, stride*rows)
	for r := 0; r < rows; r++ {
		copy(out[r*stride:], data[r*rowBytes:(r+1)*rowBytes])
	}

	return out
}

// unpadRows strips 4-byte row alignment.
func unpadRows(data []byte, rowBytes, rows int) []byte {
	stride := pad4(rowBytes)
	if stride == rowBytes {
		return data
	}

	out := make([]byte, rowBytes*rows)
	for r := 0; r < rows; r++ {
		copy(out[r*rowBytes:], data[r*stride:r*stride+rowBytes])
	}

	return out
}

// readKTX parses a KTX 1.1 file in either byte order.
func readKTX(data []byte) (*Container, error) {
	const op = "cannot load KTX texture"

	if !bytes.HasPrefix(data, ktxIdentifier[:]) {
		return nil, containerErr(op, CodeUnknownFileFormat, nil)
	}
	if len(data) < ktxHeaderSize {
		return nil, containerErr(op, CodeFileUnexpectedEOF, nil)
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch binary.LittleEndian.Uint32(data[ktxIdentifierLen:]) {
	case ktxEndianness:
	case 0x01020304:
		order = binary.BigEndian
	default:
		return nil, containerErr(op, CodeFileDataError, fmt.Errorf("bad endianness marker"))
	}

	r := bytes.NewReader(data[ktxIdentifierLen:])
	var hdr ktxHeader
	if err := binary.Read(r, order, &hdr); err != nil {
		return nil, containerErr(op, CodeFileUnexpectedEOF, err)
	}

	if hdr.NumberOfArrayElements != 0 || hdr.NumberOfFaces != 1 {
		return nil, containerErr(op, CodeUnsupportedTextureType,
			fmt.Errorf("%d array elements, %d faces", hdr.NumberOfArrayElements, hdr.NumberOfFaces))
	}
	if hdr.PixelWidth == 0 {
		return nil, containerErr(op, CodeFileDataError, fmt.Errorf("zero width"))
	}
	if hdr.PixelWidth > maxTextureDimension || hdr.PixelHeight > maxTextureDimension || hdr.PixelDepth > maxTextureDimension {
		return nil, containerErr(op, CodeFileDataError,
			fmt.Errorf("%w: %dx%dx%d", ErrSizeOverflow, hdr.PixelWidth, hdr.PixelHeight, hdr.PixelDepth))
	}

	desc, err := describeGL(hdr.GLInternalFormat)
	if err != nil {
		desc = glDesc{internal: hdr.GLInternalFormat, base: hdr.GLBaseInternalFormat, compressed: hdr.GLType == 0}
	}

	c := &Container{
		glFormat: hdr.GLInternalFormat,
		desc:     desc,
		width:    int(hdr.PixelWidth),
		height:   max(int(hdr.PixelHeight), 1),
		depth:    max(int(hdr.PixelDepth), 1),
		backend:  BackendKTX,
		generate: hdr.NumberOfMipmapLevels == 0,
	}

	kvSize := int(hdr.BytesOfKeyValueData)
	if kvSize > r.Len() {
		return nil, containerErr(op, CodeFileUnexpectedEOF, fmt.Errorf("key/value data"))
	}
	kv := make([]byte, kvSize)
	_, _ = io.ReadFull(r, kv)
	if c.metadata, err = decodeKTXKeyValues(kv, order); err != nil {
		return nil, containerErr(op, CodeFileDataError, err)
	}

	levels := max(int(hdr.NumberOfMipmapLevels), 1)
	if err := checkLevelCount(levels, c.width, c.height, c.depth); err != nil {
		return nil, containerErr(op, CodeFileDataError, err)
	}
	c.levels = make([][]byte, levels)
	for i := 0; i < levels; i++ {
		var size uint32
		if err := binary.Read(r, order, &size); err != nil {
			return nil, containerErr(op, CodeFileUnexpectedEOF, fmt.Errorf("level %d size: %w", i, err))
		}
		if int64(size) > int64(r.Len()) {
			return nil, containerErr(op, CodeFileUnexpectedEOF, fmt.Errorf("level %d: %d bytes", i, size))
		}

		level := make([]byte, size)
		_, _ = io.ReadFull(r, level)
		if padding := pad4(len(level)) - len(level); padding <= r.Len() {
			_, _ = r.Seek(int64(padding), io.SeekCurrent)
		}

		if level, err = c.normalizeLevel(i, level); err != nil {
			return nil, containerErr(op, CodeFileDataError, err)
		}
		c.levels[i] = level
	}

	return c, nil
}

// normalizeLevel strips row padding of uncompressed levels and checks sizes
// of known formats.
func (c *Container) normalizeLevel(i int, level []byte) ([]byte, error) {
	w, h, d := c.levelDims(i)

	if !c.desc.compressed && c.desc.channels > 0 {
		rowBytes := w * c.desc.channels
		if want := pad4(rowBytes) * h * d; len(level) != want {
			return nil, fmt.Errorf("level %d holds %d bytes, expected %d", i, len(level), want)
		}
		return unpadRows(level, rowBytes, h*d), nil
	}

	if want := levelSize(c.desc, w, h, d); want >= 0 && len(level) != want {
		return nil, fmt.Errorf("level %d holds %d bytes, expected %d", i, len(level), want)
	}

	return level, nil
}

// decodeKTXKeyValues parses the key/value block.
func decodeKTXKeyValues(data []byte, order binary.ByteOrder) (map[string]string, error) {
	out := map[string]string{}
	for off := 0; off < len(data); {
		if len(data)-off < 4 {
			return nil, fmt.Errorf("truncated key/value size")
		}
		n := int(order.Uint32(data[off:]))
		off += 4
		if n > len(data)-off {
			return nil, fmt.Errorf("key/value entry of %d bytes overruns block", n)
		}

		entry := data[off : off+n]
		off += pad4(n)

		key, value, _ := bytes.Cut(entry, []byte{0})
		out[string(key)] = string(bytes.TrimSuffix(value, []byte{0}))
	}

	return out, nil
}
