package toktx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/woozymasta/bcn"
)

// readEDDS parses an EDDS file into a container with every level unpacked.
func readEDDS(data []byte) (*Container, error) {
	const op = "cannot load EDDS texture"

	r := bytes.NewReader(data)
	header, err := bcn.ReadDDSHeader(r)
	if err != nil {
		return nil, containerErr(op, CodeFileUnexpectedEOF, fmt.Errorf("%w: %v", ErrDDSHeader, err))
	}
	dx10, err := bcn.ReadDDSHeaderDX10(r, header)
	if err != nil {
		return nil, containerErr(op, CodeFileUnexpectedEOF, fmt.Errorf("%w: DX10: %v", ErrDDSHeader, err))
	}

	format, name := detectDDSFormat(header, dx10)
	if format == bcn.FormatUnknown {
		return nil, containerErr(op, CodeUnsupportedTextureType, fmt.Errorf("%w: %s", ErrUnknownFormat, name))
	}

	width, height := int(header.Width), int(header.Height)
	if width == 0 || height == 0 {
		return nil, containerErr(op, CodeFileDataError, fmt.Errorf("%w: %dx%d", ErrZeroDimension, width, height))
	}
	if width > maxTextureDimension || height > maxTextureDimension {
		return nil, containerErr(op, CodeFileDataError, fmt.Errorf("%w: %dx%d", ErrSizeOverflow, width, height))
	}

	count := 1
	if header.Caps&bcn.DDSCapsMipmap != 0 && header.MipMapCount > 0 {
		count = int(header.MipMapCount)
	}
	if err := checkLevelCount(count, width, height, 1); err != nil {
		return nil, containerErr(op, CodeFileDataError, err)
	}

	bodyStart := int(r.Size()) - r.Len()
	levels, err := readEDDSLevels(r, format, width, height, count)
	if err != nil {
		level, legacyErr := readLegacyLevel(data[bodyStart:], format, width, height)
		if legacyErr != nil {
			return nil, containerErr(op, CodeFileDataError, fmt.Errorf("%w; single block: %v", err, legacyErr))
		}
		levels = [][]byte{level}
	}

	out, err := eddsContainer(format, width, height, levels)
	if err != nil {
		return nil, containerErr(op, CodeUnsupportedTextureType, err)
	}

	return out, nil
}

// readEDDSLevels reads the block table and every body. Bodies are stored from
// the smallest level to the largest; the result is largest first.
func readEDDSLevels(r *bytes.Reader, format bcn.Format, width, height, count int) ([][]byte, error) {
	table, err := readBlockTable(r, count)
	if err != nil {
		return nil, err
	}

	levels := make([][]byte, count)
	for i := range table {
		block := &table[i]
		if _, err := io.ReadFull(r, block.body); err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrShortRead, i, err)
		}

		level := count - 1 - i
		want := eddsDataLength(format, mipDimension(width, level), mipDimension(height, level))
		if want <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
		}

		raw, err := block.inflate(want)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", level, err)
		}
		if len(raw) != want {
			return nil, fmt.Errorf("%w: level %d: expected %d, got %d", ErrMipmapSizeMismatch, level, want, len(raw))
		}
		levels[level] = raw
	}

	return levels, nil
}

// readLegacyLevel handles old EDDS files that store one payload blob with no
// block table: an LZ4 chunk stream, or raw data of exactly the level size.
func readLegacyLevel(rest []byte, format bcn.Format, width, height int) ([]byte, error) {
	want := eddsDataLength(format, width, height)
	if want <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	raw, err := inflateChunkStream(rest, want)
	if err == nil {
		return raw, nil
	}
	if len(rest) == want {
		return rest, nil
	}

	return nil, err
}

// eddsContainer maps EDDS levels onto a container. BGRA levels are swapped
// to RGBA.
func eddsContainer(format bcn.Format, width, height int, levels [][]byte) (*Container, error) {
	var gl uint32
	switch format {
	case bcn.FormatBGRA8:
		for _, level := range levels {
			swapRB(level)
		}
		gl = glRGBA
	case bcn.FormatRGBA8:
		gl = glRGBA
	default:
		gl = glBCFormat(formatFromBCN(format), false)
	}

	desc, err := describeGL(gl)
	if err != nil {
		return nil, err
	}

	return &Container{
		glFormat: gl,
		desc:     desc,
		width:    width,
		height:   height,
		depth:    1,
		levels:   levels,
		backend:  BackendEDDS,
		metadata: map[string]string{"format": format.String()},
	}, nil
}

// swapRB exchanges the first and third byte of every 4-byte texel in place.
func swapRB(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
