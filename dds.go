package toktx

import (
	"fmt"

	"github.com/woozymasta/bcn"
)

const ddsMagic = "DDS "

// DXGI formats an EDDS DX10 header may carry.
var dxgiFormats = map[uint32]bcn.Format{
	71: bcn.FormatDXT1,
	74: bcn.FormatDXT3,
	77: bcn.FormatDXT5,
	80: bcn.FormatBC4,
	83: bcn.FormatBC5,
	87: bcn.FormatBGRA8,
	28: bcn.FormatRGBA8,
}

// fourCCFormats maps FourCC codes found in DDS headers.
var fourCCFormats = map[string]bcn.Format{
	"DXT1": bcn.FormatDXT1,
	"DXT2": bcn.FormatDXT3,
	"DXT3": bcn.FormatDXT3,
	"DXT4": bcn.FormatDXT5,
	"DXT5": bcn.FormatDXT5,
	"ATI1": bcn.FormatBC4,
	"BC4U": bcn.FormatBC4,
	"BC4S": bcn.FormatBC4,
	"ATI2": bcn.FormatBC5,
	"BC5U": bcn.FormatBC5,
	"BC5S": bcn.FormatBC5,
}

// fourCCByFormat is the code written for each format.
var fourCCByFormat = map[bcn.Format]string{
	bcn.FormatDXT1: "DXT1",
	bcn.FormatDXT3: "DXT3",
	bcn.FormatDXT5: "DXT5",
	bcn.FormatBC4:  "ATI1",
	bcn.FormatBC5:  "ATI2",
}

// ddsChannelMasks are the RGBA bit masks of the 32-bit uncompressed layouts.
var ddsChannelMasks = map[bcn.Format][4]uint32{
	bcn.FormatRGBA8: {0x000000ff, 0x0000ff00, 0x00ff0000, 0xff000000},
	bcn.FormatBGRA8: {0x00ff0000, 0x0000ff00, 0x000000ff, 0xff000000},
}

// detectDDSFormat reads the pixel format out of a DDS header pair.
func detectDDSFormat(header *bcn.DDSHeader, dx10 *bcn.DDSHeaderDX10) (bcn.Format, string) {
	if dx10 != nil {
		if f, ok := dxgiFormats[dx10.DXGIFormat]; ok {
			return f, fmt.Sprintf("DXGI %d", dx10.DXGIFormat)
		}
		return bcn.FormatUnknown, fmt.Sprintf("DXGI %d", dx10.DXGIFormat)
	}

	pf := header.PixelFormat
	if pf.Flags&bcn.DDSPFFourCC != 0 {
		code := fourCCString(pf.FourCC)
		if f, ok := fourCCFormats[code]; ok {
			return f, code
		}
		return bcn.FormatUnknown, code
	}

	if pf.Flags&bcn.DDSPFRGB != 0 && pf.Flags&bcn.DDSPFAlphaPixels != 0 && pf.RGBBitCount == 32 {
		masks := [4]uint32{pf.RBitMask, pf.GBitMask, pf.BBitMask, pf.ABitMask}
		for f, m := range ddsChannelMasks {
			if m == masks {
				return f, f.String()
			}
		}
	}

	return bcn.FormatUnknown, "UNKNOWN"
}

func fourCCString(v uint32) string {
	return string([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func fourCC(code string) uint32 {
	return uint32(code[0]) | uint32(code[1])<<8 | uint32(code[2])<<16 | uint32(code[3])<<24
}

// eddsDataLength is the payload size of one EDDS level.
func eddsDataLength(format bcn.Format, width, height int) int {
	switch format {
	case bcn.FormatRGBA8, bcn.FormatBGRA8:
		return width * height * 4
	default:
		return bcDataLength(formatFromBCN(format), width, height)
	}
}

// enfusionReserved1 tags the header as written for the Enfusion engine.
func enfusionReserved1() [11]uint32 {
	var r [11]uint32
	r[1] = fourCC("ENF1")
	return r
}

// makeDDSHeader builds the DDS header of an EDDS file.
func makeDDSHeader(width, height, mipMapCount uint32, format bcn.Format) (*bcn.DDSHeader, error) {
	hdr := &bcn.DDSHeader{
		Size:        bcn.DDSHeaderSize,
		Flags:       uint32(bcn.DDSFlagCaps | bcn.DDSFlagHeight | bcn.DDSFlagWidth | bcn.DDSFlagPixelFormat),
		Height:      height,
		Width:       width,
		Depth:       1,
		MipMapCount: mipMapCount,
		Reserved1:   enfusionReserved1(),
		Caps:        uint32(bcn.DDSCapsTexture),
	}
	hdr.PixelFormat.Size = bcn.DDSPixelFormatSize
	if mipMapCount > 1 {
		hdr.Flags |= bcn.DDSFlagMipmapCount
		hdr.Caps |= bcn.DDSCapsComplex | bcn.DDSCapsMipmap
	}

	if code, ok := fourCCByFormat[format]; ok {
		hdr.Flags |= bcn.DDSFlagLinearSize
		hdr.PixelFormat.Flags = bcn.DDSPFFourCC
		hdr.PixelFormat.FourCC = fourCC(code)
		return hdr, nil
	}

	masks, ok := ddsChannelMasks[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEDDSFormat, format)
	}

	hdr.Flags |= bcn.DDSFlagPitch
	hdr.PixelFormat.Flags = bcn.DDSPFRGB | bcn.DDSPFAlphaPixels
	hdr.PixelFormat.RGBBitCount = 32
	hdr.PixelFormat.RBitMask = masks[0]
	hdr.PixelFormat.GBitMask = masks[1]
	hdr.PixelFormat.BBitMask = masks[2]
	hdr.PixelFormat.ABitMask = masks[3]
	hdr.PitchOrLinearSize = width * 4

	return hdr, nil
}
