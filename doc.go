/*
Package toktx turns raster images into GPU-ready texture containers.

An Image is either raw interleaved pixels (RawImage), ASTC blocks (ASTCImage)
or BCn blocks (BCImage). A Texture owns a base Image plus an optional mipmap
chain built by halving until 1x1, and converts every level to one target
Format. A Container serializes a Texture or a single Image as KTX 1.1 or
EDDS, optionally wrapped in zstd, and extracts level 0 back into an Image.

ASTC block compression goes through codec.BlockCodec; the built-in codec
stores constant-colour blocks. The .astc file header is 16 bytes: magic
0x5CA1AB13, the block footprint, and width, height and depth as 24-bit
little-endian values.
*/
package toktx
