package toktx

import "fmt"

const (
	// maxEDDSMipmaps caps the mip chain bcn generates for EDDS containers.
	maxEDDSMipmaps = 11
	// maxTextureDimension bounds each axis of a parsed container.
	maxTextureDimension = 1 << 16
)

// calculateMipMapCount returns the level count of a full chain down to 1x1,
// base level included.
func calculateMipMapCount(width, height int) (int, error) {
	count := 1
	w, err := u32FromInt(width)
	if err != nil {
		return 0, err
	}

	h, err := u32FromInt(height)
	if err != nil {
		return 0, err
	}

	for w > 1 || h > 1 {
		count++
		w = nextMipSize(w)
		h = nextMipSize(h)
	}

	return count, nil
}

// checkLevelCount rejects level counts longer than the full chain of a
// width x height x depth texture.
func checkLevelCount(count, width, height, depth int) error {
	limit, err := calculateMipMapCount(max(width, depth), height)
	if err != nil {
		return err
	}
	if count > limit {
		return fmt.Errorf("%d levels, a %dx%dx%d chain has %d", count, width, height, depth, limit)
	}

	return nil
}

// nextMipSize halves a dimension with floor division, clamped to 1.
func nextMipSize[T ~int | ~uint32](n T) T {
	if n/2 < 1 {
		return 1
	}

	return n / 2
}

// mipDimension calculates the dimension of a mipmap level.
func mipDimension(base, level int) int {
	result := base >> level
	if result < 1 {
		return 1
	}

	return result
}
