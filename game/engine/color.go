package engine

import "math/bits"

// ColorTier is the symbolic color class of a tile value. Tiers are ordered:
// 2 is tier 0 and 32768 is tier 14.
type ColorTier int

// TierNeutral is the class of empty cells and unrecognized values.
const TierNeutral ColorTier = -1

// palette holds the tier names; 1024 and 4096 share a shade but keep distinct tiers.
var palette = [...]string{
	"SkyBlue",
	"CornflowerBlue",
	"DodgerBlue",
	"RoyalBlue",
	"SlateBlue",
	"DarkSlateBlue",
	"BlueViolet",
	"DarkViolet",
	"MediumVioletRed",
	"PaleVioletRed",
	"Violet",
	"PaleVioletRed",
	"OrangeRed",
	"IndianRed",
	"DarkRed",
}

// TierCount is the number of non-neutral tiers.
const TierCount = len(palette)

// GetColorClass maps a tile value to its color tier.
func GetColorClass(value Tile) ColorTier {
	if !IsPowerOfTwo(value) || value > MaxTileValue {
		return TierNeutral
	}
	return ColorTier(bits.TrailingZeros(uint(value)) - 1)
}

// String returns the palette color of the tier.
func (t ColorTier) String() string {
	if t < 0 || int(t) >= len(palette) {
		return "White"
	}
	return palette[t]
}

// ColorTiers maps every cell of grid to its tier.
func ColorTiers(grid [][]Tile) [][]ColorTier {
	out := make([][]ColorTier, len(grid))
	for r, row := range grid {
		out[r] = make([]ColorTier, len(row))
		for c, v := range row {
			out[r][c] = GetColorClass(v)
		}
	}
	return out
}
