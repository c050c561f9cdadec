package region

import "math"

// Size is the edge length of a region in world units.
const Size = 16

// ID identifies a region by its integer grid coordinates.
type ID struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}

// Vec2 is a horizontal world-space vector. Height is irrelevant to regions.
type Vec2 struct {
	X float64
	Z float64
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Z: v.Z + o.Z} }

func (v Vec2) LengthSquared() float64 { return v.X*v.X + v.Z*v.Z }

// BlockCoord returns the integer block holding v. It floors toward negative
// infinity so that -0.5 lands in block -1, not 0.
func BlockCoord(v float64) int32 {
	return int32(math.Floor(v))
}

// FromPosition returns the region containing a world position: the region of
// the block the position falls in.
func FromPosition(p Vec2) ID {
	return FromBlock(BlockCoord(p.X), BlockCoord(p.Z))
}

// FromBlock returns the region containing an integer block coordinate.
func FromBlock(x, z int32) ID {
	return ID{X: floorDiv(x, Size), Z: floorDiv(z, Size)}
}

func floorDiv(v, d int32) int32 {
	if v < 0 {
		return (v - d + 1) / d
	}
	return v / d
}

// Predict returns the region an entity will occupy after one step of velocity.
func Predict(pos, vel Vec2) ID {
	return FromPosition(pos.Add(vel))
}

// Block3x3 returns the 3x3 neighbourhood centred on c, row-major by X.
func Block3x3(c ID) []ID {
	out := make([]ID, 0, 9)
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			out = append(out, ID{X: c.X + dx, Z: c.Z + dz})
		}
	}
	return out
}

// Less orders regions by X then Z.
func Less(a, b ID) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Z < b.Z
}
