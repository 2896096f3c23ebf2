package camera

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Bearings are measured clockwise from forward when viewed from above, with
// world +Y up. Screen-space inputs have Y pointing down and must be flipped
// by the caller before reaching Heading.

// Heading returns the clockwise angle in [0, 360) of a 2D offset given its
// components along right and forward.
func Heading(right, forward float32) float32 {
	if right == 0 && forward == 0 {
		return 0
	}
	a := deg(math.Atan2(float64(right), float64(forward)))
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return float32(a)
}

// Bearing returns the horizontal heading of target relative to pose.
func Bearing(pose Pose, target rl.Vector3) float32 {
	off := rl.Vector3Subtract(target, pose.Position)
	off.Y = 0

	fwd := pose.Forward()
	fwd.Y = 0
	if rl.Vector3Length(fwd) < 1e-4 {
		// Looking straight down the top of the head points forward, looking
		// straight up it points backward.
		up := pose.Up()
		if pose.Forward().Y > 0 {
			up = rl.Vector3Negate(up)
		}
		fwd = rl.Vector3{X: up.X, Z: up.Z}
	}
	fwd = rl.Vector3Normalize(fwd)
	right := rl.Vector3CrossProduct(fwd, rl.Vector3{Y: 1})

	return Heading(rl.Vector3DotProduct(off, right), rl.Vector3DotProduct(off, fwd))
}

// ClockSector maps a heading to an hour on a clock face. Hour n covers
// [30n-15, 30n+15) degrees and hour 0 reads as 12.
func ClockSector(angle float32) int {
	a := math.Mod(float64(angle), 360)
	if a < 0 {
		a += 360
	}
	s := int(math.Floor((a+15)/30)) % 12
	if s == 0 {
		return 12
	}
	return s
}
