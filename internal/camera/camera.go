package camera

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// EyeHeight is the standing head height used for the default pose.
const EyeHeight = 1.6

// Pose is a world transform for a head or a controller. Local -Z is forward.
type Pose struct {
	Position    rl.Vector3
	Orientation rl.Quaternion
}

// Identity faces -Z from the origin.
func Identity() Pose {
	return Pose{Orientation: rl.QuaternionIdentity()}
}

// At returns an identity-oriented pose at position.
func At(position rl.Vector3) Pose {
	return Pose{Position: position, Orientation: rl.QuaternionIdentity()}
}

// YawPitch builds a pose from angles in degrees. Positive yaw turns left,
// positive pitch looks up.
func YawPitch(position rl.Vector3, yaw, pitch float32) Pose {
	qYaw := rl.QuaternionFromAxisAngle(rl.Vector3{Y: 1}, yaw*rl.Deg2rad)
	qPitch := rl.QuaternionFromAxisAngle(rl.Vector3{X: 1}, pitch*rl.Deg2rad)
	return Pose{Position: position, Orientation: rl.QuaternionMultiply(qYaw, qPitch)}
}

func (p Pose) rotation() rl.Quaternion {
	if p.Orientation == (rl.Quaternion{}) {
		return rl.QuaternionIdentity()
	}
	return p.Orientation
}

func (p Pose) Forward() rl.Vector3 {
	return rl.Vector3Normalize(rl.Vector3RotateByQuaternion(rl.Vector3{Z: -1}, p.rotation()))
}

func (p Pose) Right() rl.Vector3 {
	return rl.Vector3Normalize(rl.Vector3RotateByQuaternion(rl.Vector3{X: 1}, p.rotation()))
}

func (p Pose) Up() rl.Vector3 {
	return rl.Vector3Normalize(rl.Vector3RotateByQuaternion(rl.Vector3{Y: 1}, p.rotation()))
}

// Ray is the pointing ray of the pose.
func (p Pose) Ray() rl.Ray {
	return rl.Ray{Position: p.Position, Direction: p.Forward()}
}

// Offset returns the pose translated by delta, keeping its orientation.
func (p Pose) Offset(delta rl.Vector3) Pose {
	return Pose{Position: rl.Vector3Add(p.Position, delta), Orientation: p.Orientation}
}

// Camera3D converts the pose to a raylib camera for hosts that render.
func (p Pose) Camera3D(lens Lens) rl.Camera3D {
	return rl.Camera3D{
		Position:   p.Position,
		Target:     rl.Vector3Add(p.Position, p.Forward()),
		Up:         p.Up(),
		Fovy:       lens.Fovy,
		Projection: rl.CameraPerspective,
	}
}

// Lens holds the projection parameters. Fovy is in degrees.
type Lens struct {
	Fovy   float32 `yaml:"fovy"`
	Aspect float32 `yaml:"aspect"`
	Near   float32 `yaml:"near"`
	Far    float32 `yaml:"far"`
}

func DefaultLens() Lens {
	return Lens{Fovy: 80, Aspect: 1.6, Near: 0.005, Far: 10000}
}

// Distance is the straight-line distance between the pose and target.
func (p Pose) Distance(target rl.Vector3) float32 {
	return rl.Vector3Distance(p.Position, target)
}

func deg(rad float64) float64 {
	return rad * 180 / math.Pi
}
