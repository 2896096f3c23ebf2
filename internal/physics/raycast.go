package physics

import (
	"math"

	"xrmuseum/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type RaycastHit struct {
	GameObject *engine.GameObject
	Point      rl.Vector3
	Normal     rl.Vector3
	UV         rl.Vector2
	Distance   float32
}

// Caster casts rays against explicit target lists. Each target is searched
// together with its visible descendants. Nodes with a box or sphere collider
// are tested against it; mesh nodes without one fall back to their bounding
// sphere.
type Caster struct{}

// Cast returns the nearest hit along ray within maxDistance. Equal distances
// keep the first hit found in target order.
func (Caster) Cast(ray rl.Ray, targets []*engine.GameObject, maxDistance float32) (RaycastHit, bool) {
	direction := rl.Vector3Normalize(ray.Direction)
	if direction == (rl.Vector3{}) {
		return RaycastHit{}, false
	}
	var closestHit RaycastHit
	closestHit.Distance = maxDistance
	hit := false

	consider := func(hitInfo RaycastHit, ok bool, obj *engine.GameObject) {
		if ok && (!hit || hitInfo.Distance < closestHit.Distance) {
			closestHit = hitInfo
			closestHit.GameObject = obj
			hit = true
		}
	}

	var visit func(obj *engine.GameObject)
	visit = func(obj *engine.GameObject) {
		if obj == nil || !obj.Active {
			return
		}
		box := engine.GetComponent[*BoxCollider](obj)
		sphere := engine.GetComponent[*SphereCollider](obj)
		if box != nil {
			h, ok := raycastBox(ray.Position, direction, box, maxDistance)
			consider(h, ok, obj)
		}
		if sphere != nil {
			h, ok := raycastSphere(ray.Position, direction, sphere.GetCenter(), sphere.GetWorldRadius(), maxDistance)
			consider(h, ok, obj)
		}
		if box == nil && sphere == nil && obj.Mesh {
			h, ok := raycastSphere(ray.Position, direction, obj.WorldPosition(), obj.WorldRadius(), maxDistance)
			consider(h, ok, obj)
		}
		for _, c := range obj.Children {
			visit(c)
		}
	}

	for _, obj := range targets {
		if obj != nil && !obj.Visible() {
			continue
		}
		visit(obj)
	}

	return closestHit, hit
}

func raycastBox(origin, direction rl.Vector3, box *BoxCollider, maxDistance float32) (RaycastHit, bool) {
	center := box.GetCenter()
	// Use world-scaled size with absolute values to handle negative sizes
	worldSize := box.GetWorldSize()
	halfSize := rl.Vector3{X: abs(worldSize.X) / 2, Y: abs(worldSize.Y) / 2, Z: abs(worldSize.Z) / 2}

	min := rl.Vector3{X: center.X - halfSize.X, Y: center.Y - halfSize.Y, Z: center.Z - halfSize.Z}
	max := rl.Vector3{X: center.X + halfSize.X, Y: center.Y + halfSize.Y, Z: center.Z + halfSize.Z}

	tmin := float32(-1e30)
	tmax := float32(1e30)

	slab := func(o, d, lo, hi float32) bool {
		if d == 0 {
			return o >= lo && o <= hi
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		return tmin <= tmax
	}

	if !slab(origin.X, direction.X, min.X, max.X) ||
		!slab(origin.Y, direction.Y, min.Y, max.Y) ||
		!slab(origin.Z, direction.Z, min.Z, max.Z) {
		return RaycastHit{}, false
	}

	if tmax < 0 || tmin > maxDistance {
		return RaycastHit{}, false
	}

	t := tmin
	if t < 0 {
		t = tmax
	}
	if t < 0 || t > maxDistance {
		return RaycastHit{}, false
	}

	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	size := rl.Vector3Subtract(max, min)

	// Calculate normal based on which face was hit
	var normal rl.Vector3
	var uv rl.Vector2
	epsilon := float32(0.001)
	switch {
	case abs(point.X-min.X) < epsilon:
		normal = rl.Vector3{X: -1}
		uv = rl.Vector2{X: ratio(point.Z-min.Z, size.Z), Y: ratio(point.Y-min.Y, size.Y)}
	case abs(point.X-max.X) < epsilon:
		normal = rl.Vector3{X: 1}
		uv = rl.Vector2{X: ratio(point.Z-min.Z, size.Z), Y: ratio(point.Y-min.Y, size.Y)}
	case abs(point.Y-min.Y) < epsilon:
		normal = rl.Vector3{Y: -1}
		uv = rl.Vector2{X: ratio(point.X-min.X, size.X), Y: ratio(point.Z-min.Z, size.Z)}
	case abs(point.Y-max.Y) < epsilon:
		normal = rl.Vector3{Y: 1}
		uv = rl.Vector2{X: ratio(point.X-min.X, size.X), Y: ratio(point.Z-min.Z, size.Z)}
	case abs(point.Z-min.Z) < epsilon:
		normal = rl.Vector3{Z: -1}
		uv = rl.Vector2{X: ratio(point.X-min.X, size.X), Y: ratio(point.Y-min.Y, size.Y)}
	default:
		normal = rl.Vector3{Z: 1}
		uv = rl.Vector2{X: ratio(point.X-min.X, size.X), Y: ratio(point.Y-min.Y, size.Y)}
	}

	return RaycastHit{Point: point, Normal: normal, UV: uv, Distance: t}, true
}

func raycastSphere(origin, direction, center rl.Vector3, radius, maxDistance float32) (RaycastHit, bool) {
	if radius <= 0 {
		return RaycastHit{}, false
	}
	oc := rl.Vector3Subtract(origin, center)
	a := rl.Vector3DotProduct(direction, direction)
	b := 2.0 * rl.Vector3DotProduct(oc, direction)
	c := rl.Vector3DotProduct(oc, oc) - radius*radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return RaycastHit{}, false
	}

	t := (-b - float32(math.Sqrt(float64(discriminant)))) / (2 * a)
	if t < 0 {
		t = (-b + float32(math.Sqrt(float64(discriminant)))) / (2 * a)
	}
	if t < 0 || t > maxDistance {
		return RaycastHit{}, false
	}

	point := rl.Vector3Add(origin, rl.Vector3Scale(direction, t))
	normal := rl.Vector3Normalize(rl.Vector3Subtract(point, center))

	return RaycastHit{Point: point, Normal: normal, UV: sphereUV(normal), Distance: t}, true
}

// sphereUV maps a unit normal to equirectangular texture coordinates.
func sphereUV(n rl.Vector3) rl.Vector2 {
	u := 0.5 + math.Atan2(float64(n.X), float64(n.Z))/(2*math.Pi)
	v := 0.5 + math.Asin(float64(clamp(n.Y, -1, 1)))/math.Pi
	return rl.Vector2{X: float32(u), Y: float32(v)}
}

func ratio(v, size float32) float32 {
	if size == 0 {
		return 0
	}
	return clamp(v/size, 0, 1)
}

func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
