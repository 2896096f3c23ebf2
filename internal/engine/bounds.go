package engine

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// WorldRadius is the mesh radius scaled by the largest world scale axis.
func (g *GameObject) WorldRadius() float32 {
	s := g.WorldScale()
	m := absf(s.X)
	if absf(s.Y) > m {
		m = absf(s.Y)
	}
	if absf(s.Z) > m {
		m = absf(s.Z)
	}
	return g.Radius * m
}

// BoundingSphere returns a sphere enclosing every mesh in the subtree rooted
// at g. ok is false when the subtree holds no mesh.
func (g *GameObject) BoundingSphere() (center rl.Vector3, radius float32, ok bool) {
	var min, max rl.Vector3
	found := false

	var walk func(n *GameObject)
	walk = func(n *GameObject) {
		if n.Mesh {
			c := n.WorldPosition()
			r := n.WorldRadius()
			lo := rl.Vector3{X: c.X - r, Y: c.Y - r, Z: c.Z - r}
			hi := rl.Vector3{X: c.X + r, Y: c.Y + r, Z: c.Z + r}
			if !found {
				min, max = lo, hi
				found = true
			} else {
				min = rl.Vector3{X: minf(min.X, lo.X), Y: minf(min.Y, lo.Y), Z: minf(min.Z, lo.Z)}
				max = rl.Vector3{X: maxf(max.X, hi.X), Y: maxf(max.Y, hi.Y), Z: maxf(max.Z, hi.Z)}
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(g)

	if !found {
		return rl.Vector3{}, 0, false
	}
	center = rl.Vector3Scale(rl.Vector3Add(min, max), 0.5)
	half := rl.Vector3Scale(rl.Vector3Subtract(max, min), 0.5)
	radius = float32(math.Sqrt(float64(half.X*half.X + half.Y*half.Y + half.Z*half.Z)))
	return center, radius, true
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
