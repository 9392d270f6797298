// Package pose provides rigid transforms in homogeneous 4x4 form.
//
// Tracking sources report every hand joint relative to a hand anchor, and
// the anchor relative to the world origin. A world position is recovered by
// composing the two transforms and reading the translation column.
package pose

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Transform is an immutable homogeneous transform. The zero value is the identity.
type Transform struct {
	m *mat.Dense
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{m: identityDense()}
}

func identityDense() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// FromTranslation returns a pure translation.
func FromTranslation(v r3.Vector) Transform {
	d := identityDense()
	d.Set(0, 3, v.X)
	d.Set(1, 3, v.Y)
	d.Set(2, 3, v.Z)
	return Transform{m: d}
}

// FromAxisAngle returns a rotation of angle radians about axis followed by
// a translation. A zero axis yields a pure translation.
func FromAxisAngle(axis r3.Vector, angle float64, translation r3.Vector) Transform {
	n := axis.Norm()
	if n == 0 {
		return FromTranslation(translation)
	}
	a := axis.Mul(1 / n)
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c

	d := mat.NewDense(4, 4, []float64{
		t*a.X*a.X + c, t*a.X*a.Y - s*a.Z, t*a.X*a.Z + s*a.Y, translation.X,
		t*a.X*a.Y + s*a.Z, t*a.Y*a.Y + c, t*a.Y*a.Z - s*a.X, translation.Y,
		t*a.X*a.Z - s*a.Y, t*a.Y*a.Z + s*a.X, t*a.Z*a.Z + c, translation.Z,
		0, 0, 0, 1,
	})
	return Transform{m: d}
}

// FromRowMajor builds a transform from 16 row-major values. The bottom row
// must be (0, 0, 0, 1).
func FromRowMajor(vals []float64) (Transform, error) {
	if len(vals) != 16 {
		return Transform{}, fmt.Errorf("pose: expected 16 values, got %d", len(vals))
	}
	if vals[12] != 0 || vals[13] != 0 || vals[14] != 0 || vals[15] != 1 {
		return Transform{}, fmt.Errorf("pose: bottom row must be (0, 0, 0, 1)")
	}
	data := make([]float64, 16)
	copy(data, vals)
	return Transform{m: mat.NewDense(4, 4, data)}, nil
}

func (t Transform) dense() *mat.Dense {
	if t.m == nil {
		return identityDense()
	}
	return t.m
}

// Compose returns t followed by other, i.e. the matrix product t * other.
// With t = originFromAnchor and other = anchorFromJoint the result is
// originFromJoint.
func (t Transform) Compose(other Transform) Transform {
	var out mat.Dense
	out.Mul(t.dense(), other.dense())
	return Transform{m: &out}
}

// Translation returns the translation column.
func (t Transform) Translation() r3.Vector {
	d := t.dense()
	return r3.Vector{X: d.At(0, 3), Y: d.At(1, 3), Z: d.At(2, 3)}
}

// Apply transforms a point.
func (t Transform) Apply(p r3.Vector) r3.Vector {
	d := t.dense()
	return r3.Vector{
		X: d.At(0, 0)*p.X + d.At(0, 1)*p.Y + d.At(0, 2)*p.Z + d.At(0, 3),
		Y: d.At(1, 0)*p.X + d.At(1, 1)*p.Y + d.At(1, 2)*p.Z + d.At(1, 3),
		Z: d.At(2, 0)*p.X + d.At(2, 1)*p.Y + d.At(2, 2)*p.Z + d.At(2, 3),
	}
}

// RowMajor returns a copy of the 16 matrix values in row-major order.
func (t Transform) RowMajor() []float64 {
	d := t.dense()
	out := make([]float64, 0, 16)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out = append(out, d.At(i, j))
		}
	}
	return out
}

// ApproxEqual reports whether all entries differ by at most eps.
func (t Transform) ApproxEqual(other Transform, eps float64) bool {
	return mat.EqualApprox(t.dense(), other.dense(), eps)
}

// MarshalJSON encodes the transform as 16 row-major numbers.
func (t Transform) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.RowMajor())
}

// UnmarshalJSON decodes 16 row-major numbers.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var vals []float64
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	parsed, err := FromRowMajor(vals)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
