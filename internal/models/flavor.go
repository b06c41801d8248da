// internal/models/flavor.go
package models

// NumDimensions is the number of flavor dimensions a Vector carries.
const NumDimensions = 5

// Vector holds one value per flavor dimension. It is a plain value type;
// every operation returns a new Vector and never mutates the receiver.
type Vector struct {
	Sweet  int `json:"sweet"`
	Spicy  int `json:"spicy"`
	Sour   int `json:"sour"`
	Bitter int `json:"bitter"`
	Fresh  int `json:"fresh"`
}

// VectorFromValues builds a Vector from dimensions in canonical order
// (sweet, spicy, sour, bitter, fresh).
func VectorFromValues(vals [NumDimensions]int) Vector {
	return Vector{
		Sweet:  vals[0],
		Spicy:  vals[1],
		Sour:   vals[2],
		Bitter: vals[3],
		Fresh:  vals[4],
	}
}

// Add returns the element-wise sum of v and o.
func (v Vector) Add(o Vector) Vector {
	return Vector{
		Sweet:  v.Sweet + o.Sweet,
		Spicy:  v.Spicy + o.Spicy,
		Sour:   v.Sour + o.Sour,
		Bitter: v.Bitter + o.Bitter,
		Fresh:  v.Fresh + o.Fresh,
	}
}

// Scale returns v with every dimension multiplied by k.
func (v Vector) Scale(k int) Vector {
	return Vector{
		Sweet:  v.Sweet * k,
		Spicy:  v.Spicy * k,
		Sour:   v.Sour * k,
		Bitter: v.Bitter * k,
		Fresh:  v.Fresh * k,
	}
}

// Max returns the element-wise maximum of v and o.
func (v Vector) Max(o Vector) Vector {
	return Vector{
		Sweet:  maxInt(v.Sweet, o.Sweet),
		Spicy:  maxInt(v.Spicy, o.Spicy),
		Sour:   maxInt(v.Sour, o.Sour),
		Bitter: maxInt(v.Bitter, o.Bitter),
		Fresh:  maxInt(v.Fresh, o.Fresh),
	}
}

// Meets reports whether v reaches required in every dimension.
func (v Vector) Meets(required Vector) bool {
	return v.Sweet >= required.Sweet &&
		v.Spicy >= required.Spicy &&
		v.Sour >= required.Sour &&
		v.Bitter >= required.Bitter &&
		v.Fresh >= required.Fresh
}

// IsZero reports whether every dimension is zero.
func (v Vector) IsZero() bool {
	return v == Vector{}
}

// HasNegative reports whether any dimension is below zero.
func (v Vector) HasNegative() bool {
	return v.Sweet < 0 || v.Spicy < 0 || v.Sour < 0 || v.Bitter < 0 || v.Fresh < 0
}

// Values returns the dimensions in canonical order
// (sweet, spicy, sour, bitter, fresh).
func (v Vector) Values() [NumDimensions]int {
	return [NumDimensions]int{v.Sweet, v.Spicy, v.Sour, v.Bitter, v.Fresh}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
