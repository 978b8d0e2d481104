// Package vmath holds the small amount of vector math the mirror needs.
package vmath

import (
	"fmt"
	"math"
)

// Vec2 is a 2D position in world units.
type Vec2 struct {
	X float64 `json:"x" yaml:"x" codec:"x"`
	Y float64 `json:"y" yaml:"y" codec:"y"`
}

// Lerp returns a + (b-a)*t. t is not clamped.
func Lerp(a, b Vec2, t float64) Vec2 {
	return Vec2{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// Add returns a+b.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale returns v*s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Distance returns the euclidean distance between v and o.
func (v Vec2) Distance(o Vec2) float64 {
	return math.Hypot(o.X-v.X, o.Y-v.Y)
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}

// Vec2FromAny converts decoded wire data into a Vec2. It accepts Vec2 values
// and pointers, maps with "x" and "y" keys, and two-element numeric slices.
func Vec2FromAny(v any) (Vec2, error) {
	switch t := v.(type) {
	case Vec2:
		return t, nil
	case *Vec2:
		if t == nil {
			return Vec2{}, fmt.Errorf("nil vector")
		}
		return *t, nil
	case map[string]any:
		return vecFromLookup(func(k string) (any, bool) {
			val, ok := t[k]
			return val, ok
		})
	case map[any]any:
		return vecFromLookup(func(k string) (any, bool) {
			val, ok := t[k]
			return val, ok
		})
	case []any:
		if len(t) != 2 {
			return Vec2{}, fmt.Errorf("vector needs 2 elements, got %d", len(t))
		}
		x, err := toFloat(t[0])
		if err != nil {
			return Vec2{}, fmt.Errorf("x: %w", err)
		}
		y, err := toFloat(t[1])
		if err != nil {
			return Vec2{}, fmt.Errorf("y: %w", err)
		}
		return Vec2{X: x, Y: y}, nil
	case []float64:
		if len(t) != 2 {
			return Vec2{}, fmt.Errorf("vector needs 2 elements, got %d", len(t))
		}
		return Vec2{X: t[0], Y: t[1]}, nil
	default:
		return Vec2{}, fmt.Errorf("cannot convert %T to vector", v)
	}
}

func vecFromLookup(get func(string) (any, bool)) (Vec2, error) {
	rawX, ok := get("x")
	if !ok {
		return Vec2{}, fmt.Errorf("missing x")
	}
	rawY, ok := get("y")
	if !ok {
		return Vec2{}, fmt.Errorf("missing y")
	}
	x, err := toFloat(rawX)
	if err != nil {
		return Vec2{}, fmt.Errorf("x: %w", err)
	}
	y, err := toFloat(rawY)
	if err != nil {
		return Vec2{}, fmt.Errorf("y: %w", err)
	}
	return Vec2{X: x, Y: y}, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
