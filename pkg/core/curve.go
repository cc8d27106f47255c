package core

import (
	"sort"

	"github.com/aretw0/tickline/pkg/easing"
	"github.com/aretw0/tickline/pkg/timing"
)

// Keyframe is one point of a property curve. Easing shapes the segment from
// this keyframe to the next one in time order.
type Keyframe struct {
	Time   timing.Tick
	Value  float64
	Easing easing.Tag
}

// Curve is an animated channel of a judge line: keyframes strictly
// increasing by time. Mutations keep the order; queries never re-sort.
type Curve struct {
	keys []Keyframe
}

// NewCurve builds a curve from keyframes that must already be strictly
// increasing by time.
func NewCurve(keys ...Keyframe) (Curve, error) {
	var c Curve
	if len(keys) > 0 {
		c.keys = append([]Keyframe(nil), keys...)
	}
	if err := c.Validate(); err != nil {
		return Curve{}, err
	}
	return c, nil
}

// Len returns the number of keyframes.
func (c *Curve) Len() int { return len(c.keys) }

// Keyframes returns a copy of the keyframes in time order.
func (c *Curve) Keyframes() []Keyframe {
	return append([]Keyframe(nil), c.keys...)
}

// At returns the i-th keyframe.
func (c *Curve) At(i int) (Keyframe, error) {
	if i < 0 || i >= len(c.keys) {
		return Keyframe{}, outOfRange("keyframe", i, len(c.keys))
	}
	return c.keys[i], nil
}

// Insert adds kf, replacing the keyframe already at the same time.
func (c *Curve) Insert(kf Keyframe) error {
	if !kf.Easing.Valid() {
		return invalid("keyframe easing", "unknown easing tag %d", uint8(kf.Easing))
	}
	if !finite(kf.Value) {
		return invalid("keyframe value", "must be finite")
	}
	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].Time >= kf.Time })
	if i < len(c.keys) && c.keys[i].Time == kf.Time {
		c.keys[i] = kf
		return nil
	}
	c.keys = append(c.keys, Keyframe{})
	copy(c.keys[i+1:], c.keys[i:])
	c.keys[i] = kf
	return nil
}

// RemoveAt deletes the i-th keyframe.
func (c *Curve) RemoveAt(i int) error {
	if i < 0 || i >= len(c.keys) {
		return outOfRange("keyframe", i, len(c.keys))
	}
	c.keys = append(c.keys[:i], c.keys[i+1:]...)
	if len(c.keys) == 0 {
		c.keys = nil
	}
	return nil
}

// ValueAt evaluates the curve. An empty curve is 0; outside the keyframe span
// the nearest keyframe value holds.
func (c *Curve) ValueAt(tick float64) float64 {
	n := len(c.keys)
	if n == 0 {
		return 0
	}
	if tick <= float64(c.keys[0].Time) {
		return c.keys[0].Value
	}
	if tick >= float64(c.keys[n-1].Time) {
		return c.keys[n-1].Value
	}
	// First keyframe strictly after tick; its predecessor starts the segment.
	j := sort.Search(n, func(i int) bool { return float64(c.keys[i].Time) > tick })
	a, b := c.keys[j-1], c.keys[j]
	t := (tick - float64(a.Time)) / float64(b.Time-a.Time)
	return a.Value + (b.Value-a.Value)*easing.Ease(a.Easing, t)
}

// Validate checks order, easing tags and finite values.
func (c *Curve) Validate() error {
	for i, kf := range c.keys {
		if !kf.Easing.Valid() {
			return invalid("keyframe easing", "unknown easing tag %d at index %d", uint8(kf.Easing), i)
		}
		if !finite(kf.Value) {
			return invalid("keyframe value", "must be finite at index %d", i)
		}
		if i > 0 && c.keys[i-1].Time >= kf.Time {
			return invalid("keyframe time", "times must be strictly increasing (index %d at tick %d)", i, kf.Time)
		}
	}
	return nil
}

// Equal compares keyframes.
func (c *Curve) Equal(o *Curve) bool {
	if len(c.keys) != len(o.keys) {
		return false
	}
	for i := range c.keys {
		if c.keys[i] != o.keys[i] {
			return false
		}
	}
	return true
}

func (c *Curve) clone() Curve {
	return Curve{keys: append([]Keyframe(nil), c.keys...)}
}
