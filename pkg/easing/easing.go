// Package easing provides the normalized interpolation shapes used between
// two keyframes of a property curve.
//
// Every shape maps t in [0, 1] to a progress value with Ease(tag, 0) == 0 and
// Ease(tag, 1) == 1. Overshoot families (back, elastic) may leave [0, 1]
// strictly between the endpoints.
package easing

import (
	"fmt"
	"math"
)

// Tag selects an easing shape.
type Tag uint8

const (
	Linear Tag = iota
	InSine
	OutSine
	InOutSine
	InQuad
	OutQuad
	InOutQuad
	InCubic
	OutCubic
	InOutCubic
	InQuart
	OutQuart
	InOutQuart
	InQuint
	OutQuint
	InOutQuint
	InExpo
	OutExpo
	InOutExpo
	InCirc
	OutCirc
	InOutCirc
	InBack
	OutBack
	InOutBack
	InElastic
	OutElastic
	InOutElastic
	InBounce
	OutBounce
	InOutBounce

	tagCount
)

var names = [tagCount]string{
	"linear",
	"easeInSine", "easeOutSine", "easeInOutSine",
	"easeInQuad", "easeOutQuad", "easeInOutQuad",
	"easeInCubic", "easeOutCubic", "easeInOutCubic",
	"easeInQuart", "easeOutQuart", "easeInOutQuart",
	"easeInQuint", "easeOutQuint", "easeInOutQuint",
	"easeInExpo", "easeOutExpo", "easeInOutExpo",
	"easeInCirc", "easeOutCirc", "easeInOutCirc",
	"easeInBack", "easeOutBack", "easeInOutBack",
	"easeInElastic", "easeOutElastic", "easeInOutElastic",
	"easeInBounce", "easeOutBounce", "easeInOutBounce",
}

var funcs = [tagCount]func(float64) float64{
	func(t float64) float64 { return t },
	inSine, outSine, inOutSine,
	inPow(2), outPow(2), inOutPow(2),
	inPow(3), outPow(3), inOutPow(3),
	inPow(4), outPow(4), inOutPow(4),
	inPow(5), outPow(5), inOutPow(5),
	inExpo, outExpo, inOutExpo,
	inCirc, outCirc, inOutCirc,
	inBack, outBack, inOutBack,
	inElastic, outElastic, inOutElastic,
	inBounce, outBounce, inOutBounce,
}

// Tags returns every known tag in declaration order.
func Tags() []Tag {
	tags := make([]Tag, tagCount)
	for i := range tags {
		tags[i] = Tag(i)
	}
	return tags
}

// Valid reports whether tag names a known shape.
func (tag Tag) Valid() bool {
	return tag < tagCount
}

func (tag Tag) String() string {
	if !tag.Valid() {
		return fmt.Sprintf("easing.Tag(%d)", uint8(tag))
	}
	return names[tag]
}

// Parse resolves a persisted easing name such as "easeOutBack".
func Parse(name string) (Tag, error) {
	for i, n := range names {
		if n == name {
			return Tag(i), nil
		}
	}
	return 0, fmt.Errorf("unknown easing %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (tag Tag) MarshalText() ([]byte, error) {
	if !tag.Valid() {
		return nil, fmt.Errorf("unknown easing tag %d", uint8(tag))
	}
	return []byte(names[tag]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (tag *Tag) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*tag = parsed
	return nil
}

// Ease applies the shape selected by tag to t. Values of t outside [0, 1]
// are clamped. An unknown tag is an internal invariant violation and panics.
func Ease(tag Tag, t float64) float64 {
	if !tag.Valid() {
		panic(fmt.Sprintf("easing: unknown tag %d", uint8(tag)))
	}
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return funcs[tag](t)
}

func inSine(t float64) float64    { return 1 - math.Cos(t*math.Pi/2) }
func outSine(t float64) float64   { return math.Sin(t * math.Pi / 2) }
func inOutSine(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 }

func inPow(n float64) func(float64) float64 {
	return func(t float64) float64 { return math.Pow(t, n) }
}

func outPow(n float64) func(float64) float64 {
	return func(t float64) float64 { return 1 - math.Pow(1-t, n) }
}

func inOutPow(n float64) func(float64) float64 {
	return func(t float64) float64 {
		if t < 0.5 {
			return math.Pow(2, n-1) * math.Pow(t, n)
		}
		return 1 - math.Pow(-2*t+2, n)/2
	}
}

func inExpo(t float64) float64  { return math.Pow(2, 10*t-10) }
func outExpo(t float64) float64 { return 1 - math.Pow(2, -10*t) }

func inOutExpo(t float64) float64 {
	if t < 0.5 {
		return math.Pow(2, 20*t-10) / 2
	}
	return (2 - math.Pow(2, -20*t+10)) / 2
}

func inCirc(t float64) float64  { return 1 - math.Sqrt(1-t*t) }
func outCirc(t float64) float64 { return math.Sqrt(1 - (t-1)*(t-1)) }

func inOutCirc(t float64) float64 {
	if t < 0.5 {
		return (1 - math.Sqrt(1-4*t*t)) / 2
	}
	return (math.Sqrt(1-math.Pow(-2*t+2, 2)) + 1) / 2
}

const (
	backC1 = 1.70158
	backC2 = backC1 * 1.525
	backC3 = backC1 + 1
)

func inBack(t float64) float64 { return backC3*t*t*t - backC1*t*t }

func outBack(t float64) float64 {
	u := t - 1
	return 1 + backC3*u*u*u + backC1*u*u
}

func inOutBack(t float64) float64 {
	if t < 0.5 {
		return (math.Pow(2*t, 2) * ((backC2+1)*2*t - backC2)) / 2
	}
	return (math.Pow(2*t-2, 2)*((backC2+1)*(t*2-2)+backC2) + 2) / 2
}

const (
	elasticC4 = 2 * math.Pi / 3
	elasticC5 = 2 * math.Pi / 4.5
)

func inElastic(t float64) float64 {
	return -math.Pow(2, 10*t-10) * math.Sin((t*10-10.75)*elasticC4)
}

func outElastic(t float64) float64 {
	return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*elasticC4) + 1
}

func inOutElastic(t float64) float64 {
	if t < 0.5 {
		return -(math.Pow(2, 20*t-10) * math.Sin((20*t-11.125)*elasticC5)) / 2
	}
	return (math.Pow(2, -20*t+10)*math.Sin((20*t-11.125)*elasticC5))/2 + 1
}

func outBounce(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

func inBounce(t float64) float64 { return 1 - outBounce(1-t) }

func inOutBounce(t float64) float64 {
	if t < 0.5 {
		return (1 - outBounce(1-2*t)) / 2
	}
	return (1 + outBounce(2*t-1)) / 2
}
