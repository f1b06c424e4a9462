package plan

import "math"

// Tolerance bounds for plan equivalence. Float parameters and altitudes
// drift slightly across a wire roundtrip; coordinates are integers and
// must survive exactly.
const (
	paramEpsilon    = 1e-3
	altitudeEpsilon = 1e-3
)

// Normalize returns a copy with canonical frames, contiguous sequence
// numbers, and float parameters rounded to the comparison tolerance.
func Normalize(p Plan) Plan {
	out := Plan{Kind: p.Kind}
	if p.Home != nil {
		home := *p.Home
		home.Alt = roundTo(home.Alt, altitudeEpsilon)
		out.Home = &home
	}
	out.Items = make([]Item, len(p.Items))
	for i, item := range p.Items {
		item.Seq = uint16(i)
		item.Frame = item.Frame.Canonical()
		item.Param1 = roundTo(item.Param1, paramEpsilon)
		item.Param2 = roundTo(item.Param2, paramEpsilon)
		item.Param3 = roundTo(item.Param3, paramEpsilon)
		item.Param4 = roundTo(item.Param4, paramEpsilon)
		item.Z = roundTo(item.Z, altitudeEpsilon)
		out.Items[i] = item
	}
	return out
}

// Equivalent reports whether two plans describe the same flight: same
// kind, either both without a home or both with equal homes, and elementwise-equal items
// after normalisation, with X/Y exact and floats within tolerance.
func Equivalent(a, b Plan) bool {
	if a.Kind != b.Kind {
		return false
	}

	switch {
	case a.Home == nil && b.Home == nil:
	case a.Home != nil && b.Home != nil:
		if a.Home.Lat != b.Home.Lat || a.Home.Lon != b.Home.Lon ||
			!floatEq(a.Home.Alt, b.Home.Alt, altitudeEpsilon) {
			return false
		}
	default:
		return false
	}

	if len(a.Items) != len(b.Items) {
		return false
	}

	na, nb := Normalize(a), Normalize(b)
	for i := range na.Items {
		if !itemsEquivalent(na.Items[i], nb.Items[i]) {
			return false
		}
	}
	return true
}

// StripHome returns a copy without the home position. Autopilots may
// overwrite an uploaded home with their own fused estimate, so roundtrip
// verification compares plans in this form.
func StripHome(p Plan) Plan {
	out := p
	out.Home = nil
	return out
}

func itemsEquivalent(a, b Item) bool {
	return a.Seq == b.Seq &&
		a.Command == b.Command &&
		a.Frame == b.Frame &&
		a.Current == b.Current &&
		a.Autocontinue == b.Autocontinue &&
		floatEq(a.Param1, b.Param1, paramEpsilon) &&
		floatEq(a.Param2, b.Param2, paramEpsilon) &&
		floatEq(a.Param3, b.Param3, paramEpsilon) &&
		floatEq(a.Param4, b.Param4, paramEpsilon) &&
		a.X == b.X &&
		a.Y == b.Y &&
		floatEq(a.Z, b.Z, altitudeEpsilon)
}

func floatEq(a, b, epsilon float32) bool {
	return math.Abs(float64(a)-float64(b)) <= float64(epsilon)
}

func roundTo(value, step float32) float32 {
	return float32(math.Round(float64(value)/float64(step))) * step
}
