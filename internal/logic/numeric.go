package logic

import "cmp"

// Clamp bounds v to [lo, hi]. The result is only meaningful when lo <= hi.
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(hi, max(lo, v))
}

// Lerp interpolates linearly between from and to.
func Lerp(from, to, t float64) float64 {
	return from + (to-from)*t
}

// MapRangeClamped maps v from [inLo, inHi] onto [outLo, outHi], holding the
// result at the ends of the output range. A degenerate input range yields outLo.
func MapRangeClamped(v, inLo, inHi, outLo, outHi float64) float64 {
	if inHi == inLo {
		return outLo
	}
	t := Clamp((v-inLo)/(inHi-inLo), 0, 1)
	return Lerp(outLo, outHi, t)
}
