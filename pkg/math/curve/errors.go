package curve

// Error is returned when decoding untrusted scalars or points.
type Error string

const (
	// ErrInvalidEncoding is returned for encodings of the wrong length, or that are not canonical.
	ErrInvalidEncoding Error = "invalid encoding"
	// ErrPointNotOnCurve is returned when the bytes do not describe a point on the curve.
	ErrPointNotOnCurve Error = "point not on curve"
	// ErrNotInSubgroup is returned for points outside of the prime order subgroup.
	ErrNotInSubgroup Error = "point not in prime order subgroup"
)

// Error implements error.
func (err Error) Error() string {
	return "curve: " + string(err)
}
