package pdf

// Numeric is a PDF number: a signed integer Val holding every digit of the
// number, with DP recording how many of those digits lie right of the
// decimal point. DP == 0 means the number was written without a point;
// DP < 0 marks a failed parse.
type Numeric struct {
	Val int64
	DP  int
}

// parseNumeric parses s as [sign] digits [. digits]. PDF numbers have no
// exponent form. On any deviation the failure sentinel {DP: -1} is returned.
func parseNumeric(s string) Numeric {
	fail := Numeric{DP: -1}
	if s == "" {
		return fail
	}
	i := 0
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		i++
	}
	var val int64
	digits := 0
	dp := 0
	seenDot := false
	for ; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			if seenDot {
				return fail
			}
			seenDot = true
			continue
		}
		if c < '0' || c > '9' {
			return fail
		}
		val = val*10 + int64(c-'0')
		digits++
		if seenDot {
			dp++
		}
	}
	if digits == 0 {
		return fail
	}
	if neg {
		val = -val
	}
	return Numeric{Val: val, DP: dp}
}

func pow10(n int) int64 {
	ret := int64(1)
	for ; n > 0; n-- {
		ret *= 10
	}
	return ret
}

// Failed reports whether the token could not be parsed as a number.
func (n Numeric) Failed() bool {
	return n.DP < 0
}

// IsIntegral reports whether the number has no fractional part, so that
// Int64 is exact. A number written as 5.0 is integral.
func (n Numeric) IsIntegral() bool {
	return n.DP >= 0 && n.Val%pow10(n.DP) == 0
}

// IsUint reports whether the number is integral and non-negative.
func (n Numeric) IsUint() bool {
	return n.IsIntegral() && n.Val >= 0
}

// Int64 returns the integer value. The number must be integral.
func (n Numeric) Int64() int64 {
	return n.Val / pow10(n.DP)
}

// Uint64 returns the integer value. The number must be integral and
// non-negative.
func (n Numeric) Uint64() uint64 {
	return uint64(n.Int64())
}
