package media

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Rational is a time base: one tick lasts Num/Den seconds.
type Rational struct {
	Num int64
	Den int64
}

// Common time bases.
var (
	Millisecond = Rational{Num: 1, Den: 1000}
	MPEGClock   = Rational{Num: 1, Den: 90000}
)

// NewRational returns num/den. It does not reduce the fraction.
func NewRational(num, den int64) Rational {
	return Rational{Num: num, Den: den}
}

// ParseRational parses "num/den" or a bare integer ("25" means 25/1).
func ParseRational(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		den = "1"
	}
	n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("parse rational %q: %w", s, err)
	}
	d, err := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("parse rational %q: %w", s, err)
	}
	r := Rational{Num: n, Den: d}
	if !r.Valid() {
		return Rational{}, fmt.Errorf("parse rational %q: num and den must be positive", s)
	}
	return r, nil
}

// Valid reports whether both terms are positive.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Inverse returns Den/Num, e.g. a frame duration from a frame rate.
func (r Rational) Inverse() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

// String returns "num/den".
func (r Rational) String() string {
	return strconv.FormatInt(r.Num, 10) + "/" + strconv.FormatInt(r.Den, 10)
}

// Seconds converts a tick count in this time base to seconds.
func (r Rational) Seconds(ticks int64) float64 {
	return float64(ticks) * float64(r.Num) / float64(r.Den)
}

// Duration converts a tick count in this time base to a time.Duration,
// rounding half up to the nearest nanosecond.
func (r Rational) Duration(ticks int64) time.Duration {
	return time.Duration(Rescale(ticks, r, Rational{Num: 1, Den: int64(time.Second)}))
}

// Ticks converts seconds to the nearest tick count, rounding half up.
func (r Rational) Ticks(seconds float64) int64 {
	v := new(big.Float).SetFloat64(seconds)
	v.Mul(v, new(big.Float).SetInt64(r.Den))
	v.Quo(v, new(big.Float).SetInt64(r.Num))
	v.Add(v, big.NewFloat(0.5))
	i, _ := v.Int(nil)
	if v.Sign() < 0 && !v.IsInt() {
		// big.Float.Int truncates toward zero; floor for negatives.
		i.Sub(i, big.NewInt(1))
	}
	return i.Int64()
}

// Rescale converts ticks from one time base to another, rounding half up:
// one half tick of the target base is added before truncating toward
// negative infinity.
func Rescale(ticks int64, from, to Rational) int64 {
	if from == to {
		return ticks
	}
	num := big.NewInt(ticks)
	num.Mul(num, big.NewInt(from.Num))
	num.Mul(num, big.NewInt(to.Den))
	num.Lsh(num, 1)

	den := big.NewInt(from.Den)
	den.Mul(den, big.NewInt(to.Num))

	num.Add(num, den)
	den.Lsh(den, 1)

	// Euclidean division floors for a positive divisor.
	return num.Div(num, den).Int64()
}

// ComparePTS orders a (in base at) against b (in base bt) exactly.
// It returns -1, 0 or +1.
func ComparePTS(a int64, at Rational, b int64, bt Rational) int {
	if at == bt {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	l := big.NewInt(a)
	l.Mul(l, big.NewInt(at.Num))
	l.Mul(l, big.NewInt(bt.Den))
	r := big.NewInt(b)
	r.Mul(r, big.NewInt(bt.Num))
	r.Mul(r, big.NewInt(at.Den))
	return l.Cmp(r)
}
