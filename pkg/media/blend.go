package media

// Blend mixes two payloads linearly: weight 0 yields a, weight 1 yields b.
// Bytes beyond the shorter payload are taken from b.
func Blend(a, b []byte, weight float64) []byte {
	if weight <= 0 {
		return append([]byte(nil), a...)
	}
	if weight >= 1 {
		return append([]byte(nil), b...)
	}
	out := make([]byte, len(b))
	copy(out, b)
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		v := float64(a[i])*(1-weight) + float64(b[i])*weight + 0.5
		out[i] = byte(v)
	}
	return out
}
