package testdata

// Sample functions with guarded blocks, used by the loader and CLI tests.

func ClampIndex(i, n int) int {
	if i < n {
		return i
	}
	return n - 1
}

func AbsDiff(a, b int) int {
	if a >= b {
		return a - b
	}
	return b - a
}

func CountUp(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s += i
	}
	return s
}

func InRange(i, lo, hi int) bool {
	ok := lo <= i && i < hi
	if ok {
		return true
	}
	return false
}
