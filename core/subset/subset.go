// Package subset enumerates k-of-n scenario combinations.
package subset

import "iter"

// Combinations yields every k-element subset of 1..n in ascending
// lexicographic order. Each yielded slice is a fresh copy. Nothing is
// yielded when k < 1 or k > n.
func Combinations(n, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if k < 1 || k > n {
			return
		}
		idx := make([]int, k)
		for i := range idx {
			idx[i] = i + 1
		}
		for {
			if !yield(append([]int(nil), idx...)) {
				return
			}
			// Rightmost position that can still advance.
			p := k - 1
			for p >= 0 && idx[p] == n-k+p+1 {
				p--
			}
			if p < 0 {
				return
			}
			idx[p]++
			for q := p + 1; q < k; q++ {
				idx[q] = idx[q-1] + 1
			}
		}
	}
}

// Count returns C(n,k), zero outside 1 <= k <= n.
func Count(n, k int) int {
	if k < 1 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	c := 1
	for i := 1; i <= k; i++ {
		c = c * (n - k + i) / i
	}
	return c
}
