package stats

import "sort"

// rankAverage returns 1-based ranks with tied values sharing their mean rank,
// plus the tie correction term sum(t^3 - t) over tie groups.
func rankAverage(values []float64) ([]float64, float64) {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	ranks := make([]float64, n)
	var tieTerm float64
	for i := 0; i < n; {
		j := i + 1
		for j < n && values[idx[j]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		if t := float64(j - i); t > 1 {
			tieTerm += t*t*t - t
		}
		i = j
	}
	return ranks, tieTerm
}
