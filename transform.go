package textpress

import "fmt"

// run is a maximal stretch of one repeated symbol.
type run struct {
	symbol Symbol
	length int
}

// mergeRuns collapses seq into runs. Runs are unbounded; their lengths are
// gamma coded.
func mergeRuns(seq []Symbol) []run {
	if len(seq) == 0 {
		return nil
	}
	runs := make([]run, 0, len(seq)/2+1)
	cur := run{symbol: seq[0], length: 1}
	for _, s := range seq[1:] {
		if s == cur.symbol {
			cur.length++
			continue
		}
		runs = append(runs, cur)
		cur = run{symbol: s, length: 1}
	}
	return append(runs, cur)
}

// sortRotations returns the start offsets of the cyclic rotations of s in
// sorted order. It uses prefix doubling with counting sorts, O(n log n), so
// periodic input does not degrade to quadratic comparisons. Equal rotations
// keep a fixed relative order, which makes the result deterministic.
func sortRotations(s []Symbol) []int {
	n := len(s)
	p := make([]int, n)
	c := make([]int, n)
	cnt := make([]int, max(256, n))

	for _, b := range s {
		cnt[b]++
	}
	for i := 1; i < 256; i++ {
		cnt[i] += cnt[i-1]
	}
	for i := n - 1; i >= 0; i-- {
		cnt[s[i]]--
		p[cnt[s[i]]] = i
	}

	classes := 1
	c[p[0]] = 0
	for i := 1; i < n; i++ {
		if s[p[i]] != s[p[i-1]] {
			classes++
		}
		c[p[i]] = classes - 1
	}

	pn := make([]int, n)
	cn := make([]int, n)
	for shift := 1; shift < n && classes < n; shift <<= 1 {
		// Sort by the second half by shifting the order of the first.
		for i := 0; i < n; i++ {
			pn[i] = p[i] - shift
			if pn[i] < 0 {
				pn[i] += n
			}
		}

		clear(cnt[:classes])
		for i := 0; i < n; i++ {
			cnt[c[pn[i]]]++
		}
		for i := 1; i < classes; i++ {
			cnt[i] += cnt[i-1]
		}
		for i := n - 1; i >= 0; i-- {
			k := c[pn[i]]
			cnt[k]--
			p[cnt[k]] = pn[i]
		}

		classes = 1
		cn[p[0]] = 0
		for i := 1; i < n; i++ {
			cur, prev := p[i], p[i-1]
			if c[cur] != c[prev] || c[(cur+shift)%n] != c[(prev+shift)%n] {
				classes++
			}
			cn[p[i]] = classes - 1
		}
		c, cn = cn, c
	}
	return p
}

// blockSort applies the Burrows-Wheeler transform. It returns the last
// column of the sorted rotation matrix and the row holding the input.
func blockSort(seq []Symbol) ([]Symbol, int) {
	n := len(seq)
	order := sortRotations(seq)
	last := make([]Symbol, n)
	row := 0
	for i, start := range order {
		if start == 0 {
			row = i
			last[i] = seq[n-1]
			continue
		}
		last[i] = seq[start-1]
	}
	return last, row
}

// unblockSort inverts blockSort with the last-to-first mapping.
func unblockSort(last []Symbol, row int) ([]Symbol, error) {
	n := len(last)
	if row < 0 || row >= n {
		return nil, fmt.Errorf("%w: block row %d outside %d symbols", ErrBitstreamDesync, row, n)
	}

	var count [256]int
	for _, s := range last {
		count[s]++
	}
	var first [256]int
	for i := 1; i < 256; i++ {
		first[i] = first[i-1] + count[i-1]
	}

	lf := make([]int, n)
	var seen [256]int
	for i, s := range last {
		lf[i] = first[s] + seen[s]
		seen[s]++
	}

	out := make([]Symbol, n)
	idx := row
	for i := n - 1; i >= 0; i-- {
		out[i] = last[idx]
		idx = lf[idx]
	}
	return out, nil
}

// moveToFront replaces each symbol by its position in a recency list
// initialized to alphabet, then moves the symbol to the front.
func moveToFront(seq []Symbol, alphabet []Symbol) ([]int, error) {
	list := append([]Symbol(nil), alphabet...)
	out := make([]int, len(seq))
	for i, s := range seq {
		j := 0
		for j < len(list) && list[j] != s {
			j++
		}
		if j == len(list) {
			return nil, fmt.Errorf("%w: symbol %d not in alphabet", ErrMalformedFrequencyTable, s)
		}
		out[i] = j
		copy(list[1:j+1], list[:j])
		list[0] = s
	}
	return out, nil
}

// undoMoveToFront inverts moveToFront.
func undoMoveToFront(indexes []int, alphabet []Symbol) ([]Symbol, error) {
	list := append([]Symbol(nil), alphabet...)
	out := make([]Symbol, len(indexes))
	for i, j := range indexes {
		if j < 0 || j >= len(list) {
			return nil, fmt.Errorf("%w: move-to-front index %d outside alphabet of %d", ErrBitstreamDesync, j, len(list))
		}
		s := list[j]
		out[i] = s
		copy(list[1:j+1], list[:j])
		list[0] = s
	}
	return out, nil
}
