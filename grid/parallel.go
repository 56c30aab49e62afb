package grid

import "golang.org/x/sync/errgroup"

// parallelReduce runs fn over [0, n) split into chunks of size gsize,
// summing each chunk's partial result. gsize<=0 means "one chunk, serial
// equivalent" (spec §5: "gsize ≤ 0 means 'one chunk, serial-equivalent'").
// fn must only touch the disjoint stripe [begin, end) of shared state, so
// running chunks concurrently via errgroup is safe (spec §5: "each cell is
// owned by exactly one task (by row)").
func parallelReduce(n, gsize int, fn func(begin, end int) int) int {
	if gsize <= 0 {
		gsize = n
	}
	if gsize <= 0 {
		return 0
	}

	var g errgroup.Group
	partials := make([]int, 0, (n+gsize-1)/gsize)
	for begin := 0; begin < n; begin += gsize {
		end := begin + gsize
		if end > n {
			end = n
		}
		idx := len(partials)
		partials = append(partials, 0)
		begin, end := begin, end // capture
		g.Go(func() error {
			partials[idx] = fn(begin, end)
			return nil
		})
	}
	_ = g.Wait() // fn never returns an error; reductions are pure.

	total := 0
	for _, p := range partials {
		total += p
	}
	return total
}

// parallelFor runs fn over [0, n) split into chunks of size gsize, with no
// return value: used where each task writes into a disjoint output stripe
// (spec §5, "Mutable output stripes") rather than accumulating a count.
func parallelFor(n, gsize int, fn func(begin, end int)) {
	if gsize <= 0 {
		gsize = n
	}
	if gsize <= 0 {
		return
	}

	var g errgroup.Group
	for begin := 0; begin < n; begin += gsize {
		end := begin + gsize
		if end > n {
			end = n
		}
		begin, end := begin, end
		g.Go(func() error {
			fn(begin, end)
			return nil
		})
	}
	_ = g.Wait()
}
