package gicp

import "golang.org/x/sync/errgroup"

// matchChunk computes the per-task chunk size for residual evaluation
// (spec §4.4 Evaluation): tuned so each task covers at least three
// matches for cache-line efficiency, default chunk = user_gsize+2, or
// "all at once" when user_gsize<=0.
func matchChunk(n, userGsize int) int {
	if userGsize <= 0 {
		return n
	}
	chunk := userGsize + 2
	if chunk < 3 {
		chunk = 3
	}
	return chunk
}

// parallelForMatches runs fn over [0,n) chunked per matchChunk, used by
// both cost variants' Evaluate to fill disjoint residual/Jacobian
// stripes (spec §5, "Mutable output stripes").
func parallelForMatches(n, userGsize int, fn func(begin, end int)) {
	gsize := matchChunk(n, userGsize)
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
