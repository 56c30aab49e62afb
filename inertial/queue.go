package inertial

// Queue is a monotone-in-time buffer of IMU samples (spec §3, ImuQueue),
// backed by a slice that DropOlderThan trims from the front. It's the
// concrete implementation of the "consumed from collaborators" ImuQueue
// contract (spec §6); Trajectory and ImuPreintegration.Compute take a
// *Queue directly, so no other queue type can be substituted
// (SPEC_FULL §12).
type Queue struct {
	samples []Sample
}

// NewQueue returns an empty IMU queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a new sample. The caller is responsible for time
// monotonicity (spec §3's ImuSample invariant); Push does not re-sort.
func (q *Queue) Push(s Sample) {
	q.samples = append(q.samples, s)
}

// Len returns the number of retained samples.
func (q *Queue) Len() int { return len(q.samples) }

// At returns the i'th sample.
func (q *Queue) At(i int) Sample { return q.samples[i] }

// DropOlderThan discards every sample with time < t, keeping the buffer
// bounded to the active sliding window.
func (q *Queue) DropOlderThan(t float64) {
	i := 0
	for i < len(q.samples) && q.samples[i].Time < t {
		i++
	}
	q.samples = q.samples[i:]
}

// FindFirstAfter returns the index of the first sample with Time > t, or
// -1 if none exists (spec §4.2's "locate the first IMU sample with
// timestamp strictly greater than t0").
func (q *Queue) FindFirstAfter(t float64) int {
	for i, s := range q.samples {
		if s.Time > t {
			return i
		}
	}
	return -1
}
