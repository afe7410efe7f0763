package models

// RunBucket accumulates the occurrences of streaks that reached a given
// length, plus a magnitude statistic of the increments observed there.
type RunBucket struct {
	Count  int
	SumSq  float64
}

// RunHistogram maps streak length to its bucket; index 0 is unused so that
// bucket[L] is the count of streaks that reached length L. The backing slice
// grows on demand and is never shrunk.
type RunHistogram struct {
	buckets []RunBucket
}

// Observe records that a streak has reached the given length with the given
// increment, growing the histogram so its size always covers the length.
func (h *RunHistogram) Observe(length int, increment float64) {
	if length < 1 {
		return
	}
	h.grow(length + 1)
	h.buckets[length].Count++
	h.buckets[length].SumSq += increment * increment
}

// Continuation returns the probability that a streak at the given length
// extends one more interval: the occurrence count at length+1 divided by the
// count at length, clamped to [0,1]. When no streak has reached the current
// length, or none has reached the next, fallback is returned.
func (h *RunHistogram) Continuation(length int, fallback float64) float64 {
	if length < 1 || length >= len(h.buckets) {
		return fallback
	}
	at := h.buckets[length].Count
	if at == 0 {
		return fallback
	}
	if length+1 >= len(h.buckets) {
		return fallback
	}
	next := h.buckets[length+1].Count
	if next <= 0 {
		return fallback
	}
	p := float64(next) / float64(at)
	if p > 1 {
		p = 1
	}
	return p
}

// Len returns the highest recordable streak length plus one.
func (h *RunHistogram) Len() int {
	return len(h.buckets)
}

// Bucket returns the bucket at the given length, zero-valued out of range.
func (h *RunHistogram) Bucket(length int) RunBucket {
	if length < 0 || length >= len(h.buckets) {
		return RunBucket{}
	}
	return h.buckets[length]
}

func (h *RunHistogram) grow(size int) {
	if size <= len(h.buckets) {
		return
	}
	if cap(h.buckets) >= size {
		h.buckets = h.buckets[:size]
		return
	}
	next := make([]RunBucket, size, 2*size)
	copy(next, h.buckets)
	h.buckets = next
}
