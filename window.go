package fognode

// Window is a fixed-capacity FIFO of the most recent samples. It is bounded by
// sample count, not time: missed fetches stretch the span it covers.
type Window struct {
	samples []RawSample
	start   int
	length  int
}

func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		samples: make([]RawSample, capacity),
	}
}

// Push appends a sample, evicting the oldest when full. A nil sample is a
// failed fetch and leaves the window untouched.
func (w *Window) Push(s *RawSample) {
	if s == nil {
		return
	}
	if w.length < len(w.samples) {
		w.samples[(w.start+w.length)%len(w.samples)] = *s
		w.length++
		return
	}
	w.samples[w.start] = *s
	w.start = (w.start + 1) % len(w.samples)
}

func (w *Window) Full() bool {
	return w.length == len(w.samples)
}

func (w *Window) Len() int {
	return w.length
}

func (w *Window) Cap() int {
	return len(w.samples)
}

// Snapshot returns a copy of the contents ordered oldest to newest.
func (w *Window) Snapshot() []RawSample {
	out := make([]RawSample, w.length)
	for i := 0; i < w.length; i++ {
		out[i] = w.samples[(w.start+i)%len(w.samples)]
	}
	return out
}
