package filter

import "gonum.org/v1/gonum/stat"

// smoother applies a moving average over the last size values of each joint
// to remove high-frequency jitter. Until a joint's buffer fills, the mean is
// taken over the entries available so far.
type smoother struct {
	size    int
	windows map[Joint]*window
	scratch []float64
}

func newSmoother(size int) *smoother {
	return &smoother{
		size:    size,
		windows: make(map[Joint]*window),
		scratch: make([]float64, 0, size),
	}
}

func (s *smoother) apply(j Joint, v float64) float64 {
	if s.size <= 1 {
		return v
	}
	w, ok := s.windows[j]
	if !ok {
		w = newWindow(s.size)
		s.windows[j] = w
	}
	w.push(v)
	s.scratch = w.values(s.scratch[:0])
	return stat.Mean(s.scratch, nil)
}
