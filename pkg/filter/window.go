package filter

// window is a fixed-capacity ring buffer of float64 samples. When full, a
// push evicts the oldest entry.
type window struct {
	buf  []float64
	head int // index of the oldest entry
	n    int
}

func newWindow(capacity int) *window {
	return &window{buf: make([]float64, capacity)}
}

func (w *window) push(v float64) {
	if w.n < len(w.buf) {
		w.buf[(w.head+w.n)%len(w.buf)] = v
		w.n++
		return
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
}

func (w *window) len() int { return w.n }

// values appends the buffered samples to dst, oldest first.
func (w *window) values(dst []float64) []float64 {
	for i := range w.n {
		dst = append(dst, w.buf[(w.head+i)%len(w.buf)])
	}
	return dst
}
