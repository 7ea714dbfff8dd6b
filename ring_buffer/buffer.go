package ring_buffer

import "sync"

// Buffer keeps the most recent samples written to it. It is safe for one
// writer and concurrent readers.
type Buffer struct {
	mu     sync.Mutex
	buffer []int16
	head   int
	filled int
}

func New(size int) *Buffer {
	if size < 1 {
		size = 1
	}

	return &Buffer{
		buffer: make([]int16, size),
	}
}

func (r *Buffer) Add(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		r.buffer[r.head] = s
		r.head = (r.head + 1) % len(r.buffer)
	}

	r.filled += len(samples)
	if r.filled > len(r.buffer) {
		r.filled = len(r.buffer)
	}
}

// Read returns the buffered samples, oldest first.
func (r *Buffer) Read() []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	samples := make([]int16, r.filled)
	start := (r.head - r.filled + len(r.buffer)) % len(r.buffer)

	for i := 0; i < r.filled; i++ {
		samples[i] = r.buffer[(start+i)%len(r.buffer)]
	}

	return samples
}

func (r *Buffer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < len(r.buffer); i++ {
		r.buffer[i] = 0
	}

	r.head = 0
	r.filled = 0
}
