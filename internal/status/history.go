package status

import "time"

// Reading is one sampled value kept for the status page.
type Reading struct {
	Time  time.Time
	Value float64
	Empty bool
}

// ringBuffer is a fixed-capacity FIFO of recent readings. The oldest entry
// is overwritten once full.
// Not safe for concurrent use; caller must synchronize.
type ringBuffer struct {
	buf      []Reading
	capacity int
	head     int // next write position
	count    int
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{
		buf:      make([]Reading, capacity),
		capacity: capacity,
	}
}

func (r *ringBuffer) push(rd Reading) {
	r.buf[r.head] = rd
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	}
}

// all returns the held readings, oldest first, without removing them.
func (r *ringBuffer) all() []Reading {
	if r.count == 0 {
		return nil
	}
	result := make([]Reading, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}
	return result
}
