package ring

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks buffer activity. Always collected; observability is not
// optional even when Prometheus metrics are disabled.
type Statistics struct {
	// Atomic counters for thread-safe updates
	puts       int64
	takes      int64
	skips      int64
	peeks      int64
	evictions  int64
	rejections int64

	// Protected by mutex
	mu          sync.RWMutex
	startTime   time.Time
	occupied    int64
	maxOccupied int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Put records a completed put operation.
func (s *Statistics) Put() {
	atomic.AddInt64(&s.puts, 1)
}

// Take records a completed take operation.
func (s *Statistics) Take() {
	atomic.AddInt64(&s.takes, 1)
}

// Skip records a completed skip operation.
func (s *Statistics) Skip() {
	atomic.AddInt64(&s.skips, 1)
}

// Peek records a peek operation.
func (s *Statistics) Peek() {
	atomic.AddInt64(&s.peeks, 1)
}

// Evict records n oldest elements discarded by overwrite.
func (s *Statistics) Evict(n int) {
	atomic.AddInt64(&s.evictions, int64(n))
}

// Reject records an operation refused with a capacity, content or
// concurrency error.
func (s *Statistics) Reject() {
	atomic.AddInt64(&s.rejections, 1)
}

// UpdateOccupied updates the current occupied length.
func (s *Statistics) UpdateOccupied(n int64) {
	s.mu.Lock()
	s.occupied = n
	if n > s.maxOccupied {
		s.maxOccupied = n
	}
	s.mu.Unlock()
}

// Puts returns the total number of completed put operations.
func (s *Statistics) Puts() int64 {
	return atomic.LoadInt64(&s.puts)
}

// Takes returns the total number of completed take operations.
func (s *Statistics) Takes() int64 {
	return atomic.LoadInt64(&s.takes)
}

// Skips returns the total number of completed skip operations.
func (s *Statistics) Skips() int64 {
	return atomic.LoadInt64(&s.skips)
}

// Peeks returns the total number of peek operations.
func (s *Statistics) Peeks() int64 {
	return atomic.LoadInt64(&s.peeks)
}

// Evictions returns the total number of elements evicted by overwrite.
func (s *Statistics) Evictions() int64 {
	return atomic.LoadInt64(&s.evictions)
}

// Rejections returns the total number of refused operations.
func (s *Statistics) Rejections() int64 {
	return atomic.LoadInt64(&s.rejections)
}

// Occupied returns the occupied length at the last update.
func (s *Statistics) Occupied() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.occupied
}

// MaxOccupied returns the highest occupied length observed.
func (s *Statistics) MaxOccupied() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxOccupied
}

// PutThroughput returns the average number of puts per second.
func (s *Statistics) PutThroughput() float64 {
	s.mu.RLock()
	elapsed := time.Since(s.startTime)
	s.mu.RUnlock()

	if elapsed == 0 {
		return 0.0
	}
	return float64(s.Puts()) / elapsed.Seconds()
}

// TakeThroughput returns the average number of takes per second.
func (s *Statistics) TakeThroughput() float64 {
	s.mu.RLock()
	elapsed := time.Since(s.startTime)
	s.mu.RUnlock()

	if elapsed == 0 {
		return 0.0
	}
	return float64(s.Takes()) / elapsed.Seconds()
}

// Utilization returns occupied length over capacity (0.0 to 1.0).
func (s *Statistics) Utilization(capacity int64) float64 {
	if capacity == 0 {
		return 0.0
	}
	return float64(s.Occupied()) / float64(capacity)
}

// Uptime returns how long the buffer has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all statistics to zero.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.puts, 0)
	atomic.StoreInt64(&s.takes, 0)
	atomic.StoreInt64(&s.skips, 0)
	atomic.StoreInt64(&s.peeks, 0)
	atomic.StoreInt64(&s.evictions, 0)
	atomic.StoreInt64(&s.rejections, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.occupied = 0
	s.maxOccupied = 0
	s.mu.Unlock()
}

// StatsSummary is a snapshot of all statistics.
type StatsSummary struct {
	Puts           int64         `json:"puts"`
	Takes          int64         `json:"takes"`
	Skips          int64         `json:"skips"`
	Peeks          int64         `json:"peeks"`
	Evictions      int64         `json:"evictions"`
	Rejections     int64         `json:"rejections"`
	Occupied       int64         `json:"occupied"`
	MaxOccupied    int64         `json:"max_occupied"`
	PutThroughput  float64       `json:"put_throughput"`
	TakeThroughput float64       `json:"take_throughput"`
	Uptime         time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Puts:           s.Puts(),
		Takes:          s.Takes(),
		Skips:          s.Skips(),
		Peeks:          s.Peeks(),
		Evictions:      s.Evictions(),
		Rejections:     s.Rejections(),
		Occupied:       s.Occupied(),
		MaxOccupied:    s.MaxOccupied(),
		PutThroughput:  s.PutThroughput(),
		TakeThroughput: s.TakeThroughput(),
		Uptime:         s.Uptime(),
	}
}
