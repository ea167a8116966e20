package location

import (
	"sync"
	"time"
)

// DebounceWindow минимальный интервал между захватами локации
const DebounceWindow = 2 * time.Second

// Debouncer пропускает вызовы, пришедшие раньше окна после последнего принятого
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
	now    func() time.Time
}

// NewDebouncer создает debouncer с окном window
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window, now: time.Now}
}

// Allow возвращает true и запоминает время, если окно прошло
func (d *Debouncer) Allow() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !d.last.IsZero() && now.Sub(d.last) < d.window {
		return false
	}
	d.last = now
	return true
}
