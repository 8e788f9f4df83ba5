// Package debounce - таймерная очередь, схлопывающая частые вызовы в один.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuietWindow - окно тишины для интерактивных триггеров (ввод текста, переключение фильтров).
const DefaultQuietWindow = 300 * time.Millisecond

// Debouncer выполняет последнюю переданную функцию после того,
// как вызовы Trigger не поступали в течение окна тишины.
type Debouncer struct {
	mu     sync.Mutex
	timer  *time.Timer
	window time.Duration
	closed bool
}

// New создает debouncer. Неположительное окно заменяется на DefaultQuietWindow.
func New(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultQuietWindow
	}
	return &Debouncer{window: window}
}

// Trigger откладывает fn; каждый новый вызов перезапускает таймер.
// После Close вызовы игнорируются.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		// таймер мог быть заменен новым Trigger уже после срабатывания
		if d.timer != timer || d.closed {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		fn()
	})
	d.timer = timer
}

// Cancel отменяет отложенный вызов, если он есть.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Immediate отменяет отложенный вызов и выполняет fn сразу в текущей горутине.
func (d *Debouncer) Immediate(fn func()) {
	d.Cancel()
	fn()
}

// Close отменяет отложенный вызов и запрещает новые.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.closed = true
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
