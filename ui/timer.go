package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// timer shows the time since the current request started. It freezes when the request finishes
type timer struct {
	mtx   sync.Mutex
	start time.Time
	end   time.Time
	text  *canvas.Text
}

func newTimer() *timer {
	return &timer{
		text: canvas.NewText(formatElapsed(0), nil),
	}
}

func (t *timer) Start(now time.Time) {
	t.mtx.Lock()
	t.start = now
	t.end = time.Time{}
	t.mtx.Unlock()
}

func (t *timer) Finish(now time.Time) {
	t.mtx.Lock()
	t.end = now
	t.mtx.Unlock()
}

func (t *timer) elapsed() time.Duration {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	switch {
	case t.start.IsZero():
		return 0
	case t.end.IsZero():
		return time.Since(t.start)
	default:
		return t.end.Sub(t.start)
	}
}

// Go refreshes the text until ctx is done
func (t *timer) Go(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(64 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			text := formatElapsed(t.elapsed())
			fyne.Do(func() {
				if t.text.Text == text {
					return
				}
				t.text.Text = text
				t.text.Refresh()
			})
		}
	}()
}

func formatElapsed(elapsed time.Duration) string {
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60
	millis := int(elapsed.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
}
