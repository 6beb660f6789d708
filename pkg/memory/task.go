package memory

import "github.com/charmbracelet/log"

// Detach runs fn on its own goroutine without awaiting it. Errors and panics
// are caught and logged at the task boundary so a failing background task
// can never become an unhandled failure or reach a user-facing path.
func Detach(name string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("background task panicked", "task", name, "panic", r)
			}
		}()
		if err := fn(); err != nil {
			log.Error("background task failed", "task", name, "err", err)
		}
	}()
}
