// Package janitor runs the periodic token cleanup on its own goroutine.
package janitor

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

// DefaultInterval is how often the janitor wakes.
const DefaultInterval = time.Hour

// Task is one cleanup operation, returning how many rows it touched.
type Task struct {
	Name string
	Run  func(db *gorm.DB) (int64, error)
}

// RunOnce executes every task once, logging counts. Used for the startup
// sweep and by each tick.
func RunOnce(db *gorm.DB, tasks []Task) {
	for _, task := range tasks {
		count, err := task.Run(db)
		if err != nil {
			log.Printf("[janitor] %s failed: %v", task.Name, err)
			continue
		}
		if count > 0 {
			log.Printf("[janitor] %s: %d rows", task.Name, count)
		}
	}
}

// Run loops until ctx is cancelled, executing the tasks every interval.
func Run(ctx context.Context, db *gorm.DB, interval time.Duration, tasks []Task) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	log.Printf("[janitor] started, interval %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("[janitor] stopped")
			return
		case <-ticker.C:
			RunOnce(db, tasks)
		}
	}
}
