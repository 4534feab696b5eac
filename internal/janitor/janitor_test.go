package janitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestRunOnceExecutesEveryTask(t *testing.T) {
	var first, second atomic.Int64
	tasks := []Task{
		{Name: "first", Run: func(*gorm.DB) (int64, error) {
			first.Add(1)
			return 2, nil
		}},
		{Name: "failing", Run: func(*gorm.DB) (int64, error) {
			return 0, errors.New("boom")
		}},
		{Name: "second", Run: func(*gorm.DB) (int64, error) {
			second.Add(1)
			return 0, nil
		}},
	}

	RunOnce(nil, tasks)

	if first.Load() != 1 || second.Load() != 1 {
		t.Errorf("runs = %d/%d, want 1/1 (a failing task must not stop the rest)", first.Load(), second.Load())
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	var runs atomic.Int64
	tasks := []Task{
		{Name: "counter", Run: func(*gorm.DB) (int64, error) {
			runs.Add(1)
			return 0, nil
		}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, nil, 5*time.Millisecond, tasks)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("janitor never ticked")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop on cancel")
	}
}
