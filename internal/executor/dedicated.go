package executor

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/ALEYI17/ofh_timing/pkg/logutil"
	"github.com/ALEYI17/ofh_timing/pkg/types"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("executor closed")

const DefaultQueueSize = 64

// Dedicated runs tasks one after another on a single goroutine locked to
// its own OS thread, optionally pinned to a CPU.
type Dedicated struct {
	name  string
	tasks chan func()
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

var _ types.TaskExecutor = (*Dedicated)(nil)

// NewDedicated starts the executor thread. A negative cpu leaves the thread
// unpinned.
func NewDedicated(name string, queueSize int, cpu int) (*Dedicated, error) {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &Dedicated{
		name:  name,
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}

	ready := make(chan error, 1)
	go d.run(cpu, ready)
	if err := <-ready; err != nil {
		<-d.done
		return nil, fmt.Errorf("executor %s: %w", name, err)
	}

	logutil.GetLogger().Info("executor started",
		zap.String("name", name),
		zap.Int("cpu", cpu),
		zap.Int("queue", queueSize))
	return d, nil
}

func (d *Dedicated) run(cpu int, ready chan<- error) {
	defer close(d.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if cpu >= 0 {
		if err := pinCurrentThread(cpu); err != nil {
			ready <- err
			return
		}
	}
	ready <- nil

	for task := range d.tasks {
		task()
	}
}

// Defer queues task without blocking. It returns false if the queue is full
// or the executor is closed.
func (d *Dedicated) Defer(task func()) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}
	select {
	case d.tasks <- task:
		return true
	default:
		return false
	}
}

// Close stops accepting tasks, runs what is already queued and waits for
// the thread to exit. Tasks that keep re-deferring themselves must be
// stopped before Close.
func (d *Dedicated) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	<-d.done
	logutil.GetLogger().Info("executor stopped", zap.String("name", d.name))
	return nil
}
