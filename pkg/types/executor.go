package types

// TaskExecutor runs tasks on one logical worker thread. Defer never blocks;
// it returns false when the task cannot be queued.
type TaskExecutor interface {
	Defer(task func()) bool
	Close() error
}
