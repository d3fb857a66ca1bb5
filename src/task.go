package ags

import "sync"

// TaskType identifies the single mutation a Task performs (spec §3 Task
// entity / §4.7).
type TaskType int

const (
	TaskTic TaskType = iota
	TaskClearBuffer
	TaskSwitchBufferFlag
)

func (t TaskType) String() string {
	switch t {
	case TaskTic:
		return "Tic"
	case TaskClearBuffer:
		return "ClearBuffer"
	case TaskSwitchBufferFlag:
		return "SwitchBufferFlag"
	default:
		return "Unknown"
	}
}

// Task is a deferred single-mutation message carrying a strong reference to
// its target soundcard (spec §3, §9: "Tasks carry strong references to
// their soundcard; no cyclic ownership arises because soundcards never own
// the launcher").
type Task struct {
	Type      TaskType
	Soundcard *Soundcard
}

// Run executes the task's single mutation. It must not block on audio I/O
// (spec §4.7). The Tic task delivers the already-advanced note offset to
// registered consumers; the scheduler arithmetic itself ran on the audio
// thread before the task was posted.
func (t Task) Run() {
	switch t.Type {
	case TaskTic:
		t.Soundcard.notifyTic()
	case TaskClearBuffer:
		t.Soundcard.ringBuffer.ClearCurrent()
	case TaskSwitchBufferFlag:
		t.Soundcard.ringBuffer.SwitchBuffer()
	}
}

// TaskLauncher is a FIFO multi-producer, single-consumer queue (spec §4.7,
// §9: "reimplement as a bounded MPSC channel of owned task values").
// Grounded on tq.go's producer/consumer condvar transmit queue, replaced
// here with a buffered channel plus one worker goroutine, which is the
// idiomatic Go shape for the same handoff.
type TaskLauncher struct {
	queue   chan Task
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex

	// enqueueMu serializes AddTaskAll so one caller's task group lands in
	// the queue contiguously even when producers race.
	enqueueMu sync.Mutex
}

// NewTaskLauncher creates a launcher with the given queue capacity and
// starts its worker goroutine.
func NewTaskLauncher(capacity int) *TaskLauncher {
	l := &TaskLauncher{
		queue: make(chan Task, capacity),
		done:  make(chan struct{}),
	}
	l.start()
	return l
}

func (l *TaskLauncher) start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case task, ok := <-l.queue:
				if !ok {
					return
				}
				task.Run()
			case <-l.done:
				// Drain whatever is already queued before exiting so a
				// shutdown never leaves a partially-applied Tic ->
				// ClearBuffer -> SwitchBufferFlag triple (spec §5 ordering
				// guarantee).
				for {
					select {
					case task, ok := <-l.queue:
						if !ok {
							return
						}
						task.Run()
					default:
						return
					}
				}
			}
		}
	}()
}

// AddTaskAll appends tasks atomically with respect to the FIFO order: the
// launcher's own enqueue mutex guarantees all tasks in the slice land in
// the queue before any other goroutine's AddTaskAll call interleaves, so a
// posted Tic->ClearBuffer->SwitchBufferFlag triple is never split by a
// concurrent producer (spec §4.5/§5).
func (l *TaskLauncher) AddTaskAll(tasks []Task) {
	l.enqueueMu.Lock()
	defer l.enqueueMu.Unlock()
	for _, t := range tasks {
		l.queue <- t
	}
}

// Shutdown tells the worker to run whatever is already queued and exit,
// then waits for it to do so. It does not block producers: tasks added
// after the worker has exited stay in the queue and are never run.
func (l *TaskLauncher) Shutdown() {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	close(l.done)
	l.wg.Wait()
}
