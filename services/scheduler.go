package services

import (
    "sync"
    "time"
)

// Scheduler delays bot messages. Tasks are grouped by the generation that
// scheduled them so a superseded conversation can drop its pending output
// in one call.
type Scheduler interface {
    Schedule(generation uint64, delay time.Duration, task func())
    CancelGeneration(generation uint64)
}

type scheduledTask struct {
    delay time.Duration
    run   func()
}

type taskQueue struct {
    tasks   []scheduledTask
    timer   *time.Timer
    running bool
}

// TimerScheduler runs tasks of one generation strictly in the order they
// were scheduled. Each delay counts from the previous task of the same
// generation, which staggers consecutive bot messages.
type TimerScheduler struct {
    mu     sync.Mutex
    queues map[uint64]*taskQueue
}

func NewTimerScheduler() *TimerScheduler {
    return &TimerScheduler{queues: make(map[uint64]*taskQueue)}
}

func (s *TimerScheduler) Schedule(generation uint64, delay time.Duration, task func()) {
    if delay < 0 {
        delay = 0
    }
    s.mu.Lock()
    defer s.mu.Unlock()

    q, ok := s.queues[generation]
    if !ok {
        q = &taskQueue{}
        s.queues[generation] = q
    }
    q.tasks = append(q.tasks, scheduledTask{delay: delay, run: task})
    if q.timer == nil && !q.running {
        s.arm(generation, q)
    }
}

// arm starts the timer for the head task. Caller holds s.mu.
func (s *TimerScheduler) arm(generation uint64, q *taskQueue) {
    head := q.tasks[0]
    q.timer = time.AfterFunc(head.delay, func() {
        s.fire(generation, q)
    })
}

func (s *TimerScheduler) fire(generation uint64, q *taskQueue) {
    s.mu.Lock()
    if s.queues[generation] != q || len(q.tasks) == 0 {
        s.mu.Unlock()
        return
    }
    head := q.tasks[0]
    q.tasks = q.tasks[1:]
    q.timer = nil
    q.running = true
    s.mu.Unlock()

    head.run()

    s.mu.Lock()
    defer s.mu.Unlock()
    q.running = false
    if s.queues[generation] != q {
        return
    }
    if len(q.tasks) == 0 {
        delete(s.queues, generation)
        return
    }
    s.arm(generation, q)
}

func (s *TimerScheduler) CancelGeneration(generation uint64) {
    s.mu.Lock()
    defer s.mu.Unlock()

    q, ok := s.queues[generation]
    if !ok {
        return
    }
    if q.timer != nil {
        q.timer.Stop()
    }
    delete(s.queues, generation)
}

// Pending reports how many tasks are waiting for generation.
func (s *TimerScheduler) Pending(generation uint64) int {
    s.mu.Lock()
    defer s.mu.Unlock()
    if q, ok := s.queues[generation]; ok {
        return len(q.tasks)
    }
    return 0
}
