package services

import (
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

type orderLog struct {
    mu    sync.Mutex
    items []string
}

func (l *orderLog) add(s string) {
    l.mu.Lock()
    defer l.mu.Unlock()
    l.items = append(l.items, s)
}

func (l *orderLog) get() []string {
    l.mu.Lock()
    defer l.mu.Unlock()
    return append([]string(nil), l.items...)
}

func TestTimerScheduler_RunsInScheduleOrder(t *testing.T) {
    s := NewTimerScheduler()
    log := &orderLog{}

    // A long first delay must not let the short second task overtake it.
    s.Schedule(1, 30*time.Millisecond, func() { log.add("intro") })
    s.Schedule(1, 0, func() { log.add("question") })
    s.Schedule(1, 5*time.Millisecond, func() { log.add("follow-up") })

    require.Eventually(t, func() bool { return len(log.get()) == 3 }, time.Second, 5*time.Millisecond)
    assert.Equal(t, []string{"intro", "question", "follow-up"}, log.get())
    assert.Zero(t, s.Pending(1))
}

func TestTimerScheduler_CancelGeneration(t *testing.T) {
    s := NewTimerScheduler()
    log := &orderLog{}

    s.Schedule(1, 20*time.Millisecond, func() { log.add("old") })
    s.Schedule(1, 0, func() { log.add("old-2") })
    s.Schedule(2, 20*time.Millisecond, func() { log.add("new") })
    assert.Equal(t, 2, s.Pending(1))

    s.CancelGeneration(1)
    assert.Zero(t, s.Pending(1))

    require.Eventually(t, func() bool { return len(log.get()) == 1 }, time.Second, 5*time.Millisecond)
    time.Sleep(40 * time.Millisecond)
    assert.Equal(t, []string{"new"}, log.get())
}

func TestTimerScheduler_ScheduleFromRunningTask(t *testing.T) {
    s := NewTimerScheduler()
    log := &orderLog{}

    s.Schedule(7, 0, func() {
        log.add("first")
        s.Schedule(7, 0, func() { log.add("third") })
    })
    s.Schedule(7, 10*time.Millisecond, func() { log.add("second") })

    require.Eventually(t, func() bool { return len(log.get()) == 3 }, time.Second, 5*time.Millisecond)
    assert.Equal(t, []string{"first", "second", "third"}, log.get())
}
