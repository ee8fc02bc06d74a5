// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/wfunc/mafiaserver/logger"
)

// DefaultTick is how often due tasks are collected.
const DefaultTick = 100 * time.Millisecond

type TimerTask struct {
	Id       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type TimerQueue []*TimerTask

func (q TimerQueue) Len() int { return len(q) }

func (q TimerQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q TimerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *TimerQueue) Push(x interface{}) {
	n := len(*q)
	task := x.(*TimerTask)
	task.index = n
	*q = append(*q, task)
}

func (q *TimerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// TimerManager runs delayed and periodic callbacks. Callbacks execute on a
// worker pool, never on the scheduling goroutine, so a slow callback does
// not delay other rooms' timers.
type TimerManager struct {
	queue   TimerQueue
	byId    map[int64]*TimerTask
	mutex   sync.Mutex
	nextId  int64
	tick    time.Duration
	pool    *ants.Pool
	closeCh chan struct{}
	once    sync.Once
}

func NewTimerManager(workers int) (*TimerManager, error) {
	return NewTimerManagerWithTick(workers, DefaultTick)
}

func NewTimerManagerWithTick(workers int, tick time.Duration) (*TimerManager, error) {
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		logger.Log.Errorf("timer callback panic: %v", p)
	}))
	if err != nil {
		return nil, err
	}

	manager := &TimerManager{
		queue:   make(TimerQueue, 0),
		byId:    make(map[int64]*TimerTask),
		nextId:  1,
		tick:    tick,
		pool:    pool,
		closeCh: make(chan struct{}),
	}
	heap.Init(&manager.queue)
	go manager.process()
	return manager, nil
}

// AddTimer schedules callback after delay, repeating every interval when interval > 0.
func (m *TimerManager) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &TimerTask{
		Id:       m.nextId,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextId++

	heap.Push(&m.queue, task)
	m.byId[task.Id] = task
	return task.Id
}

// RemoveTimer cancels a pending task. A callback already handed to the pool still runs.
func (m *TimerManager) RemoveTimer(timerId int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task, ok := m.byId[timerId]
	if !ok {
		return
	}
	delete(m.byId, timerId)
	if task.index >= 0 {
		heap.Remove(&m.queue, task.index)
	}
}

// Pending returns the number of scheduled tasks.
func (m *TimerManager) Pending() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.Len()
}

// Stop halts scheduling and releases the worker pool.
func (m *TimerManager) Stop() {
	m.once.Do(func() {
		close(m.closeCh)
		m.pool.Release()
	})
}

func (m *TimerManager) process() {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, task := range m.due(time.Now()) {
				if err := m.pool.Submit(task.Callback); err != nil {
					logger.Log.Warnf("timer %d submit failed: %v", task.Id, err)
				}
			}
		case <-m.closeCh:
			return
		}
	}
}

// due pops every task whose time has come and re-queues periodic ones.
func (m *TimerManager) due(now time.Time) []*TimerTask {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var ready []*TimerTask
	for m.queue.Len() > 0 {
		task := m.queue[0]
		if task.Execute.After(now) {
			break
		}

		heap.Pop(&m.queue)
		ready = append(ready, task)

		if task.Interval > 0 {
			task.Execute = now.Add(task.Interval)
			heap.Push(&m.queue, task)
		} else {
			delete(m.byId, task.Id)
		}
	}
	return ready
}
