// ABOUTME: FIFO worker that runs a collection's remote operations one at a time
// ABOUTME: Mirrors a single-threaded event loop; callers never wait on it
package store

import "sync"

type worker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	running bool
	stopped bool
	exited  bool
}

func newWorker() *worker {
	w := &worker{}
	w.cond = sync.NewCond(&w.mu)
	go w.loop()
	return w
}

// push queues fn. It reports false once the worker has exited.
func (w *worker) push(fn func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.exited {
		return false
	}
	w.queue = append(w.queue, fn)
	w.cond.Broadcast()
	return true
}

func (w *worker) loop() {
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.stopped {
			w.cond.Wait()
		}
		if len(w.queue) == 0 {
			w.exited = true
			w.cond.Broadcast()
			w.mu.Unlock()
			return
		}
		fn := w.queue[0]
		w.queue[0] = nil
		w.queue = w.queue[1:]
		w.running = true
		w.mu.Unlock()

		fn()

		w.mu.Lock()
		w.running = false
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}

// wait blocks until the queue is empty and nothing is running.
func (w *worker) wait() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for (len(w.queue) > 0 || w.running) && !w.exited {
		w.cond.Wait()
	}
}

// stop lets the worker drain what is queued and then exit.
func (w *worker) stop() {
	w.mu.Lock()
	w.stopped = true
	w.cond.Broadcast()
	w.mu.Unlock()
}
