package engine

import "sync"

// notifier delivers events to listeners on its own goroutine. The queue is
// unbounded so a slow listener never stalls the worker.
type notifier struct {
	mu        sync.Mutex
	queue     []Event
	listeners map[int]Listener
	nextID    int
	wake      chan struct{}
	quit      chan struct{}
	closed    bool
}

func newNotifier() *notifier {
	n := &notifier{
		listeners: make(map[int]Listener),
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
	}
	go n.loop()
	return n
}

func (n *notifier) add(l Listener) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = l
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.listeners, id)
		n.mu.Unlock()
	}
}

func (n *notifier) push(ev Event) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.queue = append(n.queue, ev)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	close(n.quit)
}

func (n *notifier) loop() {
	for {
		select {
		case <-n.quit:
			return
		case <-n.wake:
		}

		for {
			n.mu.Lock()
			if len(n.queue) == 0 {
				n.mu.Unlock()
				break
			}
			batch := n.queue
			n.queue = nil
			ls := make([]Listener, 0, len(n.listeners))
			for id := 0; id < n.nextID; id++ {
				if l, ok := n.listeners[id]; ok {
					ls = append(ls, l)
				}
			}
			n.mu.Unlock()

			for _, ev := range batch {
				for _, l := range ls {
					l(ev)
				}
			}
		}
	}
}
