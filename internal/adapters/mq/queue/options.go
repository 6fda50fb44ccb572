package queue

type config struct {
	capacity   int
	bufferSize int
	onSize     func(int)
	onDrop     func()
}

// Option applies a configuration option to the InMemoryQueue.
type Option func(*config)

// WithCapacity sets the maximum capacity of the queue.
func WithCapacity(capacity int) Option {
	return func(c *config) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

// WithBufferSize sets the buffer size for the items channel.
func WithBufferSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

// WithSizeObserver is called with the queue length after every change.
func WithSizeObserver(fn func(size int)) Option {
	return func(c *config) { c.onSize = fn }
}

// WithDropObserver is called whenever Enqueue rejects an item.
func WithDropObserver(fn func()) Option {
	return func(c *config) { c.onDrop = fn }
}
