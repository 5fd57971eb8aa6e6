package collector

import (
	"context"
	"hash/fnv"

	"github.com/robertof/go-ble-monitor/device"
)

// shardedQueue serializes the advertisements of each device onto a single worker.
type shardedQueue struct {
	shards []chan device.Advertisement
	done   chan struct{}
}

func newShardedQueue(n, size int) *shardedQueue {
	q := &shardedQueue{
		shards: make([]chan device.Advertisement, n),
		done:   make(chan struct{}),
	}

	for i := range q.shards {
		q.shards[i] = make(chan device.Advertisement, size)
	}

	return q
}

func (q *shardedQueue) shardFor(mac []byte) int {
	h := fnv.New32a()
	h.Write(mac)

	return int(h.Sum32() % uint32(len(q.shards)))
}

// the source could deliver an advertisement even after its Scan() returns. channels are
// never closed so late sends are dropped instead of panicking.
func (q *shardedQueue) enqueue(ctx context.Context, adv device.Advertisement) {
	select {
	case <-q.done:
	case <-ctx.Done():
	case q.shards[q.shardFor(adv.MAC)] <- adv:
	}
}

// finish tells workers to drain their shard and stop.
func (q *shardedQueue) finish() {
	close(q.done)
}

func (q *shardedQueue) consume(ctx context.Context, shard int, handle func(device.Advertisement)) {
	ch := q.shards[shard]

	for {
		select {
		case <-ctx.Done():
			return
		case adv := <-ch:
			handle(adv)
		case <-q.done:
			for {
				select {
				case adv := <-ch:
					handle(adv)
				default:
					return
				}
			}
		}
	}
}
