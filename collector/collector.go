package collector

import (
  "context"
  "errors"
  "time"

  "github.com/robertof/go-ble-monitor/device"
  "github.com/robertof/go-ble-monitor/session"
  "github.com/rs/zerolog/log"
  "golang.org/x/sync/errgroup"
)

const (
  DefaultWorkers = 4
  DefaultQueueSize = 64
)

// Source produces advertisements until the context is done or the source is exhausted.
type Source interface {
  Scan(ctx context.Context, onAdvertisement func(device.Advertisement)) error
}

type Options struct {
  Workers int
  QueueSize int
  // Readings older than StaleAfter are no longer reported by Latest. Zero keeps them forever.
  StaleAfter time.Duration
  // Called from the worker goroutines for every published reading.
  OnReading func(device.Reading)
}

type Collector struct {
  session *session.Session
  opts Options
  store *Store

  now func() time.Time
}

func New(s *session.Session, opts Options) *Collector {
  if opts.Workers <= 0 {
    opts.Workers = DefaultWorkers
  }

  if opts.QueueSize <= 0 {
    opts.QueueSize = DefaultQueueSize
  }

  return &Collector{
    session: s,
    opts: opts,
    store: NewStore(opts.StaleAfter),
    now: time.Now,
  }
}

func (c *Collector) Store() *Store {
  return c.store
}

// Run feeds the advertisements of src through the session until ctx is cancelled or src
// returns. Advertisements of the same device are always handled by the same worker, in
// order.
func (c *Collector) Run(ctx context.Context, src Source) error {
  eg, ctx := errgroup.WithContext(ctx)

  q := newShardedQueue(c.opts.Workers, c.opts.QueueSize)

  log.Info().
    Int("Workers", c.opts.Workers).
    Int("QueueSize", c.opts.QueueSize).
    Dur("StaleAfter", c.opts.StaleAfter).
    Msg("Starting collector")

  for i := 0; i < c.opts.Workers; i++ {
    shard := i

    eg.Go(func() error {
      q.consume(ctx, shard, c.handle)
      return nil
    })
  }

  eg.Go(func() error {
    defer q.finish()

    err := src.Scan(ctx, func(adv device.Advertisement) {
      q.enqueue(ctx, adv)
    })

    // swallow errors caused by our own cancellation.
    if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
      err = nil
    }

    return err
  })

  return eg.Wait()
}

func (c *Collector) handle(adv device.Advertisement) {
  r, outcome, ok := c.session.Process(adv)

  log.Trace().
    Hex("Addr", adv.MAC).
    Int("RSSI", adv.RSSI).
    Hex("ManufacturerData", adv.Data).
    Str("Outcome", string(outcome)).
    Msg("collector: processed advertisement")

  if !ok {
    return
  }

  c.store.Update(r, c.now())

  log.Debug().
    Object("Reading", r).
    Msg("Received reading")

  if c.opts.OnReading != nil {
    c.opts.OnReading(r)
  }
}
