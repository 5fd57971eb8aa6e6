package collector

import (
  "sync"
  "time"

  "github.com/robertof/go-ble-monitor/collector/model"
  "github.com/robertof/go-ble-monitor/device"
)

// Store keeps the most recent reading of every device, keyed by MAC.
type Store struct {
  // If a device hasn't been heard of for more than StaleAfter, its reading is no longer
  // returned by Latest().
  StaleAfter time.Duration

  mu sync.Mutex
  observations map[string]model.Observation

  now func() time.Time
}

func NewStore(staleAfter time.Duration) *Store {
  return &Store{
    StaleAfter: staleAfter,
    observations: make(map[string]model.Observation),
    now: time.Now,
  }
}

// Update records r unless a newer reading of the same device is already stored.
func (s *Store) Update(r device.Reading, seenAt time.Time) {
  s.mu.Lock()
  defer s.mu.Unlock()

  if prev, ok := s.observations[r.MAC]; ok && prev.SeenAt.After(seenAt) {
    return
  }

  s.observations[r.MAC] = model.Observation{
    Reading: r,
    SeenAt: seenAt,
  }
}

// Latest returns a snapshot of the fresh readings. Stale entries are evicted.
func (s *Store) Latest() map[string]model.Observation {
  s.mu.Lock()
  defer s.mu.Unlock()

  now := s.now()
  out := make(map[string]model.Observation, len(s.observations))

  for mac, o := range s.observations {
    if s.StaleAfter > 0 && now.Sub(o.SeenAt) > s.StaleAfter {
      delete(s.observations, mac)
      continue
    }

    out[mac] = o
  }

  return out
}

func (s *Store) Len() int {
  s.mu.Lock()
  defer s.mu.Unlock()

  return len(s.observations)
}
