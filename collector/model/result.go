package model

import (
	"fmt"
	"time"

	"github.com/robertof/go-ble-monitor/device"
)

// Observation is the latest reading of a device together with when it was received.
type Observation struct {
	Reading device.Reading
	SeenAt  time.Time
}

func (o Observation) String() string {
	return fmt.Sprintf("observation(%v @ %s)", o.Reading, o.SeenAt.Format(time.RFC3339))
}
