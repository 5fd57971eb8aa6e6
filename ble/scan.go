package ble

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-ble/ble"
	"github.com/rs/zerolog/log"

	"github.com/robertof/go-ble-monitor/device"
)

func WrapContextWithSigHandler(ctx context.Context, cancel func()) context.Context {
  return ble.WithSigHandler(ctx, cancel)
}

// Perform an active or passive scan and return every advertisement found.
func (h *Handle) ScanAll(ctx context.Context, onDevice func(Advertisement)) error {
  err := h.dev.Scan(ctx, true, onDevice)

  if err != nil {
    return fmt.Errorf("failed to initiate scan: %w", err)
  }

  return nil
}

// Scan reports every advertisement carrying manufacturer data, duplicates included, until
// ctx is done. Implements collector.Source.
func (h *Handle) Scan(ctx context.Context, onAdvertisement func(device.Advertisement)) error {
  callback := func(a Advertisement) {
    // the BLE lib could send an advertisement even after `Scan()` returns. do not waste
    // time converting data if we're done.
    select {
    case <-ctx.Done():
      return
    default:
    }

    receivedAdvertisementsCounter.Inc()

    adv, err := ToDevice(a)

    if err != nil {
      skippedAdvertisementsCounter.Inc()

      if !errors.Is(err, ErrNoManufacturerData) {
        log.Trace().
          Err(err).
          Interface("Addr", a.Addr()).
          Msg("ble: skipping advertisement")
      }

      return
    }

    onAdvertisement(adv)
  }

  err := h.dev.Scan(ctx, true, callback)

  // swallow context.Canceled errors which are caused by our explicit cancellations.
  if errors.Is(err, context.Canceled) {
    err = nil
  }

  return err
}
