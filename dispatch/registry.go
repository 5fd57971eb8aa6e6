package dispatch

import (
  "fmt"
  "sync"

  "github.com/robertof/go-ble-monitor/device"
)

// Variant narrows a company id to one firmware variant by the value of the byte at
// Offset in the manufacturer data.
type Variant struct {
  Offset int
  Value byte
}

// Discriminator selects the decoder for an advertisement.
type Discriminator struct {
  CompanyID uint16
  // nil matches every variant of the company id
  Variant *Variant
}

func (d Discriminator) String() string {
  if d.Variant == nil {
    return fmt.Sprintf("company 0x%04x", d.CompanyID)
  }

  return fmt.Sprintf("company 0x%04x, byte[%d]=0x%02x", d.CompanyID, d.Variant.Offset, d.Variant.Value)
}

func (d Discriminator) equal(o Discriminator) bool {
  if d.CompanyID != o.CompanyID || (d.Variant == nil) != (o.Variant == nil) {
    return false
  }

  return d.Variant == nil || *d.Variant == *o.Variant
}

func (d Discriminator) matches(p device.Payload) bool {
  if d.Variant == nil {
    return true
  }

  b, err := p.Byte(d.Variant.Offset)
  return err == nil && b == d.Variant.Value
}

type registeredDecoder struct {
  discriminator Discriminator
  decoder device.Decoder
}

// Registry maps discriminators to decoders. Adding a family never touches the entries of
// the others.
type Registry struct {
  mu sync.RWMutex
  entries []registeredDecoder
}

func NewRegistry() *Registry {
  return &Registry{}
}

// Register routes every advertisement carrying companyID to dec.
func (r *Registry) Register(companyID uint16, dec device.Decoder) error {
  return r.add(Discriminator{CompanyID: companyID}, dec)
}

// RegisterVariant routes advertisements carrying companyID and value at offset to dec.
// Variant entries take precedence over plain company id entries.
func (r *Registry) RegisterVariant(companyID uint16, offset int, value byte, dec device.Decoder) error {
  return r.add(Discriminator{
    CompanyID: companyID,
    Variant: &Variant{Offset: offset, Value: value},
  }, dec)
}

func (r *Registry) add(d Discriminator, dec device.Decoder) error {
  if dec == nil {
    return fmt.Errorf("nil decoder for %v", d)
  }

  if d.Variant != nil && d.Variant.Offset < 0 {
    return fmt.Errorf("negative variant offset for %v", d)
  }

  r.mu.Lock()
  defer r.mu.Unlock()

  for _, e := range r.entries {
    if e.discriminator.equal(d) {
      return fmt.Errorf("%v is already handled by %s", d, e.decoder.Family())
    }
  }

  r.entries = append(r.entries, registeredDecoder{discriminator: d, decoder: dec})

  return nil
}

// Lookup returns the decoders able to handle p for companyID, most specific first.
func (r *Registry) Lookup(companyID uint16, p device.Payload) []device.Decoder {
  r.mu.RLock()
  defer r.mu.RUnlock()

  var variants, plain []device.Decoder

  for _, e := range r.entries {
    if e.discriminator.CompanyID != companyID || !e.discriminator.matches(p) {
      continue
    }

    if e.discriminator.Variant != nil {
      variants = append(variants, e.decoder)
    } else {
      plain = append(plain, e.decoder)
    }
  }

  return append(variants, plain...)
}

// Families describes the registered decoders, in registration order.
func (r *Registry) Families() []string {
  r.mu.RLock()
  defer r.mu.RUnlock()

  out := make([]string, len(r.entries))

  for i, e := range r.entries {
    out[i] = fmt.Sprintf("%s (%v)", e.decoder.Family(), e.discriminator)
  }

  return out
}
