// Package gpio drives the mode indicator LED with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Indicator is a single on/off output.
type Indicator interface {
	// Set drives the output high (on) or low.
	Set(on bool) error

	// Close releases GPIO resources.
	Close() error
}

// DefaultPinLED is the BCM pin of the manual-mode LED.
const DefaultPinLED = 17

// NopIndicator discards writes. Used when no LED is fitted.
type NopIndicator struct{}

func (NopIndicator) Set(bool) error { return nil }
func (NopIndicator) Close() error   { return nil }

// Latch forwards only level changes to the wrapped indicator, so it can be
// driven on every tick without a syscall each time.
type Latch struct {
	ind   Indicator
	known bool
	on    bool
}

// NewLatch wraps ind. The first Set is always forwarded.
func NewLatch(ind Indicator) *Latch {
	return &Latch{ind: ind}
}

// Set forwards on if it differs from the last successful write.
func (l *Latch) Set(on bool) error {
	if l.known && l.on == on {
		return nil
	}
	if err := l.ind.Set(on); err != nil {
		return err
	}
	l.known, l.on = true, on
	return nil
}

// Close closes the wrapped indicator.
func (l *Latch) Close() error {
	return l.ind.Close()
}
