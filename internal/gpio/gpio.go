// Package gpio provides the raw contact sample with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the raw contact state.
type Reader interface {
	// Read returns true if the contact is currently asserted (pressed).
	// Active-low wiring is handled inside the implementation, so true
	// always means "pressed".
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults for a button wired between a Pi header pin and ground.
const (
	DefaultChip = "gpiochip0"
	DefaultLine = 17 // BCM numbering
)

// Sampler adapts a Reader to the button core's raw-sample capability.
// A read error latches the previous good value, so a transient fault
// never injects a spurious edge into the debounce filter.
func Sampler(r Reader) func() bool {
	last := false
	return func() bool {
		v, err := r.Read()
		if err != nil {
			return last
		}
		last = v
		return v
	}
}
