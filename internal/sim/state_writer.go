package sim

import "vanet-sim/internal/traffic"

// StateWriter handles per-tick summary rows.
type StateWriter interface {
	WriteState(traffic.TickStateRow) error
}
