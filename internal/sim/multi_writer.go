package sim

import "vanet-sim/internal/traffic"

// MultiWriter fans positions, events and state rows out to multiple writers.
type MultiWriter struct {
	posWriters   []PositionWriter
	eventWriters []EventWriter
	stateWriters []StateWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(pws []PositionWriter, ews []EventWriter, sws []StateWriter) *MultiWriter {
	return &MultiWriter{posWriters: pws, eventWriters: ews, stateWriters: sws}
}

func (mw *MultiWriter) members() []any {
	var out []any
	seen := make(map[any]bool)
	add := func(w any) {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	for _, w := range mw.posWriters {
		add(w)
	}
	for _, w := range mw.eventWriters {
		add(w)
	}
	for _, w := range mw.stateWriters {
		add(w)
	}
	return out
}

// Write sends a position row to all position writers.
func (mw *MultiWriter) Write(row traffic.PositionRow) error {
	for _, w := range mw.posWriters {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends position rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []traffic.PositionRow) error {
	for _, w := range mw.posWriters {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteEvent sends an event to all event writers.
func (mw *MultiWriter) WriteEvent(ev traffic.Event) error {
	for _, w := range mw.eventWriters {
		if err := w.WriteEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvents sends events to all event writers, using batch if supported.
func (mw *MultiWriter) WriteEvents(events []traffic.Event) error {
	for _, w := range mw.eventWriters {
		if bw, ok := w.(batchEventWriter); ok {
			if err := bw.WriteEvents(events); err != nil {
				return err
			}
			continue
		}
		for _, ev := range events {
			if err := w.WriteEvent(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteState sends a state row to all state writers.
func (mw *MultiWriter) WriteState(row traffic.TickStateRow) error {
	for _, w := range mw.stateWriters {
		if err := w.WriteState(row); err != nil {
			return err
		}
	}
	return nil
}
