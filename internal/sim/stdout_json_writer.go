package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"vanet-sim/internal/traffic"
)

// JSONStdoutWriter prints positions, events and state rows as JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

func (w *JSONStdoutWriter) emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// Write outputs a position row in JSON format.
func (w *JSONStdoutWriter) Write(row traffic.PositionRow) error {
	return w.emit(row)
}

// WriteBatch outputs multiple position rows in JSON format.
func (w *JSONStdoutWriter) WriteBatch(rows []traffic.PositionRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent outputs an event in JSON format.
func (w *JSONStdoutWriter) WriteEvent(ev traffic.Event) error {
	return w.emit(ev)
}

// WriteState outputs a tick state row in JSON format.
func (w *JSONStdoutWriter) WriteState(row traffic.TickStateRow) error {
	return w.emit(row)
}
