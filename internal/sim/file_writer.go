package sim

import (
	"encoding/json"
	"os"

	"vanet-sim/internal/traffic"
)

// FileWriter writes positions, events and tick state to JSONL files.
type FileWriter struct {
	posFile   *os.File
	eventFile *os.File
	stateFile *os.File
	posEnc    *json.Encoder
	eventEnc  *json.Encoder
	stateEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. eventPath or statePath may be empty to skip those logs.
func NewFileWriter(positionPath, eventPath, statePath string) (*FileWriter, error) {
	pf, err := os.Create(positionPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{posFile: pf, posEnc: json.NewEncoder(pf)}
	if eventPath != "" {
		ef, err := os.Create(eventPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.eventFile = ef
		fw.eventEnc = json.NewEncoder(ef)
	}
	if statePath != "" {
		sf, err := os.Create(statePath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.stateFile = sf
		fw.stateEnc = json.NewEncoder(sf)
	}
	return fw, nil
}

// Write logs a single position row.
func (f *FileWriter) Write(row traffic.PositionRow) error {
	return f.posEnc.Encode(row)
}

// WriteBatch logs multiple position rows.
func (f *FileWriter) WriteBatch(rows []traffic.PositionRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent logs a single event, if enabled.
func (f *FileWriter) WriteEvent(ev traffic.Event) error {
	if f.eventEnc == nil {
		return nil
	}
	return f.eventEnc.Encode(ev)
}

// WriteEvents logs multiple events.
func (f *FileWriter) WriteEvents(events []traffic.Event) error {
	for _, ev := range events {
		if err := f.WriteEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// WriteState logs a tick state row, if enabled.
func (f *FileWriter) WriteState(row traffic.TickStateRow) error {
	if f.stateEnc == nil {
		return nil
	}
	return f.stateEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.posFile, f.eventFile, f.stateFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
