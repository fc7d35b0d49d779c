package sim

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"vanet-sim/internal/traffic"
)

var sleep = time.Sleep

// replay decodes JSON lines from r and hands each value to emit, pausing
// for the recorded gap between timestamps divided by speed.
func replay[T any](r io.Reader, speed float64, stamp func(T) time.Time, emit func(T) error) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var v T
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		ts := stamp(v)
		if !prev.IsZero() && speed > 0 {
			diff := ts.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				sleep(diff)
			}
		}
		if err := emit(v); err != nil {
			return err
		}
		prev = ts
	}
}

// ReplayLog replays position rows from r to writer. A speed >0 accelerates playback.
// If speed <= 0, no artificial delay is inserted.
func ReplayLog(r io.Reader, writer PositionWriter, speed float64) error {
	return replay(r, speed, func(row traffic.PositionRow) time.Time { return row.Timestamp }, writer.Write)
}

// ReplayEvents replays an event log from r to writer.
func ReplayEvents(r io.Reader, writer EventWriter, speed float64) error {
	return replay(r, speed, func(ev traffic.Event) time.Time { return ev.Timestamp }, writer.WriteEvent)
}

// ReplayLogFile opens a file and replays its position rows.
func ReplayLogFile(path string, writer PositionWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}

// ReplayEventsFile opens a file and replays its events.
func ReplayEventsFile(path string, writer EventWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayEvents(f, writer, speed)
}
