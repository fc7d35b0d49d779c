package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"vanet-sim/internal/traffic"
)

const defaultGreptimePort = 4001

// greptimeClient is the subset of the ingester client the writer uses.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes positions, events and tick state to GreptimeDB.
type GreptimeDBWriter struct {
	client     greptimeClient
	clusterID  string
	posTable   string
	eventTable string
	stateTable string
}

// NewGreptimeDBWriter connects to endpoint (host[:port]) and writes into database.
func NewGreptimeDBWriter(endpoint, database, clusterID string) (*GreptimeDBWriter, error) {
	host, port := endpoint, defaultGreptimePort
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("greptime port %q: %w", p, err)
		}
		host, port = h, n
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client:     client,
		clusterID:  clusterID,
		posTable:   traffic.PositionTableName,
		eventTable: traffic.EventTableName,
		stateTable: traffic.StateTableName,
	}, nil
}

// Write inserts a single position row.
func (w *GreptimeDBWriter) Write(row traffic.PositionRow) error {
	return w.WriteBatch([]traffic.PositionRow{row})
}

// WriteBatch inserts multiple position rows.
func (w *GreptimeDBWriter) WriteBatch(rows []traffic.PositionRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.posTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("cluster_id", types.STRING)
	tbl.AddTagColumn("entity_id", types.STRING)
	tbl.AddTagColumn("kind", types.STRING)
	tbl.AddFieldColumn("lat", types.FLOAT64)
	tbl.AddFieldColumn("lon", types.FLOAT64)
	tbl.AddFieldColumn("speed_kmh", types.FLOAT64)
	tbl.AddFieldColumn("heading_deg", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	for _, r := range rows {
		if err := tbl.AddRow(r.ClusterID, r.EntityID, string(r.Kind), r.Lat, r.Lon, r.Speed, r.Heading, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl)
}

// WriteEvent inserts a single event.
func (w *GreptimeDBWriter) WriteEvent(ev traffic.Event) error {
	return w.WriteEvents([]traffic.Event{ev})
}

// WriteEvents inserts multiple events. Involved entities are stored as JSON.
func (w *GreptimeDBWriter) WriteEvents(events []traffic.Event) error {
	if len(events) == 0 {
		return nil
	}
	tbl, err := table.New(w.eventTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("cluster_id", types.STRING)
	tbl.AddTagColumn("type", types.STRING)
	tbl.AddFieldColumn("involved_entities", types.JSON)
	tbl.AddFieldColumn("entity_id", types.STRING)
	tbl.AddFieldColumn("description", types.STRING)
	tbl.AddFieldColumn("lat", types.FLOAT64)
	tbl.AddFieldColumn("lon", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	for _, ev := range events {
		ids := ev.InvolvedEntities
		if ids == nil {
			ids = []string{}
		}
		involved, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		if err := tbl.AddRow(w.clusterID, string(ev.Type), string(involved), ev.EntityID, ev.Description, ev.Lat, ev.Lon, ev.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl)
}

// WriteState inserts a tick summary row.
func (w *GreptimeDBWriter) WriteState(row traffic.TickStateRow) error {
	tbl, err := table.New(w.stateTable)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("cluster_id", types.STRING)
	tbl.AddFieldColumn("tick", types.INT64)
	tbl.AddFieldColumn("vehicles", types.INT64)
	tbl.AddFieldColumn("vessels", types.INT64)
	tbl.AddFieldColumn("events", types.INT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	if err := tbl.AddRow(row.ClusterID, row.Tick, int64(row.Vehicles), int64(row.Vessels), int64(row.Events), row.Timestamp); err != nil {
		return err
	}
	return w.write(tbl)
}

func (w *GreptimeDBWriter) write(tbl *table.Table) error {
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		return fmt.Errorf("greptime write: %w", err)
	}
	return nil
}
