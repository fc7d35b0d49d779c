package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"vanet-sim/internal/traffic"
)

type entityRow struct {
	Seq     int64  `gorm:"primaryKey;autoIncrement"`
	ID      string `gorm:"uniqueIndex;size:128"`
	Kind    string `gorm:"index;size:16"`
	Lat     float64
	Lon     float64
	Speed   float64
	Heading float64
}

func (entityRow) TableName() string { return "entities" }

type zoneRow struct {
	ID     int64 `gorm:"primaryKey;autoIncrement"`
	Name   string
	Lat    float64
	Lon    float64
	Radius float64
}

func (zoneRow) TableName() string { return "hazard_zones" }

type eventRow struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Type        string `gorm:"index;size:32"`
	Description string
	Lat         float64
	Lon         float64
	EntityID    string `gorm:"size:128"`
	Involved    datatypes.JSON
	Timestamp   time.Time `gorm:"index"`
}

func (eventRow) TableName() string { return "events" }

// Gorm is a Store backed by SQLite or PostgreSQL.
type Gorm struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenGorm connects to driver ("sqlite" or "postgres") and migrates the schema.
func OpenGorm(driver, dsn string) (*Gorm, error) {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true})
	default:
		return nil, fmt.Errorf("unknown gorm driver %q", driver)
	}
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.AutoMigrate(&entityRow{}, &zoneRow{}, &eventRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Gorm{db: db, now: time.Now}, nil
}

func (g *Gorm) LoadEntities(ctx context.Context, kind traffic.Kind) ([]traffic.Entity, error) {
	var rows []entityRow
	if err := g.db.WithContext(ctx).Where("kind = ?", string(kind)).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load %s entities: %w", kind, err)
	}
	out := make([]traffic.Entity, len(rows))
	for i, r := range rows {
		out[i] = traffic.Entity{ID: r.ID, Kind: traffic.Kind(r.Kind), Lat: r.Lat, Lon: r.Lon, Speed: r.Speed, Heading: r.Heading}
	}
	return out, nil
}

func (g *Gorm) SaveEntities(ctx context.Context, kind traffic.Kind, entities []traffic.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	if err := checkKind(kind, entities); err != nil {
		return err
	}
	rows := make([]entityRow, len(entities))
	for i, e := range entities {
		rows[i] = entityRow{ID: e.ID, Kind: string(e.Kind), Lat: e.Lat, Lon: e.Lon, Speed: e.Speed, Heading: e.Heading}
	}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"lat", "lon", "speed", "heading"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("save %s entities: %w", kind, err)
	}
	return nil
}

func (g *Gorm) LoadHazardZones(ctx context.Context) ([]traffic.HazardZone, error) {
	var rows []zoneRow
	if err := g.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load hazard zones: %w", err)
	}
	out := make([]traffic.HazardZone, len(rows))
	for i, r := range rows {
		out[i] = traffic.HazardZone{ID: r.ID, Name: r.Name, Lat: r.Lat, Lon: r.Lon, RadiusM: r.Radius}
	}
	return out, nil
}

func (g *Gorm) SaveHazardZones(ctx context.Context, zones []traffic.HazardZone) error {
	if len(zones) == 0 {
		return nil
	}
	rows := make([]zoneRow, len(zones))
	for i, z := range zones {
		rows[i] = zoneRow{ID: z.ID, Name: z.Name, Lat: z.Lat, Lon: z.Lon, Radius: z.RadiusM}
	}
	if err := g.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("save hazard zones: %w", err)
	}
	return nil
}

func (g *Gorm) AppendEvents(ctx context.Context, events []traffic.Event) error {
	if len(events) == 0 {
		return nil
	}
	ts := g.now().UTC()
	rows := make([]eventRow, len(events))
	for i, ev := range events {
		involved := datatypes.JSON("[]")
		if len(ev.InvolvedEntities) > 0 {
			b, err := json.Marshal(ev.InvolvedEntities)
			if err != nil {
				return fmt.Errorf("encode involved entities: %w", err)
			}
			involved = datatypes.JSON(b)
		}
		when := ev.Timestamp
		if when.IsZero() {
			when = ts
		}
		rows[i] = eventRow{
			Type:        string(ev.Type),
			Description: ev.Description,
			Lat:         ev.Lat,
			Lon:         ev.Lon,
			EntityID:    ev.EntityID,
			Involved:    involved,
			Timestamp:   when.UTC(),
		}
	}
	if err := g.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	return nil
}

func (g *Gorm) RecentEvents(ctx context.Context, since time.Time) ([]traffic.Event, error) {
	var rows []eventRow
	err := g.db.WithContext(ctx).Where("timestamp > ?", since.UTC()).Order("timestamp, id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	out := make([]traffic.Event, len(rows))
	for i, r := range rows {
		ev := traffic.Event{
			Type:        traffic.EventType(r.Type),
			Description: r.Description,
			Lat:         r.Lat,
			Lon:         r.Lon,
			EntityID:    r.EntityID,
			Timestamp:   r.Timestamp.UTC(),
		}
		if len(r.Involved) > 0 {
			var ids []string
			if err := json.Unmarshal(r.Involved, &ids); err != nil {
				return nil, fmt.Errorf("decode involved entities: %w", err)
			}
			if len(ids) > 0 {
				ev.InvolvedEntities = ids
			}
		}
		out[i] = ev
	}
	return out, nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
