package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"vanet-sim/internal/traffic"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

var templateFiles = []string{
	"templates/vanet-greptime.json.tmpl",
	"templates/vanet-store.json.tmpl",
}

// Tables names the tables the dashboards query.
type Tables struct {
	Positions string
	Events    string
	States    string
	Store     string
}

// DefaultTables returns the table names used by the writers and stores.
func DefaultTables() Tables {
	return Tables{
		Positions: traffic.PositionTableName,
		Events:    traffic.EventTableName,
		States:    traffic.StateTableName,
		Store:     "events",
	}
}

// Render parses dashboard templates and writes rendered dashboards to outDir.
// Datasource uids are read from GREPTIMEDB_DATASOURCE_UID and
// POSTGRES_DATASOURCE_UID.
func Render(outDir string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	data := DefaultTables()
	for _, tplName := range templateFiles {
		t, err := template.New(filepath.Base(tplName)).Funcs(funcMap).ParseFS(templates, tplName)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(tplName), ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, data); err != nil {
			f.Close()
			os.Remove(outPath)
			return fmt.Errorf("render %s: %w", tplName, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
