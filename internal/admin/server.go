package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"vanet-sim/internal/geo"
	"vanet-sim/internal/logging"
	"vanet-sim/internal/sim"
	"vanet-sim/internal/traffic"
)

// DefaultReportRadiusM is used when a hazard report carries no radius.
const DefaultReportRadiusM = 50.0

type Server struct {
	Sim *sim.Simulator
	tpl *template.Template
	mux *http.ServeMux
}

//go:embed templates/index.html
var content embed.FS

func NewServer(sim *sim.Simulator) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	s := &Server{Sim: sim, tpl: tpl, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/update_simulation", s.handleUpdate)
	s.mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("/api/events_summary", s.handleSummary)
	s.mux.HandleFunc("/api/hazard_zones", s.handleZones)
	s.mux.HandleFunc("/api/report_hazard", s.handleReportHazard)
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logging.FromContext(ctx).Info("admin server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// simulationResponse mirrors the polling payload consumed by the index page.
type simulationResponse struct {
	Tick        int64                `json:"tick"`
	Vehicles    []traffic.Entity     `json:"vehicles"`
	Vessels     []traffic.Entity     `json:"vessels"`
	Events      []traffic.Event      `json:"events"`
	HazardZones []traffic.HazardZone `json:"hazard_zones"`
}

type hazardReport struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Lat         float64 `json:"latitude"`
	Lon         float64 `json:"longitude"`
	Radius      float64 `json:"radius"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	cfg := s.Sim.GetConfig()
	data := struct {
		ClusterID        string
		Region           string
		UpdateIntervalMS int64
	}{
		ClusterID:        cfg.ClusterID,
		Region:           cfg.Region.Name,
		UpdateIntervalMS: cfg.UpdateInterval.Milliseconds(),
	}
	if err := s.tpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("render index", "err", err)
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// With the Run loop active every poller would add a tick of its own.
	step := s.Sim.Step
	if s.Sim.Running() {
		step = s.Sim.Snapshot
	}
	snap, err := step(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	events, err := s.Sim.RecentEvents(ctx, sim.SummaryWindow)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, simulationResponse{
		Tick:        snap.Tick,
		Vehicles:    snap.Vehicles,
		Vessels:     snap.Vessels,
		Events:      nonNil(events),
		HazardZones: snap.HazardZones,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sim.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	snap.Events = nonNil(snap.Events)
	writeJSON(w, snap)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	window := sim.SummaryWindow
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "invalid since duration", http.StatusBadRequest)
			return
		}
		window = d
	}
	counts, err := s.Sim.Summary(r.Context(), window)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if counts == nil {
		counts = []traffic.TypeCount{}
	}
	writeJSON(w, counts)
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	zones, err := s.Sim.HazardZones(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if zones == nil {
		zones = []traffic.HazardZone{}
	}
	writeJSON(w, zones)
}

func (s *Server) handleReportHazard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var rep hazardReport
	if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
		http.Error(w, "invalid hazard report", http.StatusBadRequest)
		return
	}
	if !geo.ValidCoord(rep.Lat, rep.Lon) {
		http.Error(w, "latitude must be within [-90, 90] and longitude within [-180, 180]", http.StatusBadRequest)
		return
	}
	name := rep.Name
	if name == "" {
		name = rep.Description
	}
	if name == "" {
		name = "Reported Hazard"
	}
	radius := rep.Radius
	if radius == 0 {
		radius = DefaultReportRadiusM
	}
	z := traffic.HazardZone{Name: name, Lat: rep.Lat, Lon: rep.Lon, RadiusM: radius}
	if err := s.Sim.AddHazardZone(r.Context(), z); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logging.FromContext(r.Context()).Info("hazard reported", "name", name, "lat", z.Lat, "lon", z.Lon)
	writeJSONStatus(w, http.StatusCreated, map[string]string{"message": "Hazard reported: " + name})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("admin request failed", "path", r.URL.Path, "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func nonNil(events []traffic.Event) []traffic.Event {
	if events == nil {
		return []traffic.Event{}
	}
	return events
}
