package sim

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"vanet-sim/internal/config"
	"vanet-sim/internal/geo"
	"vanet-sim/internal/traffic"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a position log line for the viewport.
type logMsg struct{ line string }

// eventMsg carries an event log line and the event itself.
type eventMsg struct {
	line string
	ev   traffic.Event
}

// stateMsg carries a tick summary.
type stateMsg struct{ traffic.TickStateRow }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

type positionMsg struct{ traffic.PositionRow }

type setZoneAdderMsg struct{ fn func(traffic.HazardZone) error }

// zonesMsg replaces the hazard zone list with the stored zones.
type zonesMsg struct{ zones []traffic.HazardZone }

// zoneAddedMsg reports the outcome of a zone submitted from the dialog.
type zoneAddedMsg struct {
	zone traffic.HazardZone
	err  error
}

const (
	fallbackZoneInput   = "Reported Hazard,0,0,50"
	maxLogLines         = 500
	maxSectionHeightPct = 0.25
)

// TUIWriter renders simulation output using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
// Quitting the TUI interrupts the process.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements PositionWriter.
func (w *TUIWriter) Write(row traffic.PositionRow) error {
	kindColor := colorGreen
	if row.Kind == traffic.KindVessel {
		kindColor = colorBlue
	}
	line := fmt.Sprintf("%s[%s]%s %s%s=%s%s %slat=%.5f%s %slon=%.5f%s %sspd=%.1f%s %shdg=%.1f%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		kindColor, row.Kind, row.EntityID, colorReset,
		colorGreen, row.Lat, colorReset,
		colorYellow, row.Lon, colorReset,
		colorCyan, row.Speed, colorReset,
		colorMagenta, row.Heading, colorReset)
	w.program.Send(logMsg{line: line})
	w.program.Send(positionMsg{row})
	return nil
}

// WriteBatch writes multiple position rows.
func (w *TUIWriter) WriteBatch(rows []traffic.PositionRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteEvent implements EventWriter.
func (w *TUIWriter) WriteEvent(ev traffic.Event) error {
	col, ok := eventColors[ev.Type]
	if !ok {
		col = colorRed
	}
	line := fmt.Sprintf("%s[%s]%s %s%s%s %s",
		colorGray, ev.Timestamp.Format(time.RFC3339), colorReset,
		col, strings.ToUpper(string(ev.Type)), colorReset, ev.Description)
	w.program.Send(eventMsg{line: line, ev: ev})
	return nil
}

// WriteState implements StateWriter.
func (w *TUIWriter) WriteState(row traffic.TickStateRow) error {
	w.program.Send(stateMsg{row})
	return nil
}

// SetAdminStatus implements AdminStatusWriter.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetZoneAdder registers the callback used when a hazard is reported from the
// TUI. A zone is listed only once fn returns nil.
func (w *TUIWriter) SetZoneAdder(fn func(traffic.HazardZone) error) {
	w.program.Send(setZoneAdderMsg{fn: fn})
}

// SetHazardZones replaces the listed zones, typically with the store contents.
func (w *TUIWriter) SetHazardZones(zones []traffic.HazardZone) {
	w.program.Send(zonesMsg{zones: append([]traffic.HazardZone(nil), zones...)})
}

// Close stops the TUI without interrupting the process.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	w.program.Send(tea.Quit())
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg          *config.SimulationConfig
	table        table.Model
	vp           viewport.Model
	eventVP      viewport.Model
	logs         []string
	eventLogs    []string
	state        traffic.TickStateRow
	admin        bool
	wrap         bool
	autoscroll   bool
	header       string
	headerHeight int
	height       int
	zones        []traffic.HazardZone
	zoneInput    textinput.Model
	zoneDialog   bool
	addZone      func(traffic.HazardZone) error
	summary      bool
	help         bool
	showMap      bool
	positions    map[string]traffic.PositionRow
	eventCounts  map[traffic.EventType]int
	totalEvents  int
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	cols := []table.Column{
		{Title: "Config", Width: 22},
		{Title: "Value", Width: 10},
		{Title: "Config", Width: 22},
		{Title: "Value", Width: 10},
	}
	rows := []table.Row{
		{"Vehicles", strconv.Itoa(cfg.Vehicles.Count), "Vessels", strconv.Itoa(cfg.Vessels.Count)},
		{"Proximity (m)", fmt.Sprintf("%.0f", cfg.Thresholds.ProximityM), "Speed Diff (km/h)", fmt.Sprintf("%.0f", cfg.Thresholds.SpeedDiffKmh)},
		{"Congestion (/km²)", fmt.Sprintf("%.0f", cfg.Thresholds.CongestionDensity), "Area (km)", fmt.Sprintf("%.1f", cfg.Region.SizeKm)},
		{"Rough Weather (km/h)", fmt.Sprintf("%.0f", cfg.Thresholds.RoughWeatherSpeedKmh), "Distress Prob.", fmt.Sprintf("%g", cfg.Thresholds.DistressCallProbability)},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	zi := textinput.New()
	zi.Placeholder = fallbackZoneInput
	return tuiModel{
		cfg:         cfg,
		table:       t,
		vp:          viewport.New(0, 0),
		eventVP:     viewport.New(0, 0),
		autoscroll:  true,
		zoneInput:   zi,
		positions:   make(map[string]traffic.PositionRow),
		eventCounts: make(map[traffic.EventType]int),
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width / 2)
		m.vp.Width = msg.Width
		m.eventVP.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshEvents()
	case tea.KeyMsg:
		if m.zoneDialog {
			switch msg.Type {
			case tea.KeyEnter:
				m.zoneDialog = false
				m.updateViewportHeight()
				z, err := parseZoneInput(m.zoneInput.Value())
				if err != nil {
					m.logs = appendCapped(m.logs, "invalid hazard zone: "+err.Error())
					m.refreshViewport()
					return m, nil
				}
				add := m.addZone
				return m, func() tea.Msg {
					if add == nil {
						return zoneAddedMsg{zone: z}
					}
					return zoneAddedMsg{zone: z, err: add(z)}
				}
			case tea.KeyEsc:
				m.zoneDialog = false
				m.updateViewportHeight()
			default:
				var cmd tea.Cmd
				m.zoneInput, cmd = m.zoneInput.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			case "q", "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.header = m.renderHeader()
			m.headerHeight = lipgloss.Height(m.header)
			m.updateViewportHeight()
			m.refreshViewport()
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.eventVP.GotoBottom()
			}
		case "z":
			m.zoneDialog = true
			m.zoneInput.SetValue("")
			m.zoneInput.Focus()
			m.updateViewportHeight()
		case "m":
			m.showMap = !m.showMap
		case "t":
			m.summary = !m.summary
			m.updateViewportHeight()
		case "h", "?":
			m.help = true
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			}
		}
	case logMsg:
		m.logs = appendCapped(m.logs, msg.line)
		m.refreshViewport()
	case eventMsg:
		m.eventLogs = appendCapped(m.eventLogs, msg.line)
		m.eventCounts[msg.ev.Type]++
		m.totalEvents++
		m.updateViewportHeight()
		m.refreshEvents()
	case positionMsg:
		m.positions[msg.EntityID] = msg.PositionRow
	case stateMsg:
		m.state = msg.TickStateRow
	case adminMsg:
		m.admin = msg.active
	case setZoneAdderMsg:
		m.addZone = msg.fn
	case zonesMsg:
		m.zones = msg.zones
		m.refreshHeader()
	case zoneAddedMsg:
		if msg.err != nil {
			m.logs = appendCapped(m.logs, fmt.Sprintf("hazard zone %q rejected: %v", msg.zone.Name, msg.err))
			m.refreshViewport()
			break
		}
		m.zones = append(m.zones, msg.zone)
		m.refreshHeader()
	}
	return m, nil
}

func (m *tuiModel) refreshHeader() {
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
	m.updateViewportHeight()
}

func appendCapped(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return lines
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())
	maxLines := int(float64(m.height) * maxSectionHeightPct)
	if maxLines < 1 {
		maxLines = 1
	}
	evLines := len(m.eventLogs)
	if evLines == 0 {
		evLines = 1
	}
	if evLines > maxLines {
		evLines = maxLines
	}
	m.eventVP.Height = evLines

	dialogHeight := 0
	if m.zoneDialog {
		dialogHeight = 2
	}
	h := m.height - m.headerHeight - bottomHeight - (1 + m.eventVP.Height) - dialogHeight - 3
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.eventVP.GotoBottom()
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshEvents() {
	content := "none"
	if len(m.eventLogs) > 0 {
		content = strings.Join(m.eventLogs, "\n")
	}
	m.eventVP.SetContent(content)
	if m.autoscroll {
		m.eventVP.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	bottom := m.renderBottom()
	divider := strings.Repeat("─", m.vp.Width)
	if m.showMap {
		return strings.Join([]string{m.header, divider, m.renderMap(), divider, bottom}, "\n")
	}
	sections := []string{
		m.header,
		divider,
		m.vp.View(),
		divider,
		"Events:",
		m.eventVP.View(),
	}
	if m.zoneDialog {
		sections = append(sections, divider, "Report hazard (name,lat,lon,radius_m):", m.zoneInput.View())
	}
	sections = append(sections, divider, bottom)
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	zonesWidth := m.vp.Width/2 - 1
	zones := renderZoneList(m.zones, m.wrap, zonesWidth)
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), sep, zones)
}

func renderZoneList(zones []traffic.HazardZone, wrap bool, width int) string {
	var b strings.Builder
	b.WriteString("Hazard Zones\n")
	if len(zones) == 0 {
		b.WriteString("└─ none")
		return b.String()
	}
	for i, z := range zones {
		prefix := "├─"
		if i == len(zones)-1 {
			prefix = "└─"
		}
		line := fmt.Sprintf("%s %s%s%s (%.5f, %.5f) r=%.0fm", prefix, colorMagenta, z.Name, colorReset, z.Lat, z.Lon, z.RadiusM)
		if wrap && width > 0 {
			line = wordwrap.String(line, width)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m tuiModel) renderSummary() string {
	var vehicles, vessels int
	var speedSum float64
	for _, p := range m.positions {
		if p.Kind == traffic.KindVessel {
			vessels++
		} else {
			vehicles++
		}
		speedSum += p.Speed
	}
	avg := 0.0
	if n := vehicles + vessels; n > 0 {
		avg = speedSum / float64(n)
	}
	parts := []string{fmt.Sprintf("Tracked: %d vehicles, %d vessels, avg %.1f km/h", vehicles, vessels, avg)}
	for _, t := range traffic.EventTypes {
		parts = append(parts, fmt.Sprintf("%s=%d", t, m.eventCounts[t]))
	}
	parts = append(parts, fmt.Sprintf("total=%d", m.totalEvents))
	return strings.Join(parts, " ")
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	state := fmt.Sprintf("%sTICK %d%s %svehicles=%d%s %svessels=%d%s %sevents=%d%s",
		colorBlue, m.state.Tick, colorReset,
		colorGreen, m.state.Vehicles, colorReset,
		colorCyan, m.state.Vessels, colorReset,
		colorRed, m.state.Events, colorReset)
	line := fmt.Sprintf("%s | Admin UI %s | Wrap %s | Scroll %s | Summary %s | Map %s",
		state, indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.summary), indicator(m.showMap))
	if m.summary {
		return fmt.Sprintf("%s\n%s", m.renderSummary(), line)
	}
	return line
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" w  toggle wrap",
		" s  toggle auto-scroll",
		" z  report hazard zone (name,lat,lon,radius_m)",
		" t  toggle summary footer",
		" m  toggle map view",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}

// mapBounds covers the road region and the maritime area.
func (m tuiModel) mapBounds() config.Bounds {
	r, s := m.cfg.Region.Bounds, m.cfg.Maritime.Bounds
	return config.Bounds{
		LatMin: math.Min(r.LatMin, s.LatMin),
		LatMax: math.Max(r.LatMax, s.LatMax),
		LonMin: math.Min(r.LonMin, s.LonMin),
		LonMax: math.Max(r.LonMax, s.LonMax),
	}
}

func (m tuiModel) renderMap() string {
	width := m.vp.Width
	if width < 1 {
		width = 1
	}
	mapHeight := m.height - m.headerHeight - lipgloss.Height(m.renderBottom()) - 4
	if mapHeight < 1 {
		mapHeight = 1
	}
	if len(m.positions) == 0 && len(m.zones) == 0 {
		return "No position data"
	}
	b := m.mapBounds()
	latRange := b.LatMax - b.LatMin
	lonRange := b.LonMax - b.LonMin
	grid := make([][]string, mapHeight)
	for i := range grid {
		row := make([]string, width)
		for j := range row {
			row[j] = "."
		}
		grid[i] = row
	}
	place := func(lat, lon float64, glyph string) {
		if latRange <= 0 || lonRange <= 0 {
			return
		}
		x := int((lon - b.LonMin) / lonRange * float64(width-1))
		y := int((b.LatMax - lat) / latRange * float64(mapHeight-1))
		if x < 0 || x >= width || y < 0 || y >= mapHeight {
			return
		}
		grid[y][x] = glyph
	}
	for _, z := range m.zones {
		place(z.Lat, z.Lon, colorMagenta+"Z"+colorReset)
	}
	for _, p := range m.positions {
		if p.Kind == traffic.KindVessel {
			place(p.Lat, p.Lon, colorBlue+"~"+colorReset)
		} else {
			place(p.Lat, p.Lon, colorGreen+"v"+colorReset)
		}
	}
	lines := make([]string, mapHeight)
	for i, row := range grid {
		lines[i] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}

func parseZoneInput(val string) (traffic.HazardZone, error) {
	if strings.TrimSpace(val) == "" {
		val = fallbackZoneInput
	}
	parts := strings.Split(val, ",")
	if len(parts) != 4 {
		return traffic.HazardZone{}, fmt.Errorf("want name,lat,lon,radius_m")
	}
	name := strings.TrimSpace(parts[0])
	nums := make([]float64, 3)
	for i, p := range parts[1:] {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return traffic.HazardZone{}, err
		}
		nums[i] = f
	}
	if nums[2] < 0 {
		return traffic.HazardZone{}, fmt.Errorf("radius must not be negative")
	}
	if !geo.ValidCoord(nums[0], nums[1]) {
		return traffic.HazardZone{}, fmt.Errorf("lat must be within [-90, 90] and lon within [-180, 180]")
	}
	return traffic.HazardZone{Name: name, Lat: nums[0], Lon: nums[1], RadiusM: nums[2]}, nil
}
