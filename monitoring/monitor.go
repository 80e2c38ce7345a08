// Package monitoring serves a live view of a running yard over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/yardsim/eventlog"
	"github.com/sarchlab/yardsim/hooking"
	"github.com/sarchlab/yardsim/render"
	"github.com/sarchlab/yardsim/scheduler"
	"github.com/sarchlab/yardsim/tracing"
	"github.com/sarchlab/yardsim/verify"
	"github.com/sarchlab/yardsim/yard"
)

// DefaultRefreshInterval is the minimum time between two copies of the yard.
const DefaultRefreshInterval = 100 * time.Millisecond

// StatsProvider summarizes the actions of a run.
type StatsProvider interface {
	Stats() tracing.ActionStats
}

// Monitor is a hook that keeps a copy of the yard it observes and serves it,
// with the progress of the run, over HTTP. The hook runs on the simulation
// goroutine; the handlers only read the copies.
type Monitor struct {
	portNumber      int
	openBrowser     bool
	refreshInterval time.Duration

	lock        sync.Mutex
	now         yard.TimeStamp
	snapshot    *yard.Snapshot
	lastRefresh time.Time
	stats       StatsProvider

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
	containerBar     *ProgressBar

	listener net.Listener
	server   *http.Server
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		refreshInterval: DefaultRefreshInterval,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor in a web browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// WithRefreshInterval sets the minimum time between two copies of the yard.
func (m *Monitor) WithRefreshInterval(d time.Duration) *Monitor {
	m.refreshInterval = d
	return m
}

// RegisterStats sets where the action summary comes from.
func (m *Monitor) RegisterStats(s StatsProvider) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.stats = s
}

// TrackContainers creates a progress bar that advances every time the
// scheduler is done with a container.
func (m *Monitor) TrackContainers(total uint64) *ProgressBar {
	bar := m.CreateProgressBar("Containers", total)

	m.lock.Lock()
	m.containerBar = bar
	m.lock.Unlock()

	return bar
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Func observes scheduler actions and replayed records.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case scheduler.HookPosAction:
		if a, ok := ctx.Item.(scheduler.Action); ok {
			m.observe(a.Time, ctx.Detail, false)
		}
	case scheduler.HookPosContainerDone:
		m.lock.Lock()
		bar := m.containerBar
		m.lock.Unlock()

		if bar != nil {
			bar.IncrementFinished(1)
		}
	case verify.HookPosReplayStep:
		if r, ok := ctx.Item.(eventlog.Record); ok {
			m.observe(r.Time, ctx.Detail, r.Kind == eventlog.KindStart)
		}
	}
}

func (m *Monitor) observe(now yard.TimeStamp, detail any, force bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.now = now

	if !force && time.Since(m.lastRefresh) < m.refreshInterval {
		return
	}

	if y, ok := detail.(*yard.Yard); ok {
		m.snapshot = y.Snapshot()
		m.lastRefresh = time.Now()
	}
}

// Update copies the yard immediately.
func (m *Monitor) Update(now yard.TimeStamp, y *yard.Yard) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.now = now
	m.snapshot = y.Snapshot()
	m.lastRefresh = time.Now()
}

// Router returns the handler of the HTTP API.
func (m *Monitor) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.listNow)
	r.HandleFunc("/api/yard", m.listYard)
	r.HandleFunc("/api/yard/text", m.drawYard)
	r.HandleFunc("/api/field/{name}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/stats", m.listStats)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	return r
}

// StartServer starts the monitor as a web server and returns its address.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring yard with %s\n", url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Monitoring server stopped: %v\n", err)
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return url, nil
}

// StopServer shuts the web server down.
func (m *Monitor) StopServer() error {
	if m.server == nil {
		return nil
	}

	return m.server.Close()
}

func (m *Monitor) currentSnapshot(w http.ResponseWriter) *yard.Snapshot {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.snapshot == nil {
		http.Error(w, "no yard observed yet", http.StatusNotFound)
	}

	return m.snapshot
}

func (m *Monitor) listNow(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	now := m.now
	m.lock.Unlock()

	writeJSON(w, struct {
		Now yard.TimeStamp `json:"now"`
	}{now})
}

func (m *Monitor) listYard(w http.ResponseWriter, _ *http.Request) {
	s := m.currentSnapshot(w)
	if s == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(s)
	serializer.SetMaxDepth(3)

	if err := serializer.Serialize(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	s := m.currentSnapshot(w)
	if s == nil {
		return
	}

	fields := strings.Split(mux.Vars(r)["name"], ".")

	serializer := goseth.NewSerializer()
	serializer.SetRoot(s)
	serializer.SetMaxDepth(1)

	if err := serializer.SetEntryPoint(fields); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := serializer.Serialize(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m *Monitor) drawYard(w http.ResponseWriter, _ *http.Request) {
	s := m.currentSnapshot(w)
	if s == nil {
		return
	}

	m.lock.Lock()
	now := m.now
	m.lock.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if err := render.Render(w, s, fmt.Sprintf("t: %d", now)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.rsp())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

func (m *Monitor) listStats(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	stats := m.stats
	cash := 0
	if m.snapshot != nil {
		cash = m.snapshot.Cash()
	}
	m.lock.Unlock()

	rsp := struct {
		tracing.ActionStats
		Cash int `json:"cash"`
	}{Cash: cash}

	if stats != nil {
		rsp.ActionStats = stats.Stats()
	}

	writeJSON(w, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memoryInfo, err := p.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
