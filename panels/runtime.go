package panels

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/evan-idocoding/debugbar/toolbar"
)

// RuntimeID is the id of the runtime panel.
const RuntimeID = "runtime"

// processStart is captured once at package init time.
var processStart = time.Now()

// Runtime compares Go runtime statistics from before and after the request.
//
// The numbers are process-wide: concurrent requests show up in each other's deltas.
type Runtime struct {
	toolbar.BasePanel

	before, after runtimeSnapshot
}

type runtimeSnapshot struct {
	goroutines int
	cgoCalls   int64

	heapAlloc     uint64
	heapInuse     uint64
	heapObjects   uint64
	totalAlloc    uint64
	mallocs       uint64
	sys           uint64
	numGC         uint32
	pauseTotal    time.Duration
	nextGC        uint64
	gcCPUFraction float64
}

func readRuntime() runtimeSnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return runtimeSnapshot{
		goroutines: runtime.NumGoroutine(),
		cgoCalls:   runtime.NumCgoCall(),

		heapAlloc:     ms.HeapAlloc,
		heapInuse:     ms.HeapInuse,
		heapObjects:   ms.HeapObjects,
		totalAlloc:    ms.TotalAlloc,
		mallocs:       ms.Mallocs,
		sys:           ms.Sys,
		numGC:         ms.NumGC,
		pauseTotal:    time.Duration(ms.PauseTotalNs),
		nextGC:        ms.NextGC,
		gcCPUFraction: ms.GCCPUFraction,
	}
}

// NewRuntime is the runtime PanelFactory.
func NewRuntime(*toolbar.Toolbar) toolbar.Panel { return &Runtime{} }

func (p *Runtime) ID() string    { return RuntimeID }
func (p *Runtime) Title() string { return "Runtime" }

func (p *Runtime) NavSubtitle() string {
	return humanize.Bytes(p.allocated()) + " allocated"
}

func (p *Runtime) EnableInstrumentation() { p.before = readRuntime() }

func (p *Runtime) ProcessResponse(*http.Request, *toolbar.Response) { p.after = readRuntime() }

func (p *Runtime) allocated() uint64 { return sub(p.after.totalAlloc, p.before.totalAlloc) }

func (p *Runtime) Stats() toolbar.Stats {
	return toolbar.Stats{
		"goroutines":       p.after.goroutines,
		"allocated_bytes":  p.allocated(),
		"mallocs":          sub(p.after.mallocs, p.before.mallocs),
		"gc_runs":          p.after.numGC - p.before.numGC,
		"gc_pause":         p.after.pauseTotal - p.before.pauseTotal,
		"heap_alloc_bytes": p.after.heapAlloc,
	}
}

func (p *Runtime) Content() (template.HTML, error) {
	b, a := p.before, p.after
	return renderSections(
		section{Title: "During the request", Rows: []row{
			{"Allocated", humanize.Bytes(p.allocated())},
			{"Allocations", humanize.Comma(int64(sub(a.mallocs, b.mallocs)))},
			{"GC runs", strconv.FormatUint(uint64(a.numGC-b.numGC), 10)},
			{"GC pause", (a.pauseTotal - b.pauseTotal).String()},
			{"Goroutines", fmt.Sprintf("%d → %d", b.goroutines, a.goroutines)},
			{"Cgo calls", humanize.Comma(a.cgoCalls - b.cgoCalls)},
		}},
		section{Title: "Process", Rows: []row{
			{"PID", strconv.Itoa(os.Getpid())},
			{"Uptime", time.Since(processStart).Round(time.Second).String()},
			{"Go version", runtime.Version()},
			{"GOMAXPROCS", strconv.Itoa(runtime.GOMAXPROCS(0))},
			{"Heap in use", humanize.Bytes(a.heapInuse)},
			{"Heap objects", humanize.Comma(int64(a.heapObjects))},
			{"Next GC", humanize.Bytes(a.nextGC)},
			{"Obtained from OS", humanize.Bytes(a.sys)},
			{"GC CPU fraction", fmt.Sprintf("%.4f%%", a.gcCPUFraction*100)},
		}},
	)
}

// sub returns a-b, or 0 when a counter went backwards.
func sub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
