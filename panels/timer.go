package panels

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/evan-idocoding/debugbar/toolbar"
)

// TimerID is the id of the timer panel.
const TimerID = "timer"

// Timer measures the wall time of a request and, where the platform reports it, the CPU
// time the process spent meanwhile.
type Timer struct {
	toolbar.BasePanel

	start    time.Time
	startCPU cpuTimes
	cpuOK    bool

	total  time.Duration
	cpu    cpuTimes
	closed bool
}

type cpuTimes struct {
	user, system time.Duration
}

func (c cpuTimes) sum() time.Duration { return c.user + c.system }

// NewTimer is the timer PanelFactory.
func NewTimer(*toolbar.Toolbar) toolbar.Panel { return &Timer{} }

func (p *Timer) ID() string    { return TimerID }
func (p *Timer) Title() string { return "Time" }

func (p *Timer) NavSubtitle() string {
	if !p.closed {
		return ""
	}
	if p.cpuOK {
		return fmt.Sprintf("CPU: %.2fms (%.2fms)", ms(p.cpu.sum()), ms(p.total))
	}
	return fmt.Sprintf("Total: %.2fms", ms(p.total))
}

func (p *Timer) EnableInstrumentation() {
	p.start = time.Now()
	p.startCPU, p.cpuOK = readCPUTimes()
}

func (p *Timer) ProcessResponse(*http.Request, *toolbar.Response) {
	p.total = time.Since(p.start)
	if p.cpuOK {
		end, ok := readCPUTimes()
		p.cpuOK = ok
		p.cpu = cpuTimes{user: end.user - p.startCPU.user, system: end.system - p.startCPU.system}
	}
	p.closed = true
}

func (p *Timer) Stats() toolbar.Stats {
	s := toolbar.Stats{"total_time": ms(p.total)}
	if p.cpuOK {
		s["utime"] = ms(p.cpu.user)
		s["stime"] = ms(p.cpu.system)
		s["total_cpu_time"] = ms(p.cpu.sum())
	}
	return s
}

func (p *Timer) Content() (template.HTML, error) {
	rows := []row{{"Total time", fmt.Sprintf("%.3f msec", ms(p.total))}}
	if p.cpuOK {
		rows = append(rows,
			row{"User CPU time", fmt.Sprintf("%.3f msec", ms(p.cpu.user))},
			row{"System CPU time", fmt.Sprintf("%.3f msec", ms(p.cpu.system))},
			row{"Total CPU time", fmt.Sprintf("%.3f msec", ms(p.cpu.sum()))},
		)
	}
	return renderSections(section{Rows: rows})
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
