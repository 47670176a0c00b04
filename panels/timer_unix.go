//go:build unix

package panels

import (
	"syscall"
	"time"
)

// readCPUTimes reports the process CPU usage. It covers every goroutine, not only the
// request being measured.
func readCPUTimes() (cpuTimes, bool) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return cpuTimes{}, false
	}
	return cpuTimes{
		user:   time.Duration(ru.Utime.Nano()),
		system: time.Duration(ru.Stime.Nano()),
	}, true
}
