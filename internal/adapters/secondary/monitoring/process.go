package monitoring

import (
	"context"
	"errors"
	"os"

	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessStats are host-side figures for the running server process
type ProcessStats struct {
	ResidentBytes int64
	CPUPercent    float64
	Load1         float64
}

// ProcessSampler reads ProcessStats for the current process
type ProcessSampler func(ctx context.Context) (ProcessStats, error)

// sampleProcess reads resident memory and CPU usage of this process and the
// one-minute host load. Load is left at zero where the platform has none.
func sampleProcess(ctx context.Context) (ProcessStats, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())) // #nosec G115 - pids fit in int32
	if err != nil {
		return ProcessStats{}, err
	}

	var stats ProcessStats
	var errs []error
	if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		stats.ResidentBytes = clampInt64(mem.RSS)
	} else if err != nil {
		errs = append(errs, err)
	}
	if pct, err := p.CPUPercentWithContext(ctx); err == nil {
		stats.CPUPercent = pct
	} else {
		errs = append(errs, err)
	}
	if avg, err := load.AvgWithContext(ctx); err == nil && avg != nil {
		stats.Load1 = avg.Load1
	}
	return stats, errors.Join(errs...)
}
