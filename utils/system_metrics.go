package utils

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// GetHostStats samples CPU usage since the previous call and current memory usage.
func GetHostStats(ctx context.Context) (HostStats, error) {
	var stats HostStats

	percentage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return stats, fmt.Errorf("cpu usage: %w", err)
	}
	if len(percentage) > 0 {
		stats.CPUPercent = percentage[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return stats, fmt.Errorf("memory usage: %w", err)
	}
	stats.MemoryPercent = vm.UsedPercent
	return stats, nil
}
