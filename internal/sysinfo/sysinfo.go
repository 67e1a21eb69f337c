package sysinfo

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Status is a point-in-time view of the host the server runs on, exposed
// on the status endpoint so an operator can check a deployment at a glance.
type Status struct {
	Hostname          string  `json:"hostname"`
	UptimeSeconds     uint64  `json:"uptimeSeconds"`
	CPUPercent        float64 `json:"cpuPercent"`
	MemoryUsedPercent float64 `json:"memoryUsedPercent"`
}

// Snapshot collects host stats best-effort: a probe that fails on the
// current platform just leaves its field zeroed.
func Snapshot() *Status {
	s := &Status{}
	if info, err := host.Info(); err == nil {
		s.Hostname = info.Hostname
		s.UptimeSeconds = info.Uptime
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		s.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemoryUsedPercent = vm.UsedPercent
	}
	return s
}
