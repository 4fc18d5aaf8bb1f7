package util

import (
	"runtime"
)

// RuntimeStats is a snapshot of the Go runtime for health checks and run logs.
type RuntimeStats struct {
	HeapAllocMB uint64
	HeapSysMB   uint64
	Goroutines  int
	NumGC       uint32
}

func ReadRuntimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		HeapAllocMB: m.HeapAlloc >> 20,
		HeapSysMB:   m.HeapSys >> 20,
		Goroutines:  runtime.NumGoroutine(),
		NumGC:       m.NumGC,
	}
}
