package infosvc

import (
	"errors"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"servicedeck/pkg/models"
)

const (
	defaultStatmPath = "/proc/self/statm"
	minStatmFields   = 2
	nanosPerMicro    = 1000
)

var errShortStatm = errors.New("statm: too few fields")

// ProcessSample is a point-in-time view of the serving process's resources.
type ProcessSample struct {
	RSS       uint64
	HeapUsed  uint64
	HeapTotal uint64
	CPU       models.CPUUsage
}

// Sampler reads process resource usage. Implementations must not fail:
// a missing source degrades to the best figure available.
type Sampler interface {
	Sample() ProcessSample
}

// RuntimeSampler combines /proc, the Go runtime and getrusage.
type RuntimeSampler struct {
	statmPath string
	pageSize  int
}

func NewRuntimeSampler() *RuntimeSampler {
	return &RuntimeSampler{
		statmPath: defaultStatmPath,
		pageSize:  os.Getpagesize(),
	}
}

func (r *RuntimeSampler) Sample() ProcessSample {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	rss, err := r.residentSetSize()
	if err != nil {
		rss = mem.Sys
	}

	return ProcessSample{
		RSS:       rss,
		HeapUsed:  mem.HeapAlloc,
		HeapTotal: mem.HeapSys,
		CPU:       cpuUsage(),
	}
}

func (r *RuntimeSampler) residentSetSize() (uint64, error) {
	data, err := os.ReadFile(r.statmPath)
	if err != nil {
		return 0, err
	}
	return parseStatm(string(data), r.pageSize)
}

// parseStatm extracts the resident page count from a statm line and converts it to bytes.
func parseStatm(data string, pageSize int) (uint64, error) {
	fields := strings.Fields(data)
	if len(fields) < minStatmFields {
		return 0, errShortStatm
	}

	pages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, err
	}

	return pages * uint64(pageSize), nil // #nosec G115 - page size is always positive
}

func cpuUsage() models.CPUUsage {
	var usage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &usage); err != nil {
		return models.CPUUsage{}
	}
	return models.CPUUsage{
		User:   usage.Utime.Nano() / nanosPerMicro,
		System: usage.Stime.Nano() / nanosPerMicro,
	}
}
