package infosvc

import (
	"math"
	"strconv"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	bytesPerMegabyte = 1024 * 1024
)

// FormatUptime renders elapsed seconds as "{h}h {m}m {s}s", dropping leading zero units.
func FormatUptime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / secondsPerHour
	minutes := (seconds % secondsPerHour) / secondsPerMinute
	secs := seconds % secondsPerMinute

	switch {
	case hours > 0:
		return strconv.FormatInt(hours, 10) + "h " + strconv.FormatInt(minutes, 10) + "m " + strconv.FormatInt(secs, 10) + "s"
	case minutes > 0:
		return strconv.FormatInt(minutes, 10) + "m " + strconv.FormatInt(secs, 10) + "s"
	default:
		return strconv.FormatInt(secs, 10) + "s"
	}
}

// FormatMegabytes renders a byte count as whole megabytes, e.g. "42MB".
func FormatMegabytes(bytes uint64) string {
	return strconv.FormatInt(int64(math.Round(float64(bytes)/bytesPerMegabyte)), 10) + "MB"
}
