// Package format holds the small display helpers of the console pages.
package format

import (
	"fmt"
	"math"
	"time"
)

var siSuffixes = []string{"K", "M", "G", "T", "P", "E", "Z"}

// BigNum renders n with an SI suffix. Values below 10000 are printed as
// is, larger ones are scaled so at most four integer digits remain.
func BigNum(n float64) string {
	if n < 10e3 {
		if n == math.Trunc(n) {
			return fmt.Sprintf("%.0f ", n)
		}
		return fmt.Sprintf("%.1f ", n)
	}
	scale := 1e3
	for _, suffix := range siSuffixes {
		if n < scale*10e3 {
			return fmt.Sprintf("%.1f %s", n/scale, suffix)
		}
		scale *= 1e3
	}
	return fmt.Sprintf("%.2f Y", n/scale)
}

// Period renders an uptime in the largest unit that keeps it readable.
func Period(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 120 {
		return fmt.Sprintf("%d sec", secs)
	}
	mins := float64(secs) / 60
	if mins < 120 {
		return fmt.Sprintf("%.1f min", mins)
	}
	hrs := mins / 60
	if hrs < 48 {
		return fmt.Sprintf("%.1f hours", hrs)
	}
	return fmt.Sprintf("%.1f days", hrs/24)
}

// Time renders a block or peer timestamp; timeOnly drops the date.
func Time(t time.Time, timeOnly bool) string {
	if timeOnly {
		return t.Format("15:04:05")
	}
	return t.Format("2006/01/02 15:04:05")
}
