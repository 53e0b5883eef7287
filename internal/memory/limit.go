package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"media-library/internal/logging"
)

// DefaultRatio is the share of the container limit given to the Go heap.
const DefaultRatio = 0.85

var cgroupLimitFiles = []string{
	"/sys/fs/cgroup/memory.max",
	"/sys/fs/cgroup/memory/memory.limit_in_bytes",
}

// unlimited is the smallest value treated as "no limit". cgroup v1 reports
// an unlimited group as a page-aligned MaxInt64.
const unlimited = 1 << 60

// Limit describes the configured memory limit.
type Limit struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT", "cgroup" or "none".
	Source    string
	Container int64
	Go        int64
	Ratio     float64
}

// Configured reports whether a Go memory limit is in effect.
func (l Limit) Configured() bool { return l.Go > 0 }

// ApplyLimit sets the Go memory limit from the environment or the cgroup.
func ApplyLimit() Limit {
	return applyLimit(os.Getenv, cgroupLimitFiles)
}

func applyLimit(getenv func(string) string, cgroupFiles []string) Limit {
	if v := getenv("GOMEMLIMIT"); v != "" {
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			return Limit{Source: "GOMEMLIMIT", Go: limit}
		}
		return Limit{Source: "none"}
	}

	var container int64
	var source string
	if v := getenv("MEMORY_LIMIT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			logging.Warn("Invalid MEMORY_LIMIT %q, ignoring", v)
		} else {
			container, source = n, "MEMORY_LIMIT"
		}
	}
	if container == 0 {
		for _, path := range cgroupFiles {
			if n, ok := readCgroupLimit(path); ok {
				container, source = n, "cgroup"
				break
			}
		}
	}
	if container == 0 {
		logging.Debug("No container memory limit found, GOMEMLIMIT not configured")
		return Limit{Source: "none"}
	}

	ratio := parseRatio(getenv("MEMORY_RATIO"))
	goLimit := int64(float64(container) * ratio)
	debug.SetMemoryLimit(goLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s from %s)",
		humanize.IBytes(uint64(goLimit)), ratio*100, humanize.IBytes(uint64(container)), source)

	return Limit{Source: source, Container: container, Go: goLimit, Ratio: ratio}
}

// readCgroupLimit reads a cgroup memory limit file. "max" and the v1
// unlimited sentinel report no limit.
func readCgroupLimit(path string) (int64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	s := strings.TrimSpace(string(data))
	if s == "max" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 || n >= unlimited {
		return 0, false
	}
	return n, true
}

func parseRatio(s string) float64 {
	if s == "" {
		return DefaultRatio
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || r <= 0 || r > 1 {
		logging.Warn("Invalid MEMORY_RATIO %q (want 0-1), using %.2f", s, DefaultRatio)
		return DefaultRatio
	}
	return r
}
