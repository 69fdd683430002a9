// Package procstatus reads best-effort memory usage for a running pid, used
// to enrich the `status` verb's per-replica line (SPEC_FULL.md §4.7).
//
// Grounded on the teacher's proc.go (ReadProcInfo/readStatus), trimmed to
// just the VmRSS figure: status only ever asked for memory, and the FD-list
// and memory-map machinery the teacher built for its Introspect() demo has no
// SPEC_FULL.md component to serve it (see DESIGN.md "Dropped teacher code").
package procstatus

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RSSKilobytes reads /proc/[pid]/status and returns VmRSS in kilobytes. ok is
// false if the process is gone or /proc is unreadable (e.g. on a non-Linux
// platform, or a pid that exited between being reported as running and being
// inspected) — callers should render status without a memory figure rather
// than treat this as fatal.
func RSSKilobytes(pid int) (kb int64, ok bool) {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "status"))
	if err != nil {
		return 0, false
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, val, found := strings.Cut(line, ":")
		if !found || strings.TrimSpace(key) != "VmRSS" {
			continue
		}
		fields := strings.Fields(val)
		if len(fields) == 0 {
			return 0, false
		}
		n, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Format renders an RSS reading the way the `status` verb displays it, or an
// empty string if no reading is available.
func Format(pid int) string {
	kb, ok := RSSKilobytes(pid)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d KB", kb)
}
