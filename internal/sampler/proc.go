package sampler

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// readCPUTotal returns the machine-wide jiffy count (busy plus idle, all
// CPUs) from the aggregate cpu line of /proc/stat. ok is false when the
// file cannot be parsed.
func readCPUTotal(procRoot string) (uint64, bool) {
	data, err := os.ReadFile(filepath.Join(procRoot, "stat"))
	if err != nil {
		return 0, false
	}

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "cpu" {
			continue
		}

		var total uint64
		for _, field := range fields[1:] {
			value, err := strconv.ParseUint(field, 10, 64)
			if err != nil {
				return 0, false
			}
			total += value
		}
		return total, true
	}

	return 0, false
}

// matchedPIDs returns the PIDs whose comm or cmdline contains token
// (case-insensitive).
func matchedPIDs(procRoot, token string) []int {
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return nil
	}

	token = strings.ToLower(token)

	var pids []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		if processMatches(procRoot, entry.Name(), token) {
			pids = append(pids, pid)
		}
	}

	return pids
}

func processMatches(procRoot, pidDir, token string) bool {
	comm, err := os.ReadFile(filepath.Join(procRoot, pidDir, "comm"))
	if err == nil && strings.Contains(strings.ToLower(string(comm)), token) {
		return true
	}

	// cmdline is NUL-separated argv.
	cmdline, err := os.ReadFile(filepath.Join(procRoot, pidDir, "cmdline"))
	if err == nil && strings.Contains(strings.ToLower(string(cmdline)), token) {
		return true
	}

	return false
}

// readProcJiffies returns utime+stime for a PID from /proc/<pid>/stat.
// The comm field may contain spaces, so parsing starts after the closing
// parenthesis.
func readProcJiffies(procRoot string, pid int) (uint64, bool) {
	data, err := os.ReadFile(filepath.Join(procRoot, strconv.Itoa(pid), "stat"))
	if err != nil {
		return 0, false
	}

	content := string(data)
	end := strings.LastIndexByte(content, ')')
	if end < 0 || end+2 > len(content) {
		return 0, false
	}

	// Fields after comm: state is field 3, utime field 14, stime field 15.
	fields := strings.Fields(content[end+2:])
	if len(fields) < 13 {
		return 0, false
	}

	utime, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return 0, false
	}
	stime, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return 0, false
	}

	return utime + stime, true
}

// readProcRSS returns a PID's resident set size in bytes from
// /proc/<pid>/statm.
func readProcRSS(procRoot string, pid int) (uint64, bool) {
	data, err := os.ReadFile(filepath.Join(procRoot, strconv.Itoa(pid), "statm"))
	if err != nil {
		return 0, false
	}

	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, false
	}

	pages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, false
	}

	return pages * uint64(os.Getpagesize()), true
}
