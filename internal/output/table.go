// Package output provides terminal output utilities for waybridge.
//
// This package includes:
//   - Table rendering for installed apps and resource history
//   - A spinner for long-running daemon calls
//   - Human-readable formatting for sizes, times, and usage snapshots
//
// All rendering uses ASCII characters and ANSI color codes. Color is
// suppressed when stdout is not a TTY or NO_COLOR is set.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/waybridge/internal/coordinator"
	"github.com/blackwell-systems/waybridge/internal/sampler"
	"github.com/blackwell-systems/waybridge/internal/stats"
	"github.com/blackwell-systems/waybridge/internal/store"
	"github.com/blackwell-systems/waybridge/internal/waydroid"
)

// ANSI color codes for state display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderAppTable renders a table of installed apps with their visibility.
func RenderAppTable(apps []coordinator.App) string {
	if len(apps) == 0 {
		return "No apps installed.\n"
	}

	// Sort by package name for consistent output
	sorted := make([]coordinator.App, len(apps))
	copy(sorted, apps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PackageName < sorted[j].PackageName
	})

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-36s %-24s %-9s %s\n",
		"Package", "Name", "Display", "Entry"))
	sb.WriteString(strings.Repeat("─", 86))
	sb.WriteString("\n")

	for _, app := range sorted {
		display := colorize(colorGreen, "visible")
		if !app.Visible {
			display = colorize(colorGray, "hidden ")
		}
		sb.WriteString(fmt.Sprintf("%-36s %-24s %-9s %s\n",
			truncate(app.PackageName, 36),
			truncate(app.Name, 24),
			display,
			app.DesktopFile))
	}

	return sb.String()
}

// RenderSampleTable renders recent resource samples, newest first.
func RenderSampleTable(samples []*store.ResourceSample) string {
	if len(samples) == 0 {
		return "No resource samples recorded.\n"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-16s %8s %12s %12s\n",
		"When", "CPU", "RAM", "Storage"))
	sb.WriteString(strings.Repeat("─", 52))
	sb.WriteString("\n")

	for _, s := range samples {
		sb.WriteString(fmt.Sprintf("%-16s %7.1f%% %9.1f MB %9.2f GB\n",
			FormatTimeAgo(time.Unix(s.Timestamp, 0)),
			s.CPUUsage,
			s.RAMUsage,
			s.StorageUsage))
	}

	return sb.String()
}

// FormatUsage renders one resource snapshot as a single line.
func FormatUsage(u sampler.Usage) string {
	return fmt.Sprintf("CPU %.1f%% · RAM %.0f MB · Storage %.2f GB",
		u.CPUPercent, u.RAMUsedMB, u.StorageUsedGB)
}

// FormatSampleSummary renders the aggregate line printed above the sample
// table.
func FormatSampleSummary(s stats.Summary) string {
	if s.Samples == 0 {
		return "No resource samples recorded."
	}
	return fmt.Sprintf("%d samples over %s · CPU avg %.1f%% peak %.1f%% · RAM avg %.0f MB peak %.0f MB",
		s.Samples, shortDuration(s.Span), s.AvgCPU, s.PeakCPU, s.AvgRAM, s.PeakRAM)
}

// shortDuration drops sub-second noise from sample spans.
func shortDuration(d time.Duration) string {
	return d.Truncate(time.Second).String()
}

// FormatStatus renders a container state with color.
func FormatStatus(status waydroid.Status) string {
	switch status {
	case waydroid.StatusRunning:
		return colorize(colorGreen, "running")
	case waydroid.StatusStopped:
		return colorize(colorGray, "stopped")
	default:
		return colorize(colorYellow, "unknown")
	}
}

// FormatTimeAgo converts a timestamp to relative time (e.g. "2 days ago").
func FormatTimeAgo(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return "never"
	}
	return humanize.Time(t)
}

// FormatSize converts bytes to human-readable size.
func FormatSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
