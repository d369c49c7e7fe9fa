package output

import (
	"fmt"
	"strings"
)

// CoverageBar renders the share of part in total as a bar, e.g.
// "████████░░ 80% (40/50)". Used for how many groups produced a metric.
func CoverageBar(part, total, width int) string {
	if width <= 0 {
		width = 20
	}
	if total <= 0 {
		return StyleMuted.Render(strings.Repeat("░", width) + " n/a")
	}
	frac := float64(part) / float64(total)
	filled := min(max(int(frac*float64(width)), 0), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style func(...string) string
	switch {
	case frac >= 0.9:
		style = StyleSuccess.Render
	case frac >= 0.5:
		style = StyleWarning.Render
	default:
		style = StyleError.Render
	}
	return fmt.Sprintf("%s %s", style(bar), StyleMuted.Render(fmt.Sprintf("%.0f%% (%d/%d)", frac*100, part, total)))
}

// TrendArrow returns a styled indicator for the change of a count between
// two runs. Growth is neutral, so only the direction is colored muted.
func TrendArrow(delta float64) string {
	switch {
	case delta > 0:
		return StyleMuted.Render(fmt.Sprintf("▲ +%.0f", delta))
	case delta < 0:
		return StyleMuted.Render(fmt.Sprintf("▼ %.0f", delta))
	}
	return StyleMuted.Render("─")
}

// Section returns a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// KeyValue renders one " label  value" summary line.
func KeyValue(label, value string) string {
	return fmt.Sprintf(" %s  %s", StyleLabel.Render(label), StyleBold.Render(value))
}
