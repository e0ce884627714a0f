package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/corey/survey/internal/app"
	"github.com/corey/survey/internal/domain/status"
	"github.com/corey/survey/internal/domain/survey"
)

// ANSI color codes for terminal output.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorGray    = "\033[90m"
)

const barWidth = 30

// stderrNotifier shows gateway notices to the respondent.
type stderrNotifier struct{}

func (stderrNotifier) Notify(msg string) {
	fmt.Fprintf(os.Stderr, "%s⚠ %s%s\n", colorYellow, msg, colorReset)
}

// progressBar renders pct (0-100) as a fixed-width bar.
//
//	[█████████░░░░░░░░░░░░░░░░░░░░░]  30.0%
func progressBar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * barWidth)
	return fmt.Sprintf("[%s%s%s%s] %5.1f%%",
		colorGreen, strings.Repeat("█", filled),
		colorGray+strings.Repeat("░", barWidth-filled), colorReset, pct)
}

// formatItem renders the image being rated with its five questions.
//
//	── Image 3 / 10 ── #127
//	  https://.../127.jpg
//	  aesthetics  심미성 (아름다움)   4
//	  stability   안정성 (편안함)     ·
func formatItem(it app.Item, loc survey.AssetLocator) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s── Image %d / %d ──%s %s#%s%s\n",
		colorBold, it.Position, it.Total, colorReset, colorCyan, it.ImageID, colorReset)
	fmt.Fprintf(&b, "  %s%s%s\n", colorGray, loc.URL(it.ImageID), colorReset)
	for _, f := range survey.Fields {
		val := colorGray + "·" + colorReset
		if v, ok := it.Response.Rating(f); ok {
			val = fmt.Sprintf("%s%d%s", colorGreen, v, colorReset)
		}
		fmt.Fprintf(&b, "  %-11s %s  %s\n", f, padLabel(f.Label(), 18), val)
	}

	next := "next"
	if it.Position == it.Total {
		next = "next (submit)"
	}
	if it.First {
		fmt.Fprintf(&b, "  %s%s%s\n", colorGray, next, colorReset)
	} else {
		fmt.Fprintf(&b, "  %sprev │ %s%s\n", colorGray, next, colorReset)
	}
	return b.String()
}

// padLabel pads by rune count; labels are Korean.
func padLabel(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// formatStatus renders the status snapshot.
func formatStatus(sd *status.StatusData) string {
	var b strings.Builder
	switch sd.Phase {
	case survey.PhaseStart:
		fmt.Fprintf(&b, "%s⚡ survey%s │ not started\n", colorBold, colorReset)
		return b.String()
	case survey.PhaseFinish:
		fmt.Fprintf(&b, "%s⚡ survey%s │ %s✓ finished%s │ group %d\n",
			colorBold, colorReset, colorGreen, colorReset, sd.Group)
		return b.String()
	}

	fmt.Fprintf(&b, "%s⚡ survey%s │ group %s%d%s │ image %d / %d │ %d complete",
		colorBold, colorReset, colorMagenta, sd.Group, colorReset, sd.Position, sd.Total, sd.Completed)
	if sd.Submitting {
		fmt.Fprintf(&b, " │ %ssubmitting…%s", colorYellow, colorReset)
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  %s\n", progressBar(sd.Progress))
	fmt.Fprintf(&b, "  current #%s: %d / %d rated\n", sd.ImageID, sd.CurrentAnswered, len(survey.Fields))
	return b.String()
}

// formatResolution reports how the group was assigned.
func formatResolution(r app.Resolution) string {
	if r.Source == app.SourceRemote {
		return fmt.Sprintf("%s✓ assigned group %d%s", colorGreen, r.Group, colorReset)
	}
	return fmt.Sprintf("%s✓ assigned group %d%s %s(random: %s)%s",
		colorGreen, r.Group, colorReset, colorGray, r.Reason, colorReset)
}

// formatChoices lists the accepted inputs for a demographic question.
func formatChoices(f survey.DemographicField) string {
	choices, err := survey.Choices(f)
	if err != nil {
		return ""
	}
	parts := make([]string, 0, len(choices))
	for _, c := range choices {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.Label, c.Code))
	}
	return strings.Join(parts, ", ")
}
