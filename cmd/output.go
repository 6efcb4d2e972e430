package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/okian/drivemind/internal/domain/model"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// gradeColor paints a grade by band.
func gradeColor(grade string) string {
	switch grade {
	case "A+", "A":
		return green(grade)
	case "B", "C":
		return yellow(grade)
	default:
		return red(grade)
	}
}

// categoryColor paints a decision category.
func categoryColor(c model.Category) string {
	switch c {
	case model.CategorySafe:
		return green(string(c))
	case model.CategoryRisky:
		return red(string(c))
	default:
		return yellow(string(c))
	}
}

// signed renders a trait delta with its sign.
func signed(v int) string {
	switch {
	case v > 0:
		return green(fmt.Sprintf("+%d", v))
	case v < 0:
		return red(fmt.Sprintf("%d", v))
	default:
		return gray("0")
	}
}

func printResult(w io.Writer, name string, r model.SimulationResult) {
	fmt.Fprintf(w, "\n%s %s\n", bold("Result:"), name)
	fmt.Fprintf(w, "  score %s  grade %s  mean reaction %dms\n",
		bold(fmt.Sprintf("%d", r.Score)), gradeColor(r.Grade), r.ReactionTime)
	for _, d := range r.Decisions {
		fmt.Fprintf(w, "  t=%ds %-16s %-7s %dms\n", d.Time, d.Choice, categoryColor(d.Category), d.ReactionTime)
	}

	changes := make([]string, 0, len(model.Traits))
	for _, t := range model.Traits {
		changes = append(changes, fmt.Sprintf("%s %s", t, signed(r.MetricsChange.Get(t))))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(changes, "  "))

	for _, insight := range r.Insights {
		fmt.Fprintf(w, "  %s %s\n", cyan("*"), insight)
	}
}

func printProfile(w io.Writer, p model.UserProfile, available int) {
	fmt.Fprintf(w, "%s %s\n", bold("Driver:"), p.Name)
	fmt.Fprintf(w, "  DMS %s\n", bold(fmt.Sprintf("%d", p.DMS)))
	for _, t := range model.Traits {
		fmt.Fprintf(w, "  %-15s %3d\n", t, p.Trait(t))
	}
	fmt.Fprintf(w, "  completed %d/%d scenarios, %d simulations\n",
		len(p.ScenariosCompleted), available, p.TotalSimulations)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
