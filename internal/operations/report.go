package operations

import (
	"fmt"
	"strings"
	"time"
)

// RenderStatusReport produces the plain-text daily status report: which
// inputs were collected, which failed, row counts and the source tier
// distribution.
func RenderStatusReport(resp *OperationResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Closing yields status report for %s\n", resp.RunDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Run: %s\n", resp.ID)
	fmt.Fprintf(&b, "Status: %s\n", resp.Status)
	fmt.Fprintf(&b, "Duration: %s\n\n", resp.Duration.Round(time.Millisecond))

	section := func(title string, states []*StepState, detail func(*StepState) string) {
		fmt.Fprintf(&b, "%s (%d):\n", title, len(states))
		if len(states) == 0 {
			b.WriteString("  none\n")
		}
		for _, s := range states {
			fmt.Fprintf(&b, "  - %s%s\n", s.Name, detail(s))
		}
		b.WriteString("\n")
	}

	section("Successful", resp.StepsWithStatus(StepStatusCompleted), func(s *StepState) string {
		s.mu.RLock()
		defer s.mu.RUnlock()
		var parts []string
		if rows, ok := s.Metadata["rows"]; ok {
			parts = append(parts, fmt.Sprintf("%v rows", rows))
		}
		if s.Attempts > 1 {
			parts = append(parts, fmt.Sprintf("%d attempts", s.Attempts))
		}
		if len(parts) == 0 {
			return ""
		}
		return ": " + strings.Join(parts, ", ")
	})
	section("Failed", resp.StepsWithStatus(StepStatusFailed), func(s *StepState) string {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fmt.Sprintf(": %s (after %d attempts)", s.Message, s.Attempts)
	})
	if skipped := resp.StepsWithStatus(StepStatusSkipped); len(skipped) > 0 {
		section("Skipped", skipped, func(s *StepState) string {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return ": " + s.Message
		})
	}

	if sum := resp.Summary; sum != nil {
		fmt.Fprintf(&b, "Securities: %d (%d linked, %d nominal)\n", sum.Total, sum.Linked, sum.Nominal)
		fmt.Fprintf(&b, "Resolved: %d, unresolved: %d\n", sum.Resolved, sum.Unresolved)
		b.WriteString("Sources:\n")
		for _, src := range sum.Sources() {
			fmt.Fprintf(&b, "  %s: %d\n", src, sum.BySource[src])
		}
		if len(sum.UnresolvedIDs) > 0 {
			fmt.Fprintf(&b, "Missing closing yields: %s\n", strings.Join(sum.UnresolvedIDs, ", "))
		}
		if sum.FieldErrors > 0 {
			fmt.Fprintf(&b, "Unparseable cells: %d\n", sum.FieldErrors)
		}
	}
	if resp.OutputPath != "" {
		fmt.Fprintf(&b, "Output: %s\n", resp.OutputPath)
	}
	return b.String()
}
