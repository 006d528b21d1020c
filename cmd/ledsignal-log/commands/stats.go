package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ledsignal/ledsignal-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Commands         map[string]int
	CommandsBySource map[log.CommandSource]int
	Sessions         map[string]*SessionStats
	Analyses         int
	FailedAnalyses   int
	Errors           map[string]int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for one connected period.
type SessionStats struct {
	Port      string
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Commands  int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := collectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Commands:         make(map[string]int),
		CommandsBySource: make(map[log.CommandSource]int),
		Sessions:         make(map[string]*SessionStats),
		Errors:           make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.SessionID != "" {
			s, ok := stats.Sessions[event.SessionID]
			if !ok {
				s = &SessionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
				stats.Sessions[event.SessionID] = s
			}
			s.Events++
			if event.Timestamp.After(s.LastSeen) {
				s.LastSeen = event.Timestamp
			}
			if s.Port == "" {
				s.Port = event.Port
			}
			if event.Command != nil {
				s.Commands++
			}
		}

		switch {
		case event.Command != nil:
			stats.Commands[event.Command.Command]++
			stats.CommandsBySource[event.Command.Source]++
		case event.Analysis != nil:
			stats.Analyses++
			if event.Analysis.Failed {
				stats.FailedAnalyses++
			}
		case event.Error != nil:
			stats.Errors[event.Error.Op]++
		}
	}

	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== ledsignal Event Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryState, log.CategoryCommand, log.CategoryAnalysis, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Commands) > 0 {
		fmt.Fprintln(w, "Commands:")
		for _, name := range []string{"OFF", "GREEN", "YELLOW", "RED"} {
			if count := stats.Commands[name]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", name+":", count)
			}
		}
		for _, src := range []log.CommandSource{log.SourceManual, log.SourceReconcile, log.SourceFailure} {
			if count := stats.CommandsBySource[src]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", "via "+src.String()+":", count)
			}
		}
		fmt.Fprintln(w)
	}

	if stats.Analyses > 0 {
		fmt.Fprintf(w, "Analyses: %d (%d failed)\n", stats.Analyses, stats.FailedAnalyses)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessionInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessionInfo, 0, len(stats.Sessions))
		for id, s := range stats.Sessions {
			sessions = append(sessions, sessionInfo{id, s})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %s: %d events, %d commands, duration %s\n",
				shortenSessionID(s.id), s.stats.Port, s.stats.Events, s.stats.Commands, duration)
		}
	}

	if len(stats.Errors) > 0 {
		ops := make([]string, 0, len(stats.Errors))
		total := 0
		for op, n := range stats.Errors {
			ops = append(ops, op)
			total += n
		}
		sort.Strings(ops)

		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", total)
		for _, op := range ops {
			fmt.Fprintf(w, "  %-12s %d\n", op+":", stats.Errors[op])
		}
	}
}
