package db

import (
	"fmt"
	"io"
	"os"
)

type ResultType int

const (
	QueryResultType ResultType = iota
	CommandResultType
)

type Result interface {
	Type() ResultType
	Display()
	Render(w io.Writer)
}

type QueryResult struct {
	Columns          []string
	Data             [][]string
	RecordsRead      int
	ExecutionTimeSec float64
}

// CommandResult is returned by data definition statements. Commands holds
// what the statement produced for the caller to run, in order.
type CommandResult struct {
	Statement        string
	Target           string
	QueryID          string
	Commands         []string
	ExecutionTimeSec float64
}

func (result QueryResult) Type() ResultType {
	return QueryResultType
}

func (result CommandResult) Type() ResultType {
	return CommandResultType
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	if secs < 0.001 {
		return "<1ms"
	} else if secs < 1 {
		ms := secs * 1000
		if ms < 10 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	} else if secs < 60 {
		if secs < 10 {
			return fmt.Sprintf("%.1fs", secs)
		}
		return fmt.Sprintf("%ds", int(secs))
	} else {
		mins := int(secs / 60)
		remainSecs := int(secs) % 60
		if remainSecs == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm%ds", mins, remainSecs)
	}
}

func (result QueryResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result CommandResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result QueryResult) Display() {
	result.Render(os.Stdout)
}

func (result QueryResult) Render(w io.Writer) {
	if len(result.Data) > 0 {
		data := NewTable(w)
		data.Header(result.Columns)
		data.Bulk(result.Data)
		data.Render()
	}

	fmt.Fprintf(w, "%d rows (%s)\n", result.RecordsRead, result.ExecutionTime())
}

func (result CommandResult) Display() {
	result.Render(os.Stdout)
}

func (result CommandResult) Render(w io.Writer) {
	if len(result.Commands) > 0 {
		commands := NewTable(w)
		commands.Header([]string{"#", "Command"})
		for i, command := range result.Commands {
			commands.Row([]string{fmt.Sprintf("%d", i+1), command})
		}
		commands.Render()
	}

	label := result.Statement
	if result.Target != "" {
		label += " " + result.Target
	}
	if len(result.Commands) == 0 {
		fmt.Fprintf(w, "%s: OK (%s)\n", label, result.ExecutionTime())
		return
	}
	fmt.Fprintf(w, "%s: %d command(s) (%s)\n", label, len(result.Commands), result.ExecutionTime())
}
