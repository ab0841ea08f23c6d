package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nickyhof/matview/db"
)

func (cli *CLI) importFile(ctx context.Context, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return cli.executeScript(ctx, string(data))
}

// executeScript runs every statement in content and reports each one. It
// fails if any statement failed.
func (cli *CLI) executeScript(ctx context.Context, content string) error {
	successCount := 0
	errorCount := 0

	for i, stmt := range splitStatements(content) {
		result, err := cli.engine.Execute(ctx, stmt)
		if err != nil {
			fmt.Fprintf(cli.out, "%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(stmt, 50), ResetColor)
			fmt.Fprintf(cli.out, "      Error: %v\n", err)
			errorCount++
			continue
		}
		successCount++

		switch r := result.(type) {
		case db.CommandResult:
			fmt.Fprintf(cli.out, "%s[%d] ✓ %s%s\n", SuccessColor, i+1, truncate(stmt, 50), ResetColor)
			if len(r.Commands) > 0 {
				r.Render(cli.out)
			}
		case db.QueryResult:
			fmt.Fprintf(cli.out, "%s[%d] ✓ %s (%d rows)%s\n", SuccessColor, i+1, truncate(stmt, 50), r.RecordsRead, ResetColor)
			r.Render(cli.out)
		}
	}

	fmt.Fprintf(cli.out, "\n%s✓ %d succeeded, %d failed%s\n", SuccessColor, successCount, errorCount, ResetColor)
	if errorCount > 0 {
		return fmt.Errorf("%d statement(s) failed", errorCount)
	}
	return nil
}

// splitStatements splits SQL content on semicolons outside string literals
// and drops -- comments.
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if ch == '\'' {
			inString = !inString
		}

		if !inString && ch == '-' && i+1 < len(content) && content[i+1] == '-' {
			for i < len(content) && content[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
			continue
		}

		if !inString && ch == ';' {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}

// truncate flattens s to one line of at most max bytes.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
