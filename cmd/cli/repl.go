package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func (cli *CLI) printBanner() {
	fmt.Fprintln(cli.out)
	fmt.Fprintf(cli.out, "%s%smatview v%s%s\n", BoldColor, PromptColor, Version, ResetColor)
	fmt.Fprintln(cli.out, "Type .help for commands, .quit to exit")
	fmt.Fprintln(cli.out)
}

// repl reads statements terminated by a semicolon until EOF or .quit.
func (cli *CLI) repl(ctx context.Context, in io.Reader) error {
	cli.loadHistory()
	defer cli.saveHistory()
	cli.printBanner()

	reader := bufio.NewReader(in)
	var multiLineBuffer strings.Builder

	for {
		fmt.Fprint(cli.out, cli.getPrompt(multiLineBuffer.Len() > 0))

		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			fmt.Fprintf(cli.out, "\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			return nil
		}

		input = strings.TrimRight(input, "\r\n")
		if strings.TrimSpace(input) == "" {
			continue
		}

		if multiLineBuffer.Len() == 0 && strings.HasPrefix(input, ".") {
			if quit := cli.handleCommand(ctx, input); quit {
				fmt.Fprintf(cli.out, "%sGoodbye!%s\n", SuccessColor, ResetColor)
				return nil
			}
			continue
		}

		multiLineBuffer.WriteString(input)
		trimmed := strings.TrimSpace(multiLineBuffer.String())
		if !strings.HasSuffix(trimmed, ";") {
			multiLineBuffer.WriteString("\n")
			continue
		}
		multiLineBuffer.Reset()

		statement := strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
		if statement == "" {
			continue
		}
		cli.addToHistory(statement + ";")
		cli.executeAndDisplay(ctx, statement)
	}
}

func (cli *CLI) executeAndDisplay(ctx context.Context, statement string) {
	result, err := cli.engine.Execute(ctx, statement)
	if err != nil {
		fmt.Fprintf(cli.out, "%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		return
	}
	result.Render(cli.out)
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}

	s := cli.engine.Session()
	schemaPart := ""
	if s.Catalog != "" && s.Schema != "" {
		schemaPart = fmt.Sprintf(" (%s.%s)", s.Catalog, s.Schema)
	}
	return fmt.Sprintf("%smatview%s>%s ", PromptColor, schemaPart, ResetColor)
}

// handleCommand runs a dot command and reports whether to quit.
func (cli *CLI) handleCommand(ctx context.Context, input string) bool {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return false
	}

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		return true

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".views":
		statement := "SHOW MATERIALIZED VIEWS"
		if len(parts) > 1 {
			statement += " IN " + parts[1]
		}
		cli.executeAndDisplay(ctx, statement)

	case ".use":
		if len(parts) > 1 {
			cli.executeAndDisplay(ctx, "USE "+parts[1])
		} else {
			fmt.Fprintf(cli.out, "%s✗ Usage: .use <catalog>.<schema>%s\n", ErrorColor, ResetColor)
		}

	case ".clear", ".cls":
		fmt.Fprint(cli.out, "\033[H\033[2J")

	case ".history":
		cli.printHistory()

	case ".version":
		fmt.Fprintf(cli.out, "matview version %s\n", Version)

	case ".import":
		if len(parts) > 1 {
			if err := cli.importFile(ctx, parts[1]); err != nil {
				fmt.Fprintf(cli.out, "%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			}
		} else {
			fmt.Fprintf(cli.out, "%s✗ Usage: .import <file.sql>%s\n", ErrorColor, ResetColor)
		}

	default:
		fmt.Fprintf(cli.out, "%s✗ Unknown command: %s (type .help for commands)%s\n", ErrorColor, parts[0], ResetColor)
	}
	return false
}

func (cli *CLI) printHelp() {
	fmt.Fprintln(cli.out)
	fmt.Fprintf(cli.out, "%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(cli.out, "  .help, .h              Show this help message")
	fmt.Fprintln(cli.out, "  .quit, .exit           Exit the CLI")
	fmt.Fprintln(cli.out, "  .views [cat.schema]    List materialized views and their freshness")
	fmt.Fprintln(cli.out, "  .use <cat>.<schema>    Set the default catalog and schema")
	fmt.Fprintln(cli.out, "  .import <file>         Execute statements from a file")
	fmt.Fprintln(cli.out, "  .history               Show command history")
	fmt.Fprintln(cli.out, "  .clear                 Clear the screen")
	fmt.Fprintln(cli.out, "  .version               Show version info")
	fmt.Fprintln(cli.out)
	fmt.Fprintf(cli.out, "%s%sStatements:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Fprintln(cli.out, "  CREATE MATERIALIZED VIEW [IF NOT EXISTS] <name> [COMMENT '...'] [WITH (k = v, ...)] AS <query>;")
	fmt.Fprintln(cli.out, "  DROP MATERIALIZED VIEW [IF EXISTS] <name>;")
	fmt.Fprintln(cli.out, "  REFRESH MATERIALIZED VIEW <name>;")
	fmt.Fprintln(cli.out, "  SHOW MATERIALIZED VIEWS [IN <catalog>.<schema>];")
	fmt.Fprintln(cli.out, "  EXPLAIN <statement>;")
	fmt.Fprintln(cli.out, "  USE <catalog>.<schema>;")
	fmt.Fprintln(cli.out)
}

func (cli *CLI) addToHistory(cmd string) {
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)
	if len(cli.history) > maxHistory {
		cli.history = cli.history[len(cli.history)-maxHistory:]
	}
}

const maxHistory = 1000

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Fprintln(cli.out, "No command history")
		return
	}

	start := max(len(cli.history)-20, 0)
	for i := start; i < len(cli.history); i++ {
		fmt.Fprintf(cli.out, "  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".matview_history")
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Create(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	start := max(len(cli.history)-maxHistory, 0)
	for _, entry := range cli.history[start:] {
		_, _ = file.WriteString(entry + "\n")
	}
}
