package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/db"
	"github.com/nickyhof/matview/op"
	"github.com/nickyhof/matview/remote"
)

func newExecCmd(cli *CLI) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "exec [statement]",
		Short: "Execute statements from the arguments or a file",
		Example: `  matview exec --catalog hive --schema sales "REFRESH MATERIALIZED VIEW daily"
  matview exec --file setup.sql`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			switch {
			case file != "" && len(args) > 0:
				return errors.New("pass a statement or --file, not both")
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				content = string(data)
			case len(args) == 1:
				content = args[0]
			default:
				return errors.New("no statement given")
			}
			return cli.executeScript(cmd.Context(), content)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "SQL file to execute")
	return cmd
}

func newReplCmd(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.repl(cmd.Context(), cmd.InOrStdin())
		},
	}
}

func newExportCmd(cli *CLI) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "export <view>",
		Short: "Refresh a materialized view and write its commands as a SQL script",
		Long: `Plans a refresh of the view and writes the commands, one statement per line,
to a local path, file:// or s3:// location. The view is recorded as refreshed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.exportRefresh(cmd.Context(), args[0], to)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Destination location (stdout if empty)")
	return cmd
}

func newDumpCmd(cli *CLI) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "dump [catalog[.schema]]",
		Short: "Write materialized view definitions as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var catalog, schema string
			if len(args) == 1 {
				catalog, schema, _ = strings.Cut(args[0], ".")
			}
			return cli.dumpDefinitions(cmd.Context(), catalog, schema, to)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Destination location (stdout if empty)")
	return cmd
}

func newLogCmd(cli *CLI) *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List catalog commits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			transactions, err := cli.instance.Persistence.TransactionsSince(time.Now().Add(-since))
			if err != nil {
				return err
			}

			table := db.NewTable(cli.out)
			table.Header([]string{"Transaction", "When", "Author"})
			for _, txn := range transactions {
				table.Row([]string{txn.Id, txn.When.Format(time.RFC3339), txn.Author})
			}
			table.Render()
			fmt.Fprintf(cli.out, "%d commit(s)\n", len(transactions))
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "How far back to list")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "matview v%s\n", Version)
		},
	}
}

// exportRefresh runs REFRESH for view and writes the resulting commands.
func (cli *CLI) exportRefresh(ctx context.Context, view, location string) error {
	result, err := cli.engine.Execute(ctx, "REFRESH MATERIALIZED VIEW "+view)
	if err != nil {
		return err
	}
	commands := result.(db.CommandResult).Commands

	if location == "" {
		return writeScript(bufio.NewWriter(cli.out), commands)
	}

	w, err := remote.OpenWriter(ctx, location, &cli.s3)
	if err != nil {
		return err
	}
	if err := writeScript(bufio.NewWriter(w), commands); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}

	fmt.Fprintf(cli.out, "%s✓ Wrote %d command(s) to %s%s\n", SuccessColor, len(commands), location, ResetColor)
	return nil
}

// dumpDefinitions writes every definition under catalog and schema keyed by
// qualified name. Empty parts match everything.
func (cli *CLI) dumpDefinitions(ctx context.Context, catalog, schema, location string) error {
	views, err := op.GetSchema(catalog, schema, cli.instance.Persistence).Views()
	if err != nil {
		return err
	}

	byName := make(map[string]*core.MaterializedViewDefinition, len(views))
	for name, definition := range views {
		byName[name.String()] = definition
	}
	data, err := json.MarshalIndent(byName, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal definitions: %w", err)
	}
	data = append(data, '\n')

	if location == "" {
		_, err = cli.out.Write(data)
		return err
	}

	w, err := remote.OpenWriter(ctx, location, &cli.s3)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}

	fmt.Fprintf(cli.out, "%s✓ Wrote %d definition(s) to %s%s\n", SuccessColor, len(views), location, ResetColor)
	return nil
}

func writeScript(w *bufio.Writer, commands []string) error {
	for _, command := range commands {
		if _, err := w.WriteString(strings.TrimSpace(command) + ";\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
