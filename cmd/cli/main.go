// Command cli runs materialized view statements against a local catalog.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nickyhof/matview"
	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/db"
	"github.com/nickyhof/matview/logging"
	"github.com/nickyhof/matview/ps"
	"github.com/nickyhof/matview/remote"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

// CLI holds the state shared by every subcommand.
type CLI struct {
	instance    *matview.Instance
	engine      *db.Engine
	out         io.Writer
	history     []string
	historyFile string
	s3          remote.S3Config
}

type options struct {
	dataDir   string
	catalog   string
	schema    string
	userName  string
	userEmail string
	rules     string
	logLevel  string
}

func main() {
	os.Exit(execute(os.Args[1:]))
}

func execute(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%sError: %v%s\n", ErrorColor, err, ResetColor)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts options
	cli := &CLI{}

	root := &cobra.Command{
		Use:           "matview",
		Short:         "Materialized view catalog CLI",
		Long:          "Create, refresh and inspect materialized views stored in a git-backed catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return cli.open(cmd.Context(), opts, cmd.OutOrStdout())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.repl(cmd.Context(), cmd.InOrStdin())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dataDir, "data-dir", "", "Catalog directory (memory if empty)")
	flags.StringVar(&opts.catalog, "catalog", "", "Default catalog")
	flags.StringVar(&opts.schema, "schema", "", "Default schema")
	flags.StringVar(&opts.userName, "name", "matview", "User name for commits and access checks")
	flags.StringVar(&opts.userEmail, "email", "cli@matview.local", "User email for commits")
	flags.StringVar(&opts.rules, "rules", "", "Access rule file location (allow all if empty)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level")
	flags.StringVar(&cli.s3.Region, "s3-region", os.Getenv("S3_REGION"), "S3 region")
	flags.StringVar(&cli.s3.Endpoint, "s3-endpoint", os.Getenv("S3_ENDPOINT"), "S3-compatible endpoint")

	root.AddCommand(
		newExecCmd(cli),
		newReplCmd(cli),
		newExportCmd(cli),
		newDumpCmd(cli),
		newLogCmd(cli),
		newVersionCmd(),
	)
	return root
}

func (cli *CLI) open(ctx context.Context, opts options, out io.Writer) error {
	logger, err := logging.New(opts.logLevel, "console", "stderr")
	if err != nil {
		return err
	}

	var persistence *ps.Persistence
	if opts.dataDir == "" {
		persistence, err = ps.NewMemoryPersistence()
	} else {
		persistence, err = ps.NewFilePersistence(opts.dataDir)
	}
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}

	cli.s3.AccessKey = os.Getenv("S3_ACCESS_KEY")
	cli.s3.SecretKey = os.Getenv("S3_SECRET_KEY")

	var accessControl access.AccessControl = access.AllowAll{}
	if opts.rules != "" {
		rules, err := access.LoadRules(ctx, opts.rules, &cli.s3, logger)
		if err != nil {
			return err
		}
		accessControl = rules
	}

	identity := core.Identity{Name: opts.userName, Email: opts.userEmail}
	instance := matview.Open(persistence, logger).WithAccessControl(accessControl)

	cli.instance = instance
	cli.engine = instance.Engine(identity, opts.catalog, opts.schema)
	cli.out = out
	cli.historyFile = getHistoryPath()
	logger.Debug("Opened catalog", zap.String("dir", opts.dataDir), zap.String("user", identity.Name))
	return nil
}
