package cli

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/schoolrecords/schoolrecords/internal/config"
	"github.com/schoolrecords/schoolrecords/internal/database"
	"github.com/schoolrecords/schoolrecords/internal/logging"
)

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

type globalOptions struct {
	Verbosity int
	JSON      bool
}

type commandDeps struct {
	out     io.Writer
	build   BuildInfo
	src     config.Getter
	globals *globalOptions
}

// NewRootCommand builds the schoolrecords command tree, reading settings from
// the process environment.
func NewRootCommand(out io.Writer, build BuildInfo) *cobra.Command {
	return newRootCommand(out, build, config.EnvGetter{})
}

func newRootCommand(out io.Writer, build BuildInfo, src config.Getter) *cobra.Command {
	deps := commandDeps{
		out:     out,
		build:   build,
		src:     src,
		globals: &globalOptions{},
	}

	cmd := &cobra.Command{
		Use:           "schoolrecords",
		Short:         "School records management",
		Long:          "schoolrecords keeps students, classes, teachers, subjects, marks, attendance and fees in a MySQL or SQLite store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.CountVarP(&deps.globals.Verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	flags.BoolVar(&deps.globals.JSON, "json", false, "Print results as JSON")

	cmd.AddCommand(newVersionCommand(deps))
	cmd.AddCommand(newInitCommand(deps))
	cmd.AddCommand(newServeCommand(deps))
	cmd.AddCommand(newMaintenanceCommand(deps))
	cmd.AddCommand(newStudentCommand(deps))
	cmd.AddCommand(newClassCommand(deps))
	cmd.AddCommand(newTeacherCommand(deps))
	cmd.AddCommand(newSubjectCommand(deps))
	cmd.AddCommand(newMarkCommand(deps))
	cmd.AddCommand(newAttendanceCommand(deps))
	cmd.AddCommand(newFeeCommand(deps))
	cmd.AddCommand(newStatsCommand(deps))
	cmd.AddCommand(newExportCommand(deps))
	return cmd
}

// session is the store a single command invocation works against.
type session struct {
	cfg      config.Config
	provider *database.Provider
	repo     *database.Repository
}

// loadConfig reads settings and applies logging for this invocation.
func (d commandDeps) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(d.src)
	if err != nil {
		return config.Config{}, mapCommandError(err)
	}
	cfg.Logging.Level = logging.LevelForVerbosity(cfg.Logging.Level, d.globals.Verbosity)
	logging.Apply(cfg.Logging, cmd.ErrOrStderr())
	return cfg, nil
}

// openStore connects to the configured store and makes sure its schema exists.
func (d commandDeps) openStore(cmd *cobra.Command, cfg config.Config) (*session, error) {
	provider, err := database.NewProvider(cfg.Database)
	if err != nil {
		return nil, mapCommandError(err)
	}
	if err := database.EnsureSchema(cmd.Context(), provider); err != nil {
		_ = provider.Close()
		return nil, mapCommandError(err)
	}
	return &session{
		cfg:      cfg,
		provider: provider,
		repo:     database.NewRepository(provider),
	}, nil
}

// withStore runs fn against a freshly opened store and closes it afterwards.
func (d commandDeps) withStore(cmd *cobra.Command, fn func(*session) error) error {
	cfg, err := d.loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := d.openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer s.provider.Close()
	return mapCommandError(fn(s))
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// printTable writes a header and rows as aligned columns.
func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := io.WriteString(tw, strings.Join(header, "\t")+"\n"); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := io.WriteString(tw, strings.Join(row, "\t")+"\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// render prints value as JSON when --json is set, otherwise as a table.
func (d commandDeps) render(value any, header []string, rows [][]string) error {
	if d.globals.JSON {
		return printJSON(d.out, value)
	}
	return printTable(d.out, header, rows)
}

func parseID(what, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageErrorf("%s must be a positive integer, got %q", what, raw)
	}
	return id, nil
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return usageErrorf("usage: %s", usage)
	}
	return nil
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return database.Placeholder
	}
	return formatInt(*id)
}

func formatDate(d database.Date) string {
	if d.IsZero() {
		return database.Placeholder
	}
	return d.String()
}

// optionalID returns a pointer to the flag value when the flag was given.
func optionalID(cmd *cobra.Command, name string, value int64) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
