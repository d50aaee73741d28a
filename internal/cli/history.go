package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/wherec/internal/ir"
	"github.com/roach88/wherec/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Named    bool
	Show     string
}

// HistoryEntry is one logged compilation.
type HistoryEntry struct {
	Seq         int64     `json:"seq"`
	ID          string    `json:"id"`
	Dialect     string    `json:"dialect"`
	Model       string    `json:"model,omitempty"`
	Filter      string    `json:"filter"`
	SQL         string    `json:"sql"`
	Args        []any     `json:"args,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

// NamedEntry is one named filter.
type NamedEntry struct {
	Name          string       `json:"name"`
	CompilationID string       `json:"compilation_id"`
	CreatedAt     time.Time    `json:"created_at"`
	Compilation   HistoryEntry `json:"compilation,omitzero"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded compilations",
		Long: `List the compilations recorded with "compile --db", oldest first.

With --named the named filters are listed instead; --show prints one named
filter with its compilation.

Exit codes:
  0 - Success
  2 - Command error (database not found, unknown name, etc.)

Examples:
  wherec history --db ./wherec.db
  wherec history --db ./wherec.db --limit 10
  wherec history --db ./wherec.db --named
  wherec history --db ./wherec.db --show active-users`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "compilation log database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the most recent N compilations")
	cmd.Flags().BoolVar(&opts.Named, "named", false, "list named filters")
	cmd.Flags().StringVar(&opts.Show, "show", "", "show one named filter")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Limit < 0 {
		return formatter.CommandError(ErrCodeBadFlag, "--limit must not be negative")
	}
	if opts.Named && opts.Show != "" {
		return formatter.CommandError(ErrCodeBadFlag, "--named and --show are mutually exclusive")
	}

	// Open would create an empty log; reading one that is not there is an error.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.CommandError(ErrCodeStore, fmt.Sprintf("database not found: %s", opts.Database))
	}

	st, err := store.Open(opts.Database, store.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))
	if err != nil {
		return formatter.CommandError(ErrCodeStore, err.Error())
	}
	defer st.Close()

	switch {
	case opts.Show != "":
		return showNamed(ctx, st, opts.Show, formatter)
	case opts.Named:
		return listNamed(ctx, st, formatter)
	default:
		return listCompilations(ctx, st, opts.Limit, formatter)
	}
}

func listCompilations(ctx context.Context, st *store.Store, limit int, formatter *OutputFormatter) error {
	cs, err := st.List(ctx, limit)
	if err != nil {
		return formatter.CommandError(ErrCodeStore, err.Error())
	}
	entries := make([]HistoryEntry, len(cs))
	for i, c := range cs {
		entries[i] = historyEntry(c)
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No compilations recorded.")
		return nil
	}

	table := tableView(formatter.Writer)
	table.SetHeader([]string{"Seq", "ID", "Dialect", "Model", "SQL"})
	for _, e := range entries {
		model := e.Model
		if model == "" {
			model = "-"
		}
		table.Append([]string{fmt.Sprint(e.Seq), shortID(e.ID), e.Dialect, model, e.SQL})
	}
	table.Render()
	return nil
}

func listNamed(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	nfs, err := st.ListNamed(ctx)
	if err != nil {
		return formatter.CommandError(ErrCodeStore, err.Error())
	}
	entries := make([]NamedEntry, len(nfs))
	for i, nf := range nfs {
		entries[i] = NamedEntry{Name: nf.Name, CompilationID: nf.CompilationID, CreatedAt: nf.CreatedAt}
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No named filters.")
		return nil
	}

	table := tableView(formatter.Writer)
	table.SetHeader([]string{"Name", "Compilation", "Created"})
	for _, e := range entries {
		table.Append([]string{e.Name, shortID(e.CompilationID), e.CreatedAt.Format(time.RFC3339)})
	}
	table.Render()
	return nil
}

func showNamed(ctx context.Context, st *store.Store, name string, formatter *OutputFormatter) error {
	nf, c, err := st.GetNamed(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return formatter.CommandError(ErrCodeStore, fmt.Sprintf("no named filter %q", name))
	}
	if err != nil {
		return formatter.CommandError(ErrCodeStore, err.Error())
	}
	entry := NamedEntry{
		Name:          nf.Name,
		CompilationID: nf.CompilationID,
		CreatedAt:     nf.CreatedAt,
		Compilation:   historyEntry(c),
	}

	if formatter.Format == "json" {
		return formatter.Success(entry)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "Name:    %s\n", entry.Name)
	fmt.Fprintf(w, "ID:      %s (seq %d)\n", c.ID, c.Seq)
	fmt.Fprintf(w, "Dialect: %s\n", c.Dialect)
	if c.Model != "" {
		fmt.Fprintf(w, "Model:   %s\n", c.Model)
	}
	fmt.Fprintf(w, "Filter:  %s\n", c.Filter)
	fmt.Fprintf(w, "SQL:     %s\n", c.SQL)
	if len(c.Args) > 0 {
		args, err := ir.MarshalCanonical(c.Args)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Args:    %s\n", args)
	}
	return nil
}

func historyEntry(c store.Compilation) HistoryEntry {
	return HistoryEntry{
		Seq:         c.Seq,
		ID:          c.ID,
		Dialect:     c.Dialect,
		Model:       c.Model,
		Filter:      c.Filter,
		SQL:         c.SQL,
		Args:        c.Args,
		Fingerprint: c.Fingerprint,
		CreatedAt:   c.CreatedAt,
	}
}

// tableView is a borderless, left-aligned table.
func tableView(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// shortID truncates a content-addressed ID for table output.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
