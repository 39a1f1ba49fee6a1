package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mmcdole/moviebase/internal/domain"
	"github.com/mmcdole/moviebase/internal/importer"
	"github.com/mmcdole/moviebase/internal/tmdb"
	"github.com/mmcdole/moviebase/internal/view"
)

const retryDelay = 500 * time.Millisecond

var (
	showKind   string
	showSort   string
	showFilter string
	showDesc   bool
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Print every list with its item count",
	Args:  cobra.NoArgs,
	RunE:  runLists,
}

var showCmd = &cobra.Command{
	Use:   "show <list>",
	Short: "Print the items of one list",
	Long: `Print the items of a list, matched by name (case-insensitive) or id.

Examples:
  moviebase show "my watchlist" --kind movies --sort title
  moviebase show Watched --filter alien`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var newListCmd = &cobra.Command{
	Use:   "new-list <name>",
	Short: "Create a custom list",
	Args:  cobra.ExactArgs(1),
	RunE:  runNewList,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add titles from a JSON or CSV file to My Watchlist",
	Long: `Resolve each title in the file against TMDB and add the best match
to My Watchlist. JSON may be an array of {"title": ...} objects or an
object with an "items" array; CSV uses the column whose header contains
"title", or the first column.

Requires tmdb.api_key in the config or MOVIEBASE_TMDB_API_KEY.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var loginCmd = &cobra.Command{
	Use:   "login <account>",
	Short: "Switch to an account's lists and remember it",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Switch back to the anonymous local lists",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "moviebase %s\n", Version)
	},
}

func init() {
	showCmd.Flags().StringVar(&showKind, "kind", "all", "all, movies or series")
	showCmd.Flags().StringVar(&showSort, "sort", "added", "added, title or release")
	showCmd.Flags().StringVar(&showFilter, "filter", "", "fuzzy title filter")
	showCmd.Flags().BoolVar(&showDesc, "desc", false, "reverse the sort order")

	rootCmd.AddCommand(listsCmd, showCmd, newListCmd, importCmd, loginCmd, logoutCmd, versionCmd)
}

// withApp opens the app, loads the actor's lists, runs fn and closes
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.start(ctx); err != nil {
		return err
	}
	return fn(a)
}

func runLists(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		fmt.Fprintf(cmd.OutOrStdout(), "Lists for %s\n", a.lists.Actor())
		fmt.Fprintln(cmd.OutOrStdout(), renderListsTable(a.lists.Snapshot()))
		return nil
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	kind, ok := view.ParseKindFilter(showKind)
	if !ok {
		return fmt.Errorf("unknown kind %q", showKind)
	}
	order, ok := view.ParseSortOrder(showSort)
	if !ok {
		return fmt.Errorf("unknown sort %q", showSort)
	}

	return withApp(cmd.Context(), func(a *app) error {
		list, err := findList(a.lists.Snapshot(), args[0])
		if err != nil {
			return err
		}
		rows := view.Project(list.Items, view.Query{Kind: kind, Text: showFilter, Sort: order, Desc: showDesc})
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d of %d)\n", list.Name, len(rows), len(list.Items))
		fmt.Fprintln(cmd.OutOrStdout(), renderItemsTable(rows))
		return nil
	})
}

func runNewList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		list, err := a.lists.CreateList(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s)\n", list.Name, list.ID)
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if a.cfg.TMDB.APIKey == "" {
			return fmt.Errorf("tmdb.api_key is not configured")
		}

		client := tmdb.NewClient(a.cfg.TMDB.APIKey, a.logger,
			tmdb.WithBaseURL(a.cfg.TMDB.BaseURL),
			tmdb.WithTimeout(a.cfg.TMDB.Timeout),
			tmdb.WithRetries(a.cfg.TMDB.Retries, retryDelay),
		)
		resolver := importer.NewResolver(client, a.cfg.Import.Concurrency, a.logger)
		imp := importer.New(afero.NewOsFs(), resolver, a.lists, a.logger)

		report, err := imp.ImportFile(cmd.Context(), args[0])
		printImportReport(cmd.OutOrStdout(), report)
		return err
	})
}

func runLogin(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		coll, err := a.session.Login(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%d lists)\n", a.session.Current(), len(coll.Lists))
		return nil
	})
}

func runLogout(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if _, err := a.session.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Using the anonymous local lists")
		return nil
	})
}

// findList matches ref against list ids, then folded names
func findList(coll domain.ListCollection, ref string) (domain.List, error) {
	if l := coll.Find(ref); l != nil {
		return *l, nil
	}
	if l := coll.FindByName(ref); l != nil {
		return *l, nil
	}
	return domain.List{}, fmt.Errorf("%w: %q", domain.ErrListNotFound, ref)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderListsTable(coll domain.ListCollection) string {
	t := newTable("NAME", "ITEMS", "ID")
	for _, l := range coll.Lists {
		name := l.Name
		if !l.IsDeletable {
			name += " *"
		}
		t.Row(name, fmt.Sprint(len(l.Items)), l.ID)
	}
	return t.Render()
}

func renderItemsTable(rows []view.Row) string {
	t := newTable("KIND", "TITLE", "RELEASED", "KEY")
	for _, r := range rows {
		t.Row(r.Item.Kind.Label(), r.Item.Title, r.Item.ReleaseDate, r.Item.Key().String())
	}
	return t.Render()
}

func printImportReport(w io.Writer, report importer.Report) {
	for _, m := range report.Resolved {
		year := ""
		if y := m.Item.ReleaseYear(); y > 0 {
			year = fmt.Sprintf(" (%d)", y)
		}
		fmt.Fprintf(w, "  %-30s -> %s%s\n", m.Query, m.Item.Title, year)
	}
	if len(report.Unresolved) > 0 {
		fmt.Fprintf(w, "No match for: %s\n", strings.Join(report.Unresolved, ", "))
	}
	fmt.Fprintf(w, "Added %d, skipped %d, failed %d\n", report.Added, report.Skipped, report.Failed)
}
