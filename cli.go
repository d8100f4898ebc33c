package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/metcalfc/rsvp/internal/config"
	"github.com/metcalfc/rsvp/internal/domain"
	"github.com/metcalfc/rsvp/internal/extract"
	"github.com/metcalfc/rsvp/internal/library"
	"github.com/metcalfc/rsvp/internal/logger"
	"github.com/metcalfc/rsvp/internal/nav"
	"github.com/metcalfc/rsvp/internal/settings"
	"github.com/metcalfc/rsvp/internal/store"
	"github.com/metcalfc/rsvp/internal/text"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	envPath    string
	dbFlag     string
	langFlag   string
	wpmFlag    int
	logFlag    string

	folderFlag    string
	freshFlag     bool
	noLibraryFlag bool
	queryFlag     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rsvp [file]",
		Short: "Speed reader: one word at a time",
		Long: `rsvp shows a document one word at a time at a steady pace.

Reads plain text, Markdown, HTML, EPUB and PDF. With no file, text piped on
stdin is read. Files are added to the library so reading resumes where it
stopped.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runReadCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultConfigPath(), "config file")
	pf.StringVar(&envPath, "env", ".env", "dotenv file with RSVP_* variables")
	pf.StringVar(&dbFlag, "db", "", "library database path")
	pf.StringVar(&langFlag, "lang", "", "language of imported text (ja, zh, ko use word segmentation)")
	pf.StringVar(&logFlag, "log-level", "", "log level: off, info, debug")

	rootCmd.Flags().IntVarP(&wpmFlag, "wpm", "w", 0, "words per minute")
	rootCmd.Flags().StringVar(&folderFlag, "folder", "", "library folder for a new document")
	rootCmd.Flags().BoolVar(&freshFlag, "fresh", false, "ignore the saved reading position")
	rootCmd.Flags().BoolVar(&noLibraryFlag, "no-library", false, "read without adding to the library")

	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newFoldersCmd())
	rootCmd.AddCommand(newOpenCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newBookmarksCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newFormatsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// app holds what every command needs.
type app struct {
	cfg      config.Config
	log      *logger.Logger
	settings *settings.Store
	repo     domain.Repository
	lib      *library.Library
	closers  []io.Closer
}

// openApp resolves configuration (defaults, config file, .env and RSVP_*
// variables, then flags) and opens the library.
func openApp(cmd *cobra.Command, memory bool) (*app, error) {
	if err := config.LoadEnv(envPath); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyStringFlag(cmd, "db", &cfg.DBPath, dbFlag)
	applyStringFlag(cmd, "lang", &cfg.Lang, langFlag)
	applyStringFlag(cmd, "log-level", &cfg.LogLevel, logFlag)
	if f := cmd.Flags().Lookup("wpm"); f != nil && f.Changed {
		cfg.WPM = wpmFlag
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log, logCloser, err := logger.OpenFile(level, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	a := &app{cfg: cfg, log: log, closers: []io.Closer{logCloser}}

	a.settings, err = settings.NewStore(config.DefaultSettingsPath(), log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if cfg.WPM != 0 {
		if _, err := a.settings.SetWPM(cfg.WPM); err != nil {
			log.Warn("settings: %v", err)
		}
	}

	dataDir := cfg.DataDir
	if memory {
		a.repo = store.NewMemory()
		tmp, err := os.MkdirTemp("", "rsvp-")
		if err != nil {
			a.Close()
			return nil, err
		}
		dataDir = tmp
		a.closers = append(a.closers, closerFunc(func() error { return os.RemoveAll(tmp) }))
	} else {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open library: %w", err)
		}
		a.repo = db
	}
	a.closers = append(a.closers, a.repo)
	a.lib = library.New(a.repo, dataDir, log, library.WithLanguage(cfg.Lang))
	log.Debug("config: db=%s data=%s lang=%s", cfg.DBPath, dataDir, cfg.Lang)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logErrf("close: %v\n", err)
		}
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*target = value
	}
}

func runReadCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, noLibraryFlag)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	var doc *domain.Document
	if len(args) == 1 {
		doc, _, err = a.lib.Import(ctx, args[0], folderFlag)
		if err != nil {
			return err
		}
	} else {
		raw, err := readStdin()
		if err != nil {
			return err
		}
		if doc, _, err = a.lib.ImportText(ctx, raw); err != nil {
			return err
		}
	}
	return openAndRead(ctx, a, doc.ID)
}

func readStdin() (string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return "", err
	}
	if stat.Mode()&os.ModeCharDevice != 0 {
		return "", errors.New("no input provided: give a file or pipe text to stdin (try: rsvp -h)")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func openAndRead(ctx context.Context, a *app, id int64) error {
	book, err := a.lib.Open(ctx, id)
	if err != nil {
		return err
	}
	if freshFlag {
		book.Start = 0
	}
	a.log.Info("reading %q from %d of %d", book.Document.Title, book.Start, len(book.Tokens))
	r := startReading(ctx, a, book)
	defer r.Close()
	return runReader(a, r)
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add FILE...",
		Short: "Add documents to the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			for _, path := range args {
				doc, existing, err := a.lib.Import(cmd.Context(), path, folderFlag)
				if err != nil {
					logErrf("%s: %v\n", path, err)
					continue
				}
				if existing {
					fmt.Printf("%d\t%s (already in library)\n", doc.ID, doc.Title)
					continue
				}
				fmt.Printf("%d\t%s (%d words)\n", doc.ID, doc.Title, doc.TotalWords)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&folderFlag, "folder", "", "library folder")
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List library documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			docs, err := a.lib.List(cmd.Context(), domain.DocumentFilter{Query: queryFlag, Folder: folderFlag})
			if err != nil {
				return err
			}
			printDocuments(os.Stdout, docs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&queryFlag, "query", "q", "", "filter by title")
	cmd.Flags().StringVar(&folderFlag, "folder", "", "filter by folder")
	return cmd
}

func printDocuments(out io.Writer, docs []domain.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tFOLDER\tTYPE\tPROGRESS")
	for _, d := range docs {
		pct := 0
		if d.TotalWords > 0 {
			pct = d.LastReadPosition * 100 / d.TotalWords
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d%%\n", d.ID, d.Title, d.Folder, d.FileType, pct)
	}
	tw.Flush()
}

func newFoldersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List library folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			folders, err := a.lib.Folders(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range folders {
				fmt.Println(f)
			}
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q", s)
	}
	return id, nil
}

func newOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open ID",
		Short: "Read a library document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			return openAndRead(cmd.Context(), a, id)
		},
	}
	cmd.Flags().BoolVar(&freshFlag, "fresh", false, "ignore the saved reading position")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID...",
		Aliases: []string{"delete"},
		Short:   "Remove documents from the library",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				if err := a.lib.Delete(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show reading statistics for the last week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			today, err := a.lib.Today(ctx)
			if err != nil {
				return err
			}
			week, err := a.lib.WeeklyStats(ctx)
			if err != nil {
				return err
			}
			if !a.settings.Current().ReadingGoals {
				fmt.Println("Reading goals are off; enable with: rsvp settings set reading-goals true")
			}
			printStats(os.Stdout, today, week)
			return nil
		},
	}
}

func printStats(out io.Writer, today domain.DailyStats, week []domain.DailyStats) {
	fmt.Fprintf(out, "Today: %d words, %d min\n\n", today.WordsRead, today.MinutesRead())
	if len(week) == 0 {
		fmt.Fprintln(out, "No reading recorded yet.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tWORDS\tMINUTES")
	var words, minutes int
	for _, d := range week {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", d.Date, d.WordsRead, d.MinutesRead())
		words += d.WordsRead
		minutes += d.MinutesRead()
	}
	fmt.Fprintf(tw, "total\t%d\t%d\n", words, minutes)
	tw.Flush()
}

func newBookmarksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bookmarks ID",
		Short: "List the bookmarks of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			marks, err := nav.NewBookmarks(a.repo).List(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(marks) == 0 {
				fmt.Println("No bookmarks.")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPOSITION\tLABEL\tCREATED")
			for _, b := range marks {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", b.ID, b.Position, b.Label, b.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search ID QUERY",
		Short: "Find a word in a document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			book, err := a.lib.Open(cmd.Context(), id)
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")
			hits, err := nav.Search(cmd.Context(), book.Tokens, query)
			if err != nil {
				return err
			}
			for _, h := range hits {
				window, _ := text.ContextWindow(book.Tokens, h, 5)
				fmt.Printf("%d\t%s\n", h, strings.Join(window, " "))
			}
			fmt.Printf("%d matches for %q\n", len(hits), query)
			return nil
		},
	}
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show reader settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			return toml.NewEncoder(os.Stdout).Encode(a.settings.Current())
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change a reader setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			_, err = a.settings.Set(args[0], args[1])
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List setting keys",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			for _, k := range []string{"wpm", "font-size", "font-family", "orp-color", "focus-timer-minutes"} {
				fmt.Println(k)
			}
			for _, f := range settings.Flags() {
				fmt.Println(f)
			}
		},
	})
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		fmt.Println(path)
		return nil
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List readable file formats",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			for _, f := range extract.SupportedFormats() {
				fmt.Println(f)
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("rsvp %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func logErrf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}
