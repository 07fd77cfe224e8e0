package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/museumhub/internal/storage"
	"github.com/vanderheijden86/museumhub/pkg/catalog"
	"github.com/vanderheijden86/museumhub/pkg/config"
	"github.com/vanderheijden86/museumhub/pkg/debug"
	"github.com/vanderheijden86/museumhub/pkg/loader"
	"github.com/vanderheijden86/museumhub/pkg/metrics"
	"github.com/vanderheijden86/museumhub/pkg/progress"
	"github.com/vanderheijden86/museumhub/pkg/ui"
	"github.com/vanderheijden86/museumhub/pkg/version"
	"github.com/vanderheijden86/museumhub/pkg/watcher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without os.Exit, so deferred cleanup (the progress database
// in particular) always happens before the process exits.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mh", flag.ContinueOnError)
	fs.SetOutput(stderr)
	help := fs.Bool("help", false, "Show help")
	versionFlag := fs.Bool("version", false, "Show version")
	catalogFlag := fs.String("catalog", "", "Catalog file path or http(s) URL (overrides MH_CATALOG and config)")
	statsFlag := fs.Bool("stats", false, "Print learning progress and exit")
	resetFlag := fs.Bool("reset-progress", false, "Erase all stored progress and exit")
	requestFlag := fs.Bool("request", false, "Compose a lesson request and copy the mailto link")
	sectionFlag := fs.String("section", "", "Start section: home, progress or request")
	memoryFlag := fs.Bool("memory", false, "Keep progress in memory only for this session")
	metricsFlag := fs.Bool("metrics", false, "Print timing metrics as JSON to stderr on exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *help {
		fmt.Fprintln(stdout, "Usage: mh [options]")
		fmt.Fprintln(stdout, "\nA terminal viewer for museum lessons.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}

	if *versionFlag {
		fmt.Fprintf(stdout, "mh %s\n", version.Version)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v; using defaults\n", err)
		cfg = config.DefaultConfig()
	}
	if *memoryFlag {
		cfg.Progress.Backend = config.BackendMemory
	}
	if *sectionFlag != "" {
		cfg.UI.StartSection = *sectionFlag
	}

	if *requestFlag {
		if err := runRequest(stdout, cfg.Request.Recipient); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	kv, err := openKV(cfg.Progress)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening progress store: %v\n", err)
		return 1
	}
	defer kv.Close()
	store := progress.NewKVStore(kv, progress.WithKey(cfg.Progress.Key))

	if *resetFlag {
		if err := store.Reset(); err != nil {
			fmt.Fprintf(stderr, "Error resetting progress: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, "Progress reset.")
		return 0
	}

	location := cfg.CatalogLocation(*catalogFlag)
	src := loader.NewSource(location, cfg.Catalog.Timeout())
	debug.Log("catalog source: %s", src.Location())

	if *statsFlag {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Catalog.Timeout())
		defer cancel()
		c, err := src.Load(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading catalog: %v\n", err)
			return 1
		}
		writeStats(stdout, c, store, cfg.UI.RecentActivity, time.Now())
		if *metricsFlag {
			writeMetrics(stderr)
		}
		return 0
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(stderr, "mh needs a terminal; use --stats for plain output")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := startWatcher(ctx, src, cfg.Catalog.WatchEnabled())

	m := ui.NewModel(ui.Options{
		Reloader:       loader.NewReloader(src),
		Progress:       store,
		Watcher:        w,
		Recipient:      cfg.Request.Recipient,
		RecentActivity: cfg.UI.RecentActivity,
		StartSection:   ui.ParseSection(cfg.UI.StartSection),
	})
	defer m.Stop()

	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(stderr, "Error running mh: %v\n", err)
		return 1
	}
	if *metricsFlag {
		writeMetrics(stderr)
	}
	return 0
}

func openKV(pc config.ProgressConfig) (storage.KV, error) {
	if pc.Backend == config.BackendMemory {
		return storage.NewMemory(), nil
	}
	db, err := storage.OpenSQLite(pc.Path)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// startWatcher watches local catalog files. A watcher that fails to start
// only costs live reload, so errors are logged and nil is returned.
func startWatcher(ctx context.Context, src loader.Source, enabled bool) *watcher.Watcher {
	fs, ok := src.(loader.FileSource)
	if !ok || !enabled {
		return nil
	}
	w, err := watcher.New(fs.Path, watcher.WithForcePoll(config.ForcePoll()))
	if err != nil {
		debug.Log("watcher disabled: %v", err)
		return nil
	}
	if err := w.Start(ctx); err != nil {
		debug.Log("watcher disabled: %v", err)
		return nil
	}
	debug.Log("watching %s (polling=%v, fs=%s)", w.Path(), w.IsPolling(), w.FilesystemType())
	return w
}

type statsSource interface {
	Stats(c *catalog.Catalog) progress.Stats
	CompletedInMuseum(m *catalog.Museum) int
	RecentActivity(n int) []progress.ActivityEntry
}

func writeStats(w io.Writer, c *catalog.Catalog, s statsSource, recent int, now time.Time) {
	st := s.Stats(c)
	fmt.Fprintf(w, "Lessons completed  %d / %d\n", st.CompletedCount, st.TotalLessonCount)
	fmt.Fprintf(w, "Museums explored   %d\n", st.MuseumsVisitedCount)

	museums := c.VisibleMuseums()
	if len(museums) > 0 {
		fmt.Fprintln(w, "\nMuseums")
		for _, m := range museums {
			fmt.Fprintf(w, "  %-30s %d of %d lessons completed\n", m.Name, s.CompletedInMuseum(m), len(m.Lessons))
		}
	}

	entries := s.RecentActivity(recent)
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRecent activity")
	for _, e := range entries {
		fmt.Fprintf(w, "  %-10s %-30s %s\n", e.Action, e.Title, ui.FormatDayRel(e.Time(), now))
	}
}

func writeMetrics(w io.Writer) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(metrics.AllTimingStats()); err != nil {
		fmt.Fprintf(w, "Error encoding metrics: %v\n", err)
	}
}

func runRequest(w io.Writer, recipient string) error {
	msg, err := ui.PromptRequest(recipient, time.Now())
	if err != nil {
		return err
	}
	link := msg.MailtoURL()
	if err := clipboard.WriteAll(link); err != nil {
		fmt.Fprintln(w, "Clipboard unavailable; open this link in your mail client:")
	} else {
		fmt.Fprintln(w, "Request link copied to clipboard:")
	}
	fmt.Fprintln(w, link)
	return nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set MH_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("MH_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
