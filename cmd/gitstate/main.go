// Package main is the entry point for the gitstate inspection tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dshills/gitstate/internal/config"
	"github.com/dshills/gitstate/internal/git"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	ConfigPath string
	Repo       string
	LogLevel   string
	MaxEntries int
	NoWatch    bool

	Command string
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		return 1
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.NoWatch {
		cfg.Refresh.Watch = false
	}
	logger := cfg.NewLogger(os.Stderr)

	// Handle signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gitOpts := []git.GitOption{
		git.WithGitLogger(logger),
		git.WithRetries(cfg.Git.SpawnRetries),
	}
	if cfg.Git.TimeoutSeconds > 0 {
		gitOpts = append(gitOpts, git.WithCommandTimeout(cfg.CommandTimeout()))
	}
	if cfg.Git.MaxProcesses > 0 {
		gitOpts = append(gitOpts, git.WithMaxConcurrent(cfg.Git.MaxProcesses))
	}

	client, err := git.New(ctx, cfg.Git.Path, gitOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	registry := git.NewRegistry(client,
		git.WithRegistryLogger(logger),
		git.WithWatching(cfg.Refresh.Watch),
		git.WithDebounce(cfg.DebounceInterval()),
	)
	defer registry.Close()

	repo, err := registry.Open(ctx, opts.Repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	switch opts.Command {
	case "status":
		err = printStatus(ctx, repo)
	case "refs":
		err = printRefs(ctx, repo)
	case "log":
		err = printLog(ctx, repo, opts.MaxEntries)
	case "remotes":
		err = printRemotes(ctx, repo)
	case "watch":
		err = watchChanges(ctx, repo)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || git.IsKind(err, git.Cancelled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printStatus(ctx context.Context, repo *git.Repository) error {
	state, err := repo.Status(ctx)
	if err != nil {
		return err
	}

	if head := state.HEAD; head != nil {
		switch {
		case head.Name != "":
			fmt.Printf("On branch %s\n", head.Name)
			if head.Upstream != nil {
				fmt.Printf("Upstream %s/%s (ahead %d, behind %d)\n",
					head.Upstream.Remote, head.Upstream.Name, head.Ahead, head.Behind)
			}
		default:
			fmt.Printf("HEAD detached at %s\n", shortHash(head.Commit))
		}
	}
	if state.RebaseCommit != nil {
		fmt.Printf("Rebase in progress at %s\n", shortHash(state.RebaseCommit.Hash))
	}

	printChanges("Merge changes", repo.Root(), state.MergeChanges)
	printChanges("Staged changes", repo.Root(), state.IndexChanges)
	printChanges("Working tree changes", repo.Root(), state.WorkingTreeChanges)
	if len(state.MergeChanges)+len(state.IndexChanges)+len(state.WorkingTreeChanges) == 0 {
		fmt.Println("Working tree clean")
	}
	return nil
}

func printChanges(heading, root string, changes []git.Change) {
	if len(changes) == 0 {
		return
	}
	fmt.Printf("%s:\n", heading)
	for _, c := range changes {
		path := relPath(root, c.URI)
		if c.RenameURI != "" {
			path = relPath(root, c.OriginalURI) + " -> " + relPath(root, c.RenameURI)
		}
		fmt.Printf("  %-16s %s\n", c.Status, path)
	}
}

func printRefs(ctx context.Context, repo *git.Repository) error {
	state, err := repo.Status(ctx)
	if err != nil {
		return err
	}
	for _, ref := range state.Refs {
		fmt.Printf("%s %-12s %s\n", shortHash(ref.Commit), ref.Type, ref.Name)
	}
	return nil
}

func printLog(ctx context.Context, repo *git.Repository, maxEntries int) error {
	commits, err := repo.Log(ctx, git.LogOptions{MaxEntries: maxEntries})
	if err != nil {
		return err
	}
	for _, c := range commits {
		fmt.Printf("%s %s\n", shortHash(c.Hash), firstLine(c.Message))
	}
	return nil
}

func printRemotes(ctx context.Context, repo *git.Repository) error {
	state, err := repo.Status(ctx)
	if err != nil {
		return err
	}
	for _, r := range state.Remotes {
		mode := ""
		if r.IsReadOnly {
			mode = " (read-only)"
		}
		fmt.Printf("%s\t%s%s\n", r.Name, r.FetchURL, mode)
	}
	return nil
}

// watchChanges prints one line per snapshot change until interrupted.
func watchChanges(ctx context.Context, repo *git.Repository) error {
	sub, err := repo.OnDidChange(func(state *git.State) {
		fmt.Printf("changed: %d staged, %d working tree, %d merge\n",
			len(state.IndexChanges), len(state.WorkingTreeChanges), len(state.MergeChanges))
	})
	if err != nil {
		return err
	}
	defer sub.Cancel()

	fmt.Printf("watching %s\n", repo.Root())
	<-ctx.Done()
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (TOML or YAML)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.Repo, "repo", ".", "Path inside the repository to inspect")
	flag.StringVar(&opts.Repo, "r", ".", "Path inside the repository (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.IntVar(&opts.MaxEntries, "n", 0, "Maximum log entries (default 32)")
	flag.BoolVar(&opts.NoWatch, "no-watch", false, "Disable filesystem watching")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "gitstate - repository state engine inspection tool\n\n")
		fmt.Fprintf(os.Stderr, "Usage: gitstate [options] <command>\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  status    Show HEAD and the three change sets\n")
		fmt.Fprintf(os.Stderr, "  refs      List branches, remote heads, and tags\n")
		fmt.Fprintf(os.Stderr, "  log       Show recent commits (newest first)\n")
		fmt.Fprintf(os.Stderr, "  remotes   List configured remotes\n")
		fmt.Fprintf(os.Stderr, "  watch     Print a line whenever the snapshot changes\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gitstate status             Inspect the current directory\n")
		fmt.Fprintf(os.Stderr, "  gitstate -r ~/src/app log   Show recent commits of a repo\n")
		fmt.Fprintf(os.Stderr, "  gitstate -n 10 log          Show the 10 newest commits\n")
		fmt.Fprintf(os.Stderr, "  gitstate watch              Follow snapshot changes\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("gitstate %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" {
		switch opts.LogLevel {
		case "debug", "info", "warn", "error":
			// Valid
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
			os.Exit(1)
		}
	}

	switch args := flag.Args(); len(args) {
	case 0:
		opts.Command = "status"
	case 1:
		opts.Command = args[0]
	default:
		fmt.Fprintf(os.Stderr, "Error: expected one command, got %q\n", strings.Join(args, " "))
		os.Exit(1)
	}

	switch opts.Command {
	case "status", "refs", "log", "remotes", "watch":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", opts.Command)
		flag.Usage()
		os.Exit(1)
	}

	return opts
}
