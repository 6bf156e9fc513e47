// gud records versions of a directory tree in a single append-only
// archive file.
//
// Usage:
//
//	gud init
//	gud commit -m MESSAGE
//	gud status
//	gud log
//	gud show [-i INDEX] PATH
//	gud export [-i INDEX] [--force] DEST
//
// Every command accepts -C DIR to run against another working tree and
// --verbose for debug logging on stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/meigma/gud"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// command is one subcommand. exec runs after flags are parsed.
type command struct {
	usage string
	flags func(*pflag.FlagSet)
	exec  func(ctx context.Context, env *env, args []string) error
}

// env is shared by every subcommand.
type env struct {
	dir     string
	verbose bool
	stdout  io.Writer
	logger  *slog.Logger

	message string
	index   int
	force   bool
}

func (e *env) open() (*gud.Repository, error) {
	return gud.OpenRepository(e.dir, gud.WithLogger(e.logger))
}

var commands = map[string]command{
	"init": {
		usage: "init",
		exec:  runInit,
	},
	"commit": {
		usage: "commit -m MESSAGE",
		flags: func(fs *pflag.FlagSet) {
			fs.StringP("message", "m", "", "commit message")
		},
		exec: runCommit,
	},
	"status": {
		usage: "status",
		exec:  runStatus,
	},
	"log": {
		usage: "log",
		exec:  runLog,
	},
	"show": {
		usage: "show [-i INDEX] PATH",
		flags: indexFlag,
		exec:  runShow,
	},
	"export": {
		usage: "export [-i INDEX] [--force] DEST",
		flags: func(fs *pflag.FlagSet) {
			indexFlag(fs)
			fs.Bool("force", false, "overwrite existing files in DEST")
		},
		exec: runExport,
	},
}

func indexFlag(fs *pflag.FlagSet) {
	fs.IntP("index", "i", -1, "version index; negative values count back from the last version")
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return errors.New("missing command")
	}
	name := args[0]
	if name == "-h" || name == "--help" || name == "help" {
		printUsage(stdout)
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", name)
	}

	e := &env{stdout: stdout}
	flagSet := pflag.NewFlagSet("gud "+name, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&e.dir, "dir", "C", ".", "working tree")
	flagSet.BoolVar(&e.verbose, "verbose", false, "log debug events to stderr")
	if cmd.flags != nil {
		cmd.flags(flagSet)
	}
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "usage: gud %s\n\n", cmd.usage)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args[1:]); err != nil {
		return err
	}
	e.message, _ = flagSet.GetString("message")
	e.index, _ = flagSet.GetInt("index")
	e.force, _ = flagSet.GetBool("force")

	level := slog.LevelWarn
	if e.verbose {
		level = slog.LevelDebug
	}
	e.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return cmd.exec(ctx, e, flagSet.Args())
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: gud COMMAND [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range []string{"init", "commit", "status", "log", "show", "export"} {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

func runInit(_ context.Context, e *env, args []string) error {
	if len(args) != 0 {
		return errors.New("init takes no arguments")
	}
	r, err := gud.Init(e.dir, gud.WithLogger(e.logger))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "initialized empty repository in %s\n", r.Root())
	return nil
}

func runCommit(ctx context.Context, e *env, args []string) error {
	if len(args) != 0 {
		return errors.New("commit takes no arguments")
	}
	if e.message == "" {
		return errors.New("commit requires a message (-m)")
	}
	r, err := e.open()
	if err != nil {
		return err
	}
	res, err := r.Commit(ctx, e.message)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "version %d: %d added, %d modified, %d deleted (%d snapshots, %d patches)\n",
		res.Index, len(res.Added), len(res.Modified), len(res.Deleted), res.Snapshots, res.Patches)
	for _, p := range res.Skipped {
		fmt.Fprintf(e.stdout, "skipped %s\n", p)
	}
	return nil
}

func runStatus(ctx context.Context, e *env, args []string) error {
	if len(args) != 0 {
		return errors.New("status takes no arguments")
	}
	r, err := e.open()
	if err != nil {
		return err
	}
	st, err := r.Status(ctx)
	if err != nil {
		return err
	}
	if st.Clean() {
		fmt.Fprintln(e.stdout, "nothing to commit, working tree clean")
		return nil
	}
	for _, p := range st.Added {
		fmt.Fprintf(e.stdout, "A %s\n", p)
	}
	for _, p := range st.Modified {
		fmt.Fprintf(e.stdout, "M %s\n", p)
	}
	for _, p := range st.Deleted {
		fmt.Fprintf(e.stdout, "D %s\n", p)
	}
	return nil
}

func runLog(_ context.Context, e *env, args []string) error {
	if len(args) != 0 {
		return errors.New("log takes no arguments")
	}
	r, err := e.open()
	if err != nil {
		return err
	}
	versions, err := r.Log()
	if err != nil {
		return err
	}
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		created := "-"
		if !v.Created.IsZero() {
			created = v.Created.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(e.stdout, "%d\t#%d\t%s\t%d files\t%s\n", v.Index, v.Number, created, v.Files, v.Message)
	}
	return nil
}

func runShow(_ context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("show takes exactly one PATH")
	}
	r, err := e.open()
	if err != nil {
		return err
	}
	content, err := r.ReadFile(e.index, args[0])
	if err != nil {
		return err
	}
	_, err = e.stdout.Write(content)
	return err
}

func runExport(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("export takes exactly one DEST")
	}
	r, err := e.open()
	if err != nil {
		return err
	}
	n, err := r.Export(ctx, e.index, args[0], gud.WithOverwrite(e.force))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "exported %d files to %s\n", n, args[0])
	return nil
}
