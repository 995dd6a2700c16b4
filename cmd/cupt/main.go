// Command cupt is a small demonstration CLI over the query engine and
// native resolver, backed by an in-memory sample cache rather than a
// real archive index (index parsing is out of scope).
//
// Adapted from golang-dep's subcommand dispatch in main.go: a fixed
// registry of command implementations, each owning its own flag set.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/jamessan/cupt/log"
	"github.com/sdboyer/constext"
)

var verbose = flag.Bool("v", false, "enable verbose logging")

type command interface {
	Name() string
	Args() string
	ShortHelp() string
	LongHelp() string
	Register(*flag.FlagSet)
	Run(ctx context.Context, args []string) error
}

// logAware is implemented by commands that want the -v logger wired
// into the query parser or search driver they construct.
type logAware interface {
	SetLogger(*log.Logger)
}

func main() {
	commands := []command{
		&queryCommand{},
		&resolveCommand{},
		&searchCommand{},
	}

	usage := func() {
		fmt.Fprintln(os.Stderr, "Usage: cupt <command>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr)
		w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
		for _, c := range commands {
			fmt.Fprintf(w, "\t%s\t%s\n", c.Name(), c.ShortHelp())
		}
		w.Flush()
		fmt.Fprintln(os.Stderr)
	}

	if len(os.Args) <= 1 {
		usage()
		os.Exit(1)
	}

	for _, c := range commands {
		if c.Name() != os.Args[1] {
			continue
		}

		fs := flag.NewFlagSet(c.Name(), flag.ExitOnError)
		fs.BoolVar(verbose, "v", false, "enable verbose logging")
		timeout := fs.Duration("timeout", 0, "abandon the search after this long (0 disables)")
		c.Register(fs)
		resetUsage(fs, c.Name(), c.Args(), c.LongHelp())

		if err := fs.Parse(os.Args[2:]); err != nil {
			fs.Usage()
			os.Exit(1)
		}

		if la, ok := c.(logAware); ok && *verbose {
			la.SetLogger(log.New(os.Stderr))
		}

		ctx, cancel := signalContext()
		defer cancel()
		if *timeout > 0 {
			var timeoutCancel context.CancelFunc
			var timeoutCtx context.Context
			timeoutCtx, timeoutCancel = context.WithTimeout(context.Background(), *timeout)
			defer timeoutCancel()
			var joinCancel context.CancelFunc
			ctx, joinCancel = constext.Cons(ctx, timeoutCtx)
			defer joinCancel()
		}

		if err := c.Run(ctx, fs.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "%s: no such command\n", os.Args[1])
	usage()
	os.Exit(1)
}

// signalContext returns a context derived from context.Background()
// and canceled on SIGINT; main joins it with the -timeout context via
// constext.Cons, the way the resolver's cancellation story is grounded
// on gps's callManager.setUpCall.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sig)
	}()
	return ctx, cancel
}

func resetUsage(fs *flag.FlagSet, name, args, longHelp string) {
	var (
		hasFlags   bool
		flagBlock  bytes.Buffer
		flagWriter = tabwriter.NewWriter(&flagBlock, 0, 4, 2, ' ', 0)
	)
	fs.VisitAll(func(f *flag.Flag) {
		hasFlags = true
		defValue := f.DefValue
		if defValue == "" {
			defValue = "<none>"
		}
		fmt.Fprintf(flagWriter, "\t-%s\t%s (default: %s)\n", f.Name, f.Usage, defValue)
	})
	flagWriter.Flush()
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cupt %s %s\n", name, args)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, strings.TrimSpace(longHelp))
		fmt.Fprintln(os.Stderr)
		if hasFlags {
			fmt.Fprintln(os.Stderr, "Flags:")
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, flagBlock.String())
		}
	}
}
