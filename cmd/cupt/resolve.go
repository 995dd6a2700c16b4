package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/jamessan/cupt/config"
	"github.com/jamessan/cupt/log"
	"github.com/jamessan/cupt/nativeresolver"
)

type resolveCommand struct {
	remove     stringList
	autoClean  bool
	upgradeAll bool
	configPath string
	logger     *log.Logger
}

func (c *resolveCommand) SetLogger(l *log.Logger) { c.logger = l }

type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (c *resolveCommand) Name() string      { return "resolve" }
func (c *resolveCommand) Args() string      { return "<package>..." }
func (c *resolveCommand) ShortHelp() string { return "Resolve an install request against the sample cache" }
func (c *resolveCommand) LongHelp() string {
	return "Runs the native dependency resolver against an in-memory sample package\n" +
		"cache, requesting install of every positional package argument. The first\n" +
		"proposed solution is always accepted, unless -timeout (a global flag) has\n" +
		"expired by then, in which case it is answered with Abandon. The deadline\n" +
		"is checked only when a solution is proposed."
}

func (c *resolveCommand) Register(fs *flag.FlagSet) {
	fs.Var(&c.remove, "remove", "also request removal of this package (repeatable)")
	fs.BoolVar(&c.autoClean, "auto-clean", false, "mark unreferenced automatically-installed packages for removal")
	fs.BoolVar(&c.upgradeAll, "upgrade-all", false, "set Request.UpgradeAll (the search driver does not act on it)")
	fs.StringVar(&c.configPath, "config", "", "TOML file overriding resolver policy defaults")
}

func (c *resolveCommand) Run(ctx context.Context, args []string) error {
	if len(args) == 0 && len(c.remove) == 0 {
		return fmt.Errorf("resolve: expected at least one package to install or -remove")
	}

	policy := nativeresolver.DefaultPolicy
	if c.configPath != "" {
		f, err := os.Open(c.configPath)
		if err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
		defer f.Close()
		policy, err = config.Load(f)
		if err != nil {
			return fmt.Errorf("resolve: %w", err)
		}
	}

	cache := sampleCache()

	var result nativeresolver.ProposalView
	accepted := false

	propose := func(view nativeresolver.ProposalView) nativeresolver.Verdict {
		select {
		case <-ctx.Done():
			return nativeresolver.Abandon
		default:
		}
		result = view
		accepted = true
		return nativeresolver.Accept
	}

	driver := nativeresolver.NewDriver(cache, policy, propose)
	driver.Logger = c.logger
	req := nativeresolver.Request{
		Install:    args,
		Remove:     c.remove,
		UpgradeAll: c.upgradeAll,
		AutoClean:  c.autoClean,
	}

	if err := driver.Resolve(req); err != nil {
		return err
	}
	if !accepted {
		return fmt.Errorf("resolve: search ended without a proposal")
	}

	names := make([]string, 0, len(result.Packages))
	for name := range result.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		version := result.Packages[name]
		if version == "" {
			fmt.Printf("- %s (removed)\n", name)
			continue
		}
		marker := ""
		if result.Autoremoved[name] {
			marker = " (autoremoved)"
		}
		fmt.Printf("+ %s %s%s\n", name, version, marker)
	}
	return nil
}
