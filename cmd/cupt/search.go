package main

import (
	"context"
	"flag"
	"fmt"
)

// searchCommand exercises memcache.Cache's radix-backed LookupPrefix
// directly, rather than going through the query language's
// package:name(regex), so a plain prefix lookup never pays for a full
// regex compile and scan.
type searchCommand struct{}

func (c *searchCommand) Name() string      { return "search" }
func (c *searchCommand) Args() string      { return "<prefix>" }
func (c *searchCommand) ShortHelp() string { return "List package names starting with a prefix" }
func (c *searchCommand) LongHelp() string {
	return "Looks up every package name registered in the sample cache starting with\n" +
		"the given prefix, using the radix index rather than scanning the whole\n" +
		"package-name universe."
}

func (c *searchCommand) Register(fs *flag.FlagSet) {}

func (c *searchCommand) Run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("search: expected exactly one prefix argument")
	}
	cache := sampleCache()
	for _, name := range cache.LookupPrefix(args[0]) {
		fmt.Println(name)
	}
	return nil
}
