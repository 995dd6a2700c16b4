package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/jamessan/cupt/log"
	"github.com/jamessan/cupt/queryengine"
)

type queryCommand struct {
	source bool
	logger *log.Logger
}

func (c *queryCommand) SetLogger(l *log.Logger) { c.logger = l }

func (c *queryCommand) Name() string      { return "query" }
func (c *queryCommand) Args() string      { return "<query>" }
func (c *queryCommand) ShortHelp() string { return "Evaluate a function-selector query against the sample cache" }
func (c *queryCommand) LongHelp() string {
	return "Parses and evaluates a query-language expression (see the query language\n" +
		"grammar) against an in-memory sample package cache, printing one\n" +
		"\"package version\" line per matching result."
}

func (c *queryCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&c.source, "source", false, "evaluate as a source-package query instead of binary")
}

func (c *queryCommand) Run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("query: expected exactly one query argument")
	}

	cache := sampleCache()
	parser := queryengine.NewParser(cache)
	parser.Logger = c.logger
	node, err := parser.Parse(args[0])
	if err != nil {
		return err
	}

	var vs *queryengine.VersionSet
	if c.source {
		vs = queryengine.NewSourceVersionSet(cache)
	} else {
		vs = queryengine.NewBinaryVersionSet(cache)
	}

	results, err := node.Select(vs)
	if err != nil {
		return err
	}
	for _, v := range results {
		c := v.Common()
		fmt.Printf("%s %s\n", c.PackageName, c.VersionString)
	}
	return nil
}
