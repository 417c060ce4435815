// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

// Command reelswipe-ml is the offline model pipeline: it exports snapshots
// from the store, gates them on data quality, trains and evaluates item-item
// CF models and loads a trained version back into the store.
//
//	reelswipe-ml snapshot -impressions
//	reelswipe-ml dq -snapshot snap_20260301
//	reelswipe-ml train -snapshot snap_20260301 -model-version cf_v3
//	reelswipe-ml eval -snapshot snap_20260301 -model-version cf_v3
//	reelswipe-ml load -model-version cf_v3 -set-current
//	reelswipe-ml seed -snapshot catalog_2026 -db /data/reelswipe.duckdb
//	reelswipe-ml eval-impressions -snapshot snap_20260301
//	reelswipe-ml summary -snapshot snap_20260301
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/josuejero/ReelSwipe/internal/logging"
	"github.com/josuejero/ReelSwipe/internal/validation"
)

// command is one subcommand. args excludes the subcommand name.
type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"snapshot", "export store tables into a snapshot directory", runSnapshot},
	{"dq", "run the data-quality gate over a snapshot", runDQ},
	{"train", "train an item-item CF model from a snapshot", runTrain},
	{"eval", "evaluate a trained model offline (NDCG/MAP/Recall@K)", runEval},
	{"load", "load a trained model into the store", runLoad},
	{"seed", "load a snapshot's movie catalog into the store", runSeed},
	{"eval-impressions", "score served decks against the swipes they received", runEvalImpressions},
	{"summary", "print a swipe and impression summary", runSummary},
}

func main() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, logger: logging.Logger()}
	if err := run(ctx, a, os.Args[1:]); err != nil {
		var qe *validation.QualityError
		if errors.As(err, &qe) {
			fmt.Fprintln(os.Stderr, "[DQ] FAILED:", qe.Error())
			os.Exit(2)
		}
		logging.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// run dispatches to the named subcommand.
func run(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		printUsage(a.out)
		return errors.New("missing command")
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(ctx, a, args[1:])
		}
	}
	printUsage(a.out)
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: reelswipe-ml <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-17s %s\n", c.name, c.usage)
	}
}
