package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/markkurossi/tabulate"
	"github.com/spf13/pflag"

	"morphcalc/internal/cache"
	"morphcalc/internal/collection"
	"morphcalc/internal/config"
	"morphcalc/internal/corpus"
	"morphcalc/internal/morphemizer"
	"morphcalc/internal/recalc"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: morphcalc <command> [flags]

commands:
  recalc   rebuild the morpheme cache and reorder the new queue
  count    count morphemes in corpus files
  dump     dump the morpheme cache
  stats    show known-morpheme counts`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "recalc":
		err = cmdRecalc(os.Args[2:])
	case "count":
		err = cmdCount(os.Args[2:])
	case "dump":
		err = cmdDump(os.Args[2:])
	case "stats":
		err = cmdStats(os.Args[2:])
	default:
		usage()
	}

	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(os.Stderr, "Cancelled recalc")
		case errors.Is(err, recalc.ErrNeedsConfiguration):
			fmt.Fprintln(os.Stderr, "Save settings before using recalc:", err)
			os.Exit(1)
		default:
			slog.Error("unhandled failure, please report this", "error", err)
			os.Exit(1)
		}
	}
}

func cmdRecalc(args []string) error {
	flags := pflag.NewFlagSet("recalc", pflag.ExitOnError)
	configPath := flags.String("config", "morphcalc.yaml", "path to the config file")
	flags.String("collection", "", "path to the host collection database")
	flags.String("cache", "", "path to the morpheme cache database")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		return err
	}

	col, err := collection.Open(cfg.Collection)
	if err != nil {
		return err
	}
	defer col.Close()

	cacheDB, err := cache.Open(cfg.Cache)
	if err != nil {
		return err
	}
	defer cacheDB.Close()

	// Ctrl-C requests cooperative cancellation; the engine observes it at
	// its card-count checkpoints and aborts without committing.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.Default()
	progress := func(label string, value, max int) {
		logger.Info(label, "card", value, "of", max)
	}

	engine := recalc.New(col, cacheDB, cfg, logger, progress)
	summary, err := engine.Recalculate(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Finished recalc: %d cards cached, %d cards updated, %d distinct morphs.\n",
		summary.CardsCached, summary.CardsUpdated, summary.DistinctMorphs)
	return nil
}

func cmdCount(args []string) error {
	flags := pflag.NewFlagSet("count", pflag.ExitOnError)
	mizerName := flags.String("mizer", "space", "how to split morphemes (space, cjkchar)")
	gitURL := flags.String("git", "", "count a corpus from a git repository instead of local files")
	reposDir := flags.String("repos", "repos", "checkout directory for git corpora")
	if err := flags.Parse(args); err != nil {
		return err
	}

	mizer, err := morphemizer.ByName(*mizerName)
	if err != nil {
		return err
	}

	paths := flags.Args()
	if *gitURL != "" {
		localPath, err := corpus.GitLocalPath(*reposDir, *gitURL)
		if err != nil {
			return err
		}
		if err := corpus.SyncGit(*gitURL, localPath); err != nil {
			return err
		}
		gitPaths, err := corpus.TextFiles(localPath)
		if err != nil {
			return err
		}
		paths = append(paths, gitPaths...)
	}
	if len(paths) == 0 {
		return errors.New("no corpus files given")
	}

	entries, err := corpus.Count(paths, mizer)
	if err != nil {
		return err
	}

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Count").SetAlign(tabulate.MR)
	tab.Header("Norm")
	tab.Header("Inflected")
	for _, e := range entries {
		row := tab.Row()
		row.Column(strconv.Itoa(e.Count))
		row.Column(e.Morph.Norm)
		row.Column(e.Morph.Inflected)
	}
	fmt.Print(tab.String())
	return nil
}

func cmdDump(args []string) error {
	flags := pflag.NewFlagSet("dump", pflag.ExitOnError)
	cachePath := flags.String("cache", "morphcalc-cache.db", "path to the morpheme cache database")
	withFreq := flags.Bool("freq", false, "include association frequency")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cacheDB, err := cache.Open(*cachePath)
	if err != nil {
		return err
	}
	defer cacheDB.Close()

	dump, err := cacheDB.DumpMorphs()
	if err != nil {
		return err
	}

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Norm")
	tab.Header("Base")
	tab.Header("Inflected")
	tab.Header("Interval").SetAlign(tabulate.MR)
	if *withFreq {
		tab.Header("Frequency").SetAlign(tabulate.MR)
	}
	for _, d := range dump {
		row := tab.Row()
		row.Column(d.Morph.Norm)
		row.Column(d.Morph.Base)
		row.Column(d.Morph.Inflected)
		row.Column(strconv.Itoa(d.Interval))
		if *withFreq {
			row.Column(strconv.Itoa(d.Frequency))
		}
	}
	fmt.Print(tab.String())
	return nil
}

func cmdStats(args []string) error {
	flags := pflag.NewFlagSet("stats", pflag.ExitOnError)
	cachePath := flags.String("cache", "morphcalc-cache.db", "path to the morpheme cache database")
	threshold := flags.Int("threshold", 21, "interval at which a morpheme counts as known")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cacheDB, err := cache.Open(*cachePath)
	if err != nil {
		return err
	}
	defer cacheDB.Close()

	lemmas, inflections, err := cacheDB.KnownCounts(*threshold)
	if err != nil {
		return err
	}

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Stat")
	tab.Header("Count").SetAlign(tabulate.MR)
	row := tab.Row()
	row.Column("Known lemmas")
	row.Column(strconv.Itoa(lemmas))
	row = tab.Row()
	row.Column("Known inflections")
	row.Column(strconv.Itoa(inflections))
	fmt.Print(tab.String())
	return nil
}
