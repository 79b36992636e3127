// Package main provides movecheck, which validates character move lists and
// optionally keeps watching them while they are edited.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fightcore/internal/config"
	"github.com/cory-johannsen/fightcore/internal/content"
	"github.com/cory-johannsen/fightcore/internal/game/action"
	"github.com/cory-johannsen/fightcore/internal/observability"
	"github.com/cory-johannsen/fightcore/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (empty = defaults and FIGHT_* env)")
	dir := flag.String("dir", "", "move-list directory (overrides engine.content_dir)")
	watch := flag.Bool("watch", false, "keep running and re-validate on every change")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *dir != "" {
		cfg.Engine.ContentDir = *dir
	}

	logger, err := observability.NewLogger(cfg.Logging, "movecheck")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if !*watch {
		start := time.Now()
		chars, err := action.LoadCharacterDir(cfg.Engine.ContentDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid move lists:\n%v\n", err)
			os.Exit(1)
		}
		report(chars)
		fmt.Printf("%d characters ok in %s\n", len(chars), time.Since(start).Round(time.Millisecond))
		return
	}

	w, err := content.NewWatcher(cfg.Engine.ContentDir, cfg.Watch.Debounce, logger, func(r content.Reload) {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "invalid move lists:\n%v\n", r.Err)
			return
		}
		report(r.Characters)
	})
	if err != nil {
		logger.Fatal("starting watcher", zap.Error(err))
	}

	lc := server.NewLifecycle(logger)
	lc.Add("content-watcher", w)
	if err := lc.Run(context.Background()); err != nil {
		logger.Fatal("watcher stopped", zap.Error(err))
	}
}

func report(chars map[string]*action.Character) {
	names := make([]string, 0, len(chars))
	for n := range chars {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		c := chars[n]
		fmt.Printf("%-12s actions=%-3d resources=%v\n", n, c.Catalog.Len(), c.Catalog.Resources())
	}
}
