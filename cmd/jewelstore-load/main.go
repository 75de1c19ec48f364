package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-jewelstore/core"
	"github.com/0xRadioAc7iv/go-jewelstore/internal"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/etl"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/lock"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/utils"
)

// Loads a jewellery sales CSV export into a data directory and builds the
// indexes. The server must not be running on the same directory.
func main() {
	csvPath := flag.String("csv", "jewelry.csv", "CSV export to load")
	configPath := flag.String("config", "", "Path to a jewelstore.yaml config file")
	dir := flag.String("dir", "", "Data directory (overrides config)")
	skipHeader := flag.Bool("header", false, "Skip the first CSV row")
	dedupe := flag.Bool("dedupe", false, "Keep one catalog row per product id")
	flag.Parse()

	cfg, err := internal.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}
	if *dir != "" {
		cfg.DataDir = *dir
	}

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.Development, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Fatal("error creating data directory", zap.Error(err))
	}

	lf, err := lock.LockDirectory(cfg.DataDir)
	if err != nil {
		logger.Fatal("error locking data directory", zap.Error(err))
	}
	defer lock.UnlockDirectory(lf)

	catalogPath := cfg.Path(cfg.CatalogFile)
	purchasePath := cfg.Path(cfg.PurchaseFile)

	res, err := etl.LoadFile(*csvPath, catalogPath, purchasePath, etl.Options{
		SkipHeader:    *skipHeader,
		DedupeCatalog: *dedupe,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("error loading csv", zap.String("csv", *csvPath), zap.Error(err))
	}

	stores := []*core.Store{
		core.NewStore(catalogPath, cfg.Path(cfg.CatalogIndex), record.KindCatalog, core.WithLogger(logger)),
		core.NewStore(purchasePath, cfg.Path(cfg.PurchaseIndex), record.KindPurchase, core.WithLogger(logger)),
	}
	for _, s := range stores {
		if err := s.Rebuild(); err != nil {
			logger.Fatal("error rebuilding index", zap.String("index", s.IndexPath), zap.Error(err))
		}
	}

	fmt.Printf("Loaded %s rows (%s dropped): %s catalog records (%s), %s purchases (%s)\n",
		humanize.Comma(int64(res.Rows)),
		humanize.Comma(int64(res.Dropped)),
		humanize.Comma(int64(res.Catalog)),
		humanize.Bytes(uint64(utils.FileSize(catalogPath))),
		humanize.Comma(int64(res.Purchases)),
		humanize.Bytes(uint64(utils.FileSize(purchasePath))),
	)
}
