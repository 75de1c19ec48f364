// Package etl turns the raw jewellery sales CSV export into the two sorted
// fixed-width data files the store works on.
package etl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
)

// Column positions in the export.
const (
	colDate = iota
	colOrderID
	colProductID
	colQuantity
	colCategoryID
	colJewelleryType
	colBrandID
	colPrice
	colUserID
	colGender
	colBoxColour
	colMetal
	colGem

	NumColumns
)

var required = []int{colProductID, colJewelleryType, colPrice, colOrderID, colDate, colUserID}

type Options struct {
	// SkipHeader drops the first row unconditionally.
	SkipHeader bool
	// DedupeCatalog keeps only the first catalog row per product id.
	DedupeCatalog bool
	Logger        *zap.Logger
}

// Result summarizes one load.
type Result struct {
	Rows      int `json:"rows"`
	Dropped   int `json:"dropped"`
	Catalog   int `json:"catalog"`
	Purchases int `json:"purchases"`
}

// Load reads CSV rows from r and writes one catalog and one purchase record
// per complete row. Rows with the wrong number of columns, an empty required
// field, or a CSV syntax error are dropped. Both outputs are stably sorted
// by product id.
func Load(r io.Reader, catalogW, purchaseW io.Writer, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		res       Result
		catalog   []record.Record
		purchases []record.Record
		seen      = map[string]bool{}
		line      int
	)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++

		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return res, err
			}
			res.Rows++
			res.Dropped++
			logger.Debug("dropping malformed row", zap.Int("line", line), zap.Error(err))
			continue
		}

		if line == 1 && opts.SkipHeader {
			continue
		}
		res.Rows++

		if !complete(row) {
			res.Dropped++
			continue
		}

		p := record.PurchaseRecord{
			OrderID:   strings.TrimSpace(row[colOrderID]),
			ProductID: strings.TrimSpace(row[colProductID]),
			Date:      strings.TrimSpace(row[colDate]),
			UserID:    strings.TrimSpace(row[colUserID]),
		}
		purchases = append(purchases, p)

		if opts.DedupeCatalog && seen[p.ProductID] {
			continue
		}
		seen[p.ProductID] = true

		catalog = append(catalog, record.CatalogRecord{
			ProductID:     p.ProductID,
			JewelleryType: strings.TrimSpace(row[colJewelleryType]),
			Price:         strings.TrimSpace(row[colPrice]),
		})
	}

	sortByKey(catalog)
	sortByKey(purchases)

	if err := record.WriteAll(catalogW, catalog); err != nil {
		return res, fmt.Errorf("etl: writing catalog: %w", err)
	}
	if err := record.WriteAll(purchaseW, purchases); err != nil {
		return res, fmt.Errorf("etl: writing purchases: %w", err)
	}

	res.Catalog = len(catalog)
	res.Purchases = len(purchases)

	logger.Info("csv loaded",
		zap.Int("rows", res.Rows),
		zap.Int("dropped", res.Dropped),
		zap.Int("catalog", res.Catalog),
		zap.Int("purchases", res.Purchases),
	)

	return res, nil
}

// LoadFile runs Load from csvPath into freshly truncated data files. The
// sparse indexes are not touched; rebuild them afterwards.
func LoadFile(csvPath, catalogPath, purchasePath string, opts Options) (Result, error) {
	in, err := os.Open(csvPath)
	if err != nil {
		return Result{}, err
	}
	defer in.Close()

	catalogF, err := os.Create(catalogPath)
	if err != nil {
		return Result{}, err
	}
	defer catalogF.Close()

	purchaseF, err := os.Create(purchasePath)
	if err != nil {
		return Result{}, err
	}
	defer purchaseF.Close()

	res, err := Load(in, catalogF, purchaseF, opts)
	if err != nil {
		return res, err
	}

	if err := catalogF.Close(); err != nil {
		return res, err
	}
	return res, purchaseF.Close()
}

func complete(row []string) bool {
	if len(row) != NumColumns {
		return false
	}
	for _, col := range required {
		if strings.TrimSpace(row[col]) == "" {
			return false
		}
	}
	return true
}

func sortByKey(recs []record.Record) {
	slices.SortStableFunc(recs, func(a, b record.Record) int {
		return strings.Compare(a.Key(), b.Key())
	})
}
