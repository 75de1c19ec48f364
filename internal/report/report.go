// Package report answers the cross-file questions asked of a catalog and
// its purchase log. Every query is a fresh full scan of both files; the
// sparse indexes are not used.
//
// Ties are broken deterministically: the candidate encountered first during
// the traversal wins.
package report

import (
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
)

var ErrNoData = errors.New("report: no data")

// TypeCount is the answer to "which jewellery type sells most".
type TypeCount struct {
	Type  string `json:"jewellery_type"`
	Count int    `json:"sales"`
}

// ProductPrice is the answer to "which product is the most expensive".
type ProductPrice struct {
	ProductID     string  `json:"product_id"`
	JewelleryType string  `json:"jewellery_type"`
	Price         float64 `json:"price"`
}

// UserSpend is the answer to "which user spent the most".
type UserSpend struct {
	UserID string  `json:"user_id"`
	Total  float64 `json:"total"`
}

type Aggregator struct {
	CatalogPath  string
	PurchasePath string

	logger *zap.Logger
}

func New(catalogPath, purchasePath string, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		CatalogPath:  catalogPath,
		PurchasePath: purchasePath,
		logger:       logger,
	}
}

// MostSoldType counts purchases per jewellery type, resolving each purchase
// through the catalog. Purchases of unknown products are skipped.
func (a *Aggregator) MostSoldType() (TypeCount, error) {
	catalog, purchases, err := a.load()
	if err != nil {
		return TypeCount{}, err
	}

	typeOf := make(map[string]string, len(catalog))
	for _, c := range catalog {
		typeOf[c.ProductID] = c.JewelleryType
	}

	var tally ordered[int]
	for _, p := range purchases {
		t, ok := typeOf[p.ProductID]
		if !ok {
			continue
		}
		tally.add(t, 1)
	}

	name, count, ok := tally.max()
	if !ok {
		return TypeCount{}, ErrNoData
	}

	return TypeCount{Type: name, Count: count}, nil
}

// MostExpensiveProduct returns the catalog entry with the highest price.
// Unparsable prices are skipped and only prices above zero qualify.
func (a *Aggregator) MostExpensiveProduct() (ProductPrice, error) {
	catalog, _, err := a.load()
	if err != nil {
		return ProductPrice{}, err
	}

	var best ProductPrice
	found := false

	for _, c := range catalog {
		price, err := c.ParsePrice()
		if err != nil {
			a.logger.Debug("skipping malformed price", zap.String("product", c.ProductID), zap.String("price", c.Price))
			continue
		}
		if price > best.Price {
			best = ProductPrice{ProductID: c.ProductID, JewelleryType: c.JewelleryType, Price: price}
			found = true
		}
	}

	if !found {
		return ProductPrice{}, ErrNoData
	}
	return best, nil
}

// TopSpender sums the catalog price of every purchase per user.
// Purchases of unknown or unpriced products are skipped.
func (a *Aggregator) TopSpender() (UserSpend, error) {
	catalog, purchases, err := a.load()
	if err != nil {
		return UserSpend{}, err
	}

	priceOf := make(map[string]float64, len(catalog))
	for _, c := range catalog {
		price, err := c.ParsePrice()
		if err != nil {
			continue
		}
		priceOf[c.ProductID] = price
	}

	var spend ordered[float64]
	for _, p := range purchases {
		price, ok := priceOf[p.ProductID]
		if !ok {
			continue
		}
		spend.add(p.UserID, price)
	}

	user, total, ok := spend.max()
	if !ok {
		return UserSpend{}, ErrNoData
	}

	return UserSpend{UserID: user, Total: total}, nil
}

// load reads both files. A missing file of either kind means there is
// nothing to report.
func (a *Aggregator) load() ([]record.CatalogRecord, []record.PurchaseRecord, error) {
	rawCatalog, err := readKind(a.CatalogPath, record.KindCatalog)
	if err != nil {
		return nil, nil, err
	}
	rawPurchases, err := readKind(a.PurchasePath, record.KindPurchase)
	if err != nil {
		return nil, nil, err
	}

	catalog := make([]record.CatalogRecord, 0, len(rawCatalog))
	for _, r := range rawCatalog {
		if c, ok := r.(record.CatalogRecord); ok && !record.Blank(c) {
			catalog = append(catalog, c)
		}
	}

	purchases := make([]record.PurchaseRecord, 0, len(rawPurchases))
	for _, r := range rawPurchases {
		if p, ok := r.(record.PurchaseRecord); ok && !record.Blank(p) {
			purchases = append(purchases, p)
		}
	}

	a.logger.Debug("report inputs loaded", zap.Int("catalog", len(catalog)), zap.Int("purchases", len(purchases)))
	return catalog, purchases, nil
}

func readKind(path string, kind record.Kind) ([]record.Record, error) {
	records, err := record.ReadFile(path, kind.Layout())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoData
		}
		return nil, err
	}
	return records, nil
}

// ordered accumulates per-key totals while remembering the order keys were
// first seen in, so max can break ties without relying on map iteration.
type ordered[V int | float64] struct {
	totals map[string]V
	keys   []string
}

func (o *ordered[V]) add(key string, v V) {
	if o.totals == nil {
		o.totals = make(map[string]V)
	}
	if _, seen := o.totals[key]; !seen {
		o.keys = append(o.keys, key)
	}
	o.totals[key] += v
}

func (o *ordered[V]) max() (string, V, bool) {
	var (
		bestKey string
		best    V
	)
	for i, k := range o.keys {
		if v := o.totals[k]; i == 0 || v > best {
			bestKey, best = k, v
		}
	}
	return bestKey, best, len(o.keys) > 0
}
