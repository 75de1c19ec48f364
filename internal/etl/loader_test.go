package etl

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
)

const sample = `Date,OrderID,ProductID,Quantity,CategoryID,JewelleryType,BrandID,Price,UserID,Gender,BoxColour,Metal,Gem
2018-12-01 11:40:29 UTC,O3,P2,1,C1,Earring,B1,5.00,U2,f,red,gold,diamond
2018-12-01 17:38:31 UTC,O1,P1,1,C1,Ring,B1,10.00,U1,f,red,gold,
2018-12-02 13:53:42 UTC,O4,,1,C1,Ring,B1,10.00,U1,f,red,gold,diamond
2018-12-02 17:44:02 UTC,O5,P3,1,C1,Pendant,B1,7.00,U3,f,red,gold
2018-12-02 21:30:19 UTC,O2,P1,1,C1,Ring,B1,10.00,U3,m,white,silver,ruby
`

func TestLoadDropsIncompleteRowsAndSorts(t *testing.T) {
	var catalog, purchases bytes.Buffer

	res, err := Load(strings.NewReader(sample), &catalog, &purchases, Options{SkipHeader: true, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	assert.Equal(t, Result{Rows: 5, Dropped: 2, Catalog: 3, Purchases: 3}, res)

	cat, err := record.ReadAll(&catalog, record.KindCatalog.Layout())
	require.NoError(t, err)
	require.Len(t, cat, 3)
	assert.Equal(t, []string{"P1", "P1", "P2"}, keys(cat))
	assert.Equal(t, record.CatalogRecord{ProductID: "P2", JewelleryType: "Earring", Price: "5.00"}, cat[2])

	buys, err := record.ReadAll(&purchases, record.KindPurchase.Layout())
	require.NoError(t, err)
	require.Len(t, buys, 3)
	assert.Equal(t, []string{"P1", "P1", "P2"}, keys(buys))

	// Equal keys keep file order.
	assert.Equal(t, "O1", buys[0].(record.PurchaseRecord).OrderID)
	assert.Equal(t, "O2", buys[1].(record.PurchaseRecord).OrderID)
	assert.Equal(t, "2018-12-01 11:40:29 UTC", buys[2].(record.PurchaseRecord).Date)
}

func TestLoadWithoutHeaderSkip(t *testing.T) {
	var catalog, purchases bytes.Buffer

	// The header row is complete, so it survives when not skipped.
	res, err := Load(strings.NewReader(sample), &catalog, &purchases, Options{})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Rows)
	assert.Equal(t, 4, res.Catalog)
}

func TestLoadDedupeCatalog(t *testing.T) {
	var catalog, purchases bytes.Buffer

	res, err := Load(strings.NewReader(sample), &catalog, &purchases, Options{SkipHeader: true, DedupeCatalog: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Catalog)
	assert.Equal(t, 3, res.Purchases)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "jewelry.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sample), 0o644))

	catalogPath := filepath.Join(dir, "catalog.dat")
	purchasePath := filepath.Join(dir, "purchases.dat")

	res, err := LoadFile(csvPath, catalogPath, purchasePath, Options{SkipHeader: true})
	require.NoError(t, err)

	info, err := os.Stat(catalogPath)
	require.NoError(t, err)
	assert.Equal(t, int64(res.Catalog*record.KindCatalog.Layout().Size()), info.Size())

	info, err = os.Stat(purchasePath)
	require.NoError(t, err)
	assert.Equal(t, int64(res.Purchases*record.KindPurchase.Layout().Size()), info.Size())

	_, err = LoadFile(filepath.Join(dir, "missing.csv"), catalogPath, purchasePath, Options{})
	assert.Error(t, err)
}

func keys(recs []record.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Key()
	}
	return out
}
