package core_test

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xRadioAc7iv/go-jewelstore/core"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/index"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
)

func newCatalogStore(t *testing.T, opts ...core.StoreOption) *core.Store {
	t.Helper()

	dir := t.TempDir()
	opts = append(opts, core.WithLogger(zaptest.NewLogger(t)))
	return core.NewStore(filepath.Join(dir, "catalog.dat"), filepath.Join(dir, "catalog.idx"), record.KindCatalog, opts...)
}

func product(id string) record.CatalogRecord {
	return record.CatalogRecord{ProductID: id, JewelleryType: "Ring", Price: "1.00"}
}

func keysOf(t *testing.T, s *core.Store) []string {
	t.Helper()

	recs, err := s.All()
	require.NoError(t, err)

	keys := make([]string, len(recs))
	for i, r := range recs {
		keys[i] = r.Key()
	}
	return keys
}

func TestStoreInsertKeepsFileSorted(t *testing.T) {
	s := newCatalogStore(t)

	ids := make([]string, 60)
	for i := range ids {
		ids[i] = fmt.Sprintf("P%02d", i)
	}
	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	for i, id := range ids {
		require.NoError(t, s.Insert(product(id)))

		count, err := s.Count()
		require.NoError(t, err)
		assert.Equal(t, i+1, count)

		keys := keysOf(t, s)
		assert.True(t, slices.IsSorted(keys), "not sorted after inserting %s: %v", id, keys)
	}

	for _, id := range ids {
		rec, err := s.Lookup(id)
		require.NoError(t, err, id)
		assert.Equal(t, id, rec.Key())
	}

	_, err := s.Lookup("P99")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.Lookup("A")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStoreKeysAreLexicographic(t *testing.T) {
	s := newCatalogStore(t)

	for _, id := range []string{"9", "10", "100", "2"} {
		require.NoError(t, s.Insert(product(id)))
	}

	assert.Equal(t, []string{"10", "100", "2", "9"}, keysOf(t, s))
}

func TestStoreDuplicatesKeepInsertionOrder(t *testing.T) {
	s := newCatalogStore(t)

	require.NoError(t, s.Insert(record.CatalogRecord{ProductID: "P1", JewelleryType: "Ring", Price: "1"}))
	require.NoError(t, s.Insert(record.CatalogRecord{ProductID: "P0", JewelleryType: "Ring", Price: "3"}))
	require.NoError(t, s.Insert(record.CatalogRecord{ProductID: "P1", JewelleryType: "Earring", Price: "2"}))

	recs, err := s.All()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "P0", recs[0].Key())
	assert.Equal(t, "Ring", recs[1].(record.CatalogRecord).JewelleryType)
	assert.Equal(t, "Earring", recs[2].(record.CatalogRecord).JewelleryType)

	rec, err := s.Lookup("P1")
	require.NoError(t, err)
	assert.Equal(t, "Ring", rec.(record.CatalogRecord).JewelleryType)
}

func TestStoreDuplicateRunAcrossIndexSample(t *testing.T) {
	s := newCatalogStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Insert(product(fmt.Sprintf("A%d", i))))
	}
	for i := 0; i < 11; i++ {
		require.NoError(t, s.Insert(record.CatalogRecord{ProductID: "K", JewelleryType: fmt.Sprintf("dup%02d", i), Price: "1"}))
	}

	// Records 5..15 are all "K"; the second index sample lands on record 10.
	size := int64(record.KindCatalog.Layout().Size())
	entries, err := index.Load(s.IndexPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, index.Stride*size, index.LocateStart(entries, "K"))

	rec, err := s.Lookup("K")
	require.NoError(t, err)
	assert.Equal(t, "dup05", rec.(record.CatalogRecord).JewelleryType)
}

func TestStoreRemoveDropsAllMatches(t *testing.T) {
	s := newCatalogStore(t)

	for _, id := range []string{"A", "B", "B", "C", "B", "D"} {
		require.NoError(t, s.Insert(product(id)))
	}

	removed, err := s.Remove(" B ")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, []string{"A", "C", "D"}, keysOf(t, s))

	_, err = s.Lookup("B")
	assert.ErrorIs(t, err, core.ErrNotFound)

	rec, err := s.Lookup("D")
	require.NoError(t, err)
	assert.Equal(t, "D", rec.Key())
}

func TestStoreRemoveAbsentKeyIsNoop(t *testing.T) {
	s := newCatalogStore(t)
	require.NoError(t, s.Insert(product("A")))

	before, err := os.ReadFile(s.DataPath)
	require.NoError(t, err)

	removed, err := s.Remove("Z")
	require.NoError(t, err)
	assert.Zero(t, removed)

	after, err := os.ReadFile(s.DataPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStoreBlockBoundary(t *testing.T) {
	s := newCatalogStore(t)

	for i := 24; i >= 0; i-- {
		require.NoError(t, s.Insert(product(fmt.Sprintf("K%02d", i))))
	}

	entries, err := index.Load(s.IndexPath)
	require.NoError(t, err)

	size := int64(s.Layout.Size())
	assert.Equal(t, []index.Entry{
		{Key: "K00", Offset: 0},
		{Key: "K10", Offset: 10 * size},
		{Key: "K20", Offset: 20 * size},
	}, entries)

	assert.Equal(t, 10*size, index.LocateStart(entries, "K17"))

	rec, err := s.Lookup("K17")
	require.NoError(t, err)
	assert.Equal(t, "K17", rec.Key())
}

func TestStoreEmpty(t *testing.T) {
	s := newCatalogStore(t)
	require.NoError(t, os.WriteFile(s.DataPath, nil, 0o644))

	require.NoError(t, s.Rebuild())

	entries, err := index.Load(s.IndexPath)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.Lookup("P1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	removed, err := s.Remove("P1")
	require.NoError(t, err)
	assert.Zero(t, removed)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStoreMissingDataFile(t *testing.T) {
	s := newCatalogStore(t)

	err := s.Rebuild()
	assert.ErrorIs(t, err, index.ErrMissingFile)

	_, err = s.Lookup("P1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	removed, err := s.Remove("P1")
	require.NoError(t, err)
	assert.Zero(t, removed)
	_, err = os.Stat(s.DataPath)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.Insert(product("P1")))
	rec, err := s.Lookup("P1")
	require.NoError(t, err)
	assert.Equal(t, "P1", rec.Key())
}

func TestStoreRejectsWrongKind(t *testing.T) {
	s := newCatalogStore(t)

	err := s.Insert(record.PurchaseRecord{OrderID: "O1", ProductID: "P1"})
	assert.ErrorIs(t, err, core.ErrKindMismatch)
}

func TestPurchaseStoreKeyedByProduct(t *testing.T) {
	dir := t.TempDir()
	s := core.NewStore(filepath.Join(dir, "purchases.dat"), filepath.Join(dir, "purchases.idx"), record.KindPurchase)

	require.NoError(t, s.Insert(record.PurchaseRecord{OrderID: "O9", ProductID: "P2", Date: "d", UserID: "U1"}))
	require.NoError(t, s.Insert(record.PurchaseRecord{OrderID: "O1", ProductID: "P3", Date: "d", UserID: "U2"}))
	require.NoError(t, s.Insert(record.PurchaseRecord{OrderID: "O5", ProductID: "P1", Date: "d", UserID: "U3"}))

	assert.Equal(t, []string{"P1", "P2", "P3"}, keysOf(t, s))

	rec, err := s.Lookup("P3")
	require.NoError(t, err)
	assert.Equal(t, "O1", rec.(record.PurchaseRecord).OrderID)

	_, err = s.Lookup("O1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStoreWithIndexCache(t *testing.T) {
	cache, err := index.NewCache(0)
	require.NoError(t, err)
	defer cache.Close()

	s := newCatalogStore(t, core.WithIndexCache(cache))

	for i := 0; i < 30; i++ {
		require.NoError(t, s.Insert(product(fmt.Sprintf("K%02d", i))))
		rec, err := s.Lookup(fmt.Sprintf("K%02d", i))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("K%02d", i), rec.Key())
	}

	_, err = s.Remove("K15")
	require.NoError(t, err)
	_, err = s.Lookup("K15")
	assert.ErrorIs(t, err, core.ErrNotFound)

	rec, err := s.Lookup("K29")
	require.NoError(t, err)
	assert.Equal(t, "K29", rec.Key())
}
