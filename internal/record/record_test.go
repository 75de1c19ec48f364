package record

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutSizes(t *testing.T) {
	assert.Equal(t, 51, KindCatalog.Layout().Size())
	assert.Equal(t, 86, KindPurchase.Layout().Size())

	start, end := KindPurchase.Layout().KeyBounds()
	assert.Equal(t, 20, start)
	assert.Equal(t, 40, end)
}

func TestEncodeDecodeRecord(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{"catalog", CatalogRecord{ProductID: "P1", JewelleryType: "Ring", Price: "10.00"}},
		{"purchase", PurchaseRecord{OrderID: "O1", ProductID: "P1", Date: "2018-12-01 11:40:29 UTC", UserID: "U1"}},
		{"empty fields", CatalogRecord{}},
		{"padded input", CatalogRecord{ProductID: "  P2  ", JewelleryType: " Earring", Price: "5 "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.rec)
			require.NoError(t, err)
			require.Len(t, encoded, tt.rec.Kind().Layout().Size())
			assert.Equal(t, byte('\n'), encoded[len(encoded)-1])

			decoded, err := Decode(encoded, tt.rec.Kind())
			require.NoError(t, err)

			want, err := FromFields(tt.rec.Kind(), tt.rec.Fields())
			require.NoError(t, err)
			assert.Equal(t, want, decoded)
		})
	}
}

func TestEncodedByteLayout(t *testing.T) {
	encoded, err := Encode(CatalogRecord{ProductID: "P1", JewelleryType: "Ring", Price: "10.00"})
	require.NoError(t, err)

	want := "P1" + strings.Repeat(" ", 18) +
		"Ring" + strings.Repeat(" ", 16) +
		"10.00" + strings.Repeat(" ", 5) + "\n"
	assert.Equal(t, want, string(encoded))
}

func TestEncodeTruncatesLongFields(t *testing.T) {
	long := strings.Repeat("x", 30)
	encoded, err := Encode(CatalogRecord{ProductID: long, JewelleryType: "Ring", Price: "123456789012"})
	require.NoError(t, err)
	require.Len(t, encoded, 51)

	decoded, err := Decode(encoded, KindCatalog)
	require.NoError(t, err)

	c := decoded.(CatalogRecord)
	assert.Equal(t, long[:20], c.ProductID)
	assert.Equal(t, "1234567890", c.Price)
}

func TestPadKeepsRunesWhole(t *testing.T) {
	// 19 ASCII bytes followed by a 2-byte rune straddling the width.
	s := strings.Repeat("a", 19) + "é"
	padded := Pad(s, 20)

	assert.Len(t, padded, 20)
	assert.Equal(t, strings.Repeat("a", 19)+" ", padded)
}

func TestDecodeErrorsOnTruncatedData(t *testing.T) {
	encoded, err := Encode(PurchaseRecord{OrderID: "O1", ProductID: "P1", Date: "d", UserID: "U1"})
	require.NoError(t, err)

	for i := 0; i < len(encoded); i++ {
		_, err := Decode(encoded[:i], KindPurchase)
		require.ErrorIs(t, err, ErrShortRead, "length %d", i)
	}
}

func TestFromFieldsRejectsWrongCount(t *testing.T) {
	_, err := FromFields(KindCatalog, []string{"P1", "Ring"})
	assert.ErrorIs(t, err, ErrFieldCount)

	_, err = FromFields(Kind(9), nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Catalog")
	require.NoError(t, err)
	assert.Equal(t, KindCatalog, k)

	k, err = ParseKind("purchases")
	require.NoError(t, err)
	assert.Equal(t, KindPurchase, k)

	_, err = ParseKind("widgets")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParsePrice(t *testing.T) {
	p, err := CatalogRecord{Price: "10.50"}.ParsePrice()
	require.NoError(t, err)
	assert.Equal(t, 10.5, p)

	for _, bad := range []string{"", "abc", "NaN", "Inf", "1,5"} {
		_, err := CatalogRecord{Price: bad}.ParsePrice()
		assert.Error(t, err, bad)
	}
}

func TestReaderStopsAtPartialRecord(t *testing.T) {
	var buf bytes.Buffer
	recs := []Record{
		CatalogRecord{ProductID: "A", JewelleryType: "Ring", Price: "1"},
		CatalogRecord{ProductID: "B", JewelleryType: "Ring", Price: "2"},
	}
	require.NoError(t, WriteAll(&buf, recs))
	buf.WriteString("C   partial")

	rd := NewReader(&buf, KindCatalog.Layout())

	rec, off, err := rd.Next()
	require.NoError(t, err)
	assert.Equal(t, "A", rec.Key())
	assert.Equal(t, int64(0), off)

	rec, off, err = rd.Next()
	require.NoError(t, err)
	assert.Equal(t, "B", rec.Key())
	assert.Equal(t, int64(51), off)

	_, _, err = rd.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestReadAllEmpty(t *testing.T) {
	recs, err := ReadAll(bytes.NewReader(nil), KindPurchase.Layout())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestBlank(t *testing.T) {
	assert.True(t, Blank(CatalogRecord{ProductID: "  "}))
	assert.False(t, Blank(PurchaseRecord{UserID: "U1"}))
}
