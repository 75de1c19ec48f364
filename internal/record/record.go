package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a decoded row of either kind.
type Record interface {
	Kind() Kind
	Key() string
	Fields() []string
}

// CatalogRecord is one product in the catalog file.
type CatalogRecord struct {
	ProductID     string `json:"product_id"`
	JewelleryType string `json:"jewellery_type"`
	Price         string `json:"price"`
}

// PurchaseRecord is one entry of the purchase log. ProductID refers to a
// CatalogRecord but nothing enforces it.
type PurchaseRecord struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Date      string `json:"date"`
	UserID    string `json:"user_id"`
}

func (c CatalogRecord) Kind() Kind   { return KindCatalog }
func (c CatalogRecord) Key() string  { return strings.TrimSpace(c.ProductID) }
func (p PurchaseRecord) Kind() Kind  { return KindPurchase }
func (p PurchaseRecord) Key() string { return strings.TrimSpace(p.ProductID) }

func (c CatalogRecord) Fields() []string {
	return []string{c.ProductID, c.JewelleryType, c.Price}
}

func (p PurchaseRecord) Fields() []string {
	return []string{p.OrderID, p.ProductID, p.Date, p.UserID}
}

// ParsePrice parses the Price column. Non-finite values are rejected along
// with anything strconv cannot read.
func (c CatalogRecord) ParsePrice() (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(c.Price), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("record: non-finite price %q", c.Price)
	}
	return price, nil
}

// Blank reports whether every field of r is empty after trimming.
func Blank(r Record) bool {
	for _, f := range r.Fields() {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// FromFields builds a typed record of the given kind from column values.
func FromFields(kind Kind, fields []string) (Record, error) {
	switch kind {
	case KindCatalog:
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: catalog wants 3, got %d", ErrFieldCount, len(fields))
		}
		return CatalogRecord{
			ProductID:     strings.TrimSpace(fields[0]),
			JewelleryType: strings.TrimSpace(fields[1]),
			Price:         strings.TrimSpace(fields[2]),
		}, nil
	case KindPurchase:
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: purchase wants 4, got %d", ErrFieldCount, len(fields))
		}
		return PurchaseRecord{
			OrderID:   strings.TrimSpace(fields[0]),
			ProductID: strings.TrimSpace(fields[1]),
			Date:      strings.TrimSpace(fields[2]),
			UserID:    strings.TrimSpace(fields[3]),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}

// Encode serializes r into its fixed-width form.
func Encode(r Record) ([]byte, error) {
	layout := r.Kind().Layout()
	if len(layout.Fields) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, r.Kind())
	}
	return layout.Encode(r.Fields())
}

// Decode parses one fixed-width record of the given kind. A buffer shorter
// than the record size yields ErrShortRead.
func Decode(data []byte, kind Kind) (Record, error) {
	layout := kind.Layout()
	if len(layout.Fields) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}

	fields, err := layout.Decode(data)
	if err != nil {
		return nil, err
	}

	return FromFields(kind, fields)
}
