package record

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrShortRead   = errors.New("record: buffer shorter than one fixed-width record")
	ErrFieldCount  = errors.New("record: wrong number of fields")
	ErrUnknownKind = errors.New("record: unknown record kind")
)

// Kind identifies which fixed-width layout a data file uses.
type Kind uint8

const (
	KindCatalog Kind = iota + 1
	KindPurchase
)

// Delimiter terminates every encoded record.
const Delimiter = '\n'

// Column widths in bytes.
const (
	ProductIDWidth     = 20
	JewelleryTypeWidth = 20
	PriceWidth         = 10
	OrderIDWidth       = 20
	DateWidth          = 25
	UserIDWidth        = 20
)

// Field is a single fixed-width column.
type Field struct {
	Name  string
	Width int
}

// Layout describes the on-disk shape of one record kind: its columns in
// order and which of them is the sort/index key.
type Layout struct {
	Kind   Kind
	Fields []Field
	Key    int // index into Fields
}

var (
	catalogLayout = Layout{
		Kind: KindCatalog,
		Fields: []Field{
			{Name: "ProductID", Width: ProductIDWidth},
			{Name: "JewelleryType", Width: JewelleryTypeWidth},
			{Name: "Price", Width: PriceWidth},
		},
		Key: 0,
	}

	// Purchases are kept sorted and indexed by ProductID, not OrderID.
	purchaseLayout = Layout{
		Kind: KindPurchase,
		Fields: []Field{
			{Name: "OrderID", Width: OrderIDWidth},
			{Name: "ProductID", Width: ProductIDWidth},
			{Name: "Date", Width: DateWidth},
			{Name: "UserID", Width: UserIDWidth},
		},
		Key: 1,
	}
)

// ParseKind maps a user-facing name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "catalog", "jewel", "jewels", "jewelry", "jewellery":
		return KindCatalog, nil
	case "purchase", "purchases", "order", "orders":
		return KindPurchase, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

func (k Kind) String() string {
	switch k {
	case KindCatalog:
		return "catalog"
	case KindPurchase:
		return "purchase"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Layout returns the width table for k. Unknown kinds yield a zero Layout.
func (k Kind) Layout() Layout {
	switch k {
	case KindCatalog:
		return catalogLayout
	case KindPurchase:
		return purchaseLayout
	default:
		return Layout{}
	}
}

// Size is the fixed byte length of one record, delimiter included.
func (l Layout) Size() int {
	size := 1
	for _, f := range l.Fields {
		size += f.Width
	}
	return size
}

// KeyBounds returns the [start, end) byte range of the key column.
func (l Layout) KeyBounds() (int, int) {
	start := 0
	for i := 0; i < l.Key; i++ {
		start += l.Fields[i].Width
	}
	return start, start + l.Fields[l.Key].Width
}

// KeyWidth is the width of the key column.
func (l Layout) KeyWidth() int {
	return l.Fields[l.Key].Width
}

// Encode lays out fields in column order, each trimmed, truncated and
// space-padded to its width, followed by the delimiter.
func (l Layout) Encode(fields []string) ([]byte, error) {
	if len(fields) != len(l.Fields) {
		return nil, fmt.Errorf("%w: %s wants %d, got %d", ErrFieldCount, l.Kind, len(l.Fields), len(fields))
	}

	buf := make([]byte, 0, l.Size())
	for i, f := range l.Fields {
		buf = append(buf, Pad(fields[i], f.Width)...)
	}
	buf = append(buf, Delimiter)

	return buf, nil
}

// Decode slices data at the column boundaries and trims every field.
func (l Layout) Decode(data []byte) ([]string, error) {
	if len(data) < l.Size() {
		return nil, ErrShortRead
	}

	fields := make([]string, len(l.Fields))
	pos := 0
	for i, f := range l.Fields {
		fields[i] = string(bytes.TrimSpace(data[pos : pos+f.Width]))
		pos += f.Width
	}

	return fields, nil
}

// DecodeKey extracts only the trimmed key column from data.
func (l Layout) DecodeKey(data []byte) (string, error) {
	if len(data) < l.Size() {
		return "", ErrShortRead
	}
	start, end := l.KeyBounds()
	return string(bytes.TrimSpace(data[start:end])), nil
}

// Pad trims s and fits it to exactly width bytes. Truncation backs off to a
// rune boundary so multi-byte characters are never split.
func Pad(s string, width int) string {
	s = strings.TrimSpace(s)
	if len(s) > width {
		cut := width
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s + strings.Repeat(" ", width-len(s))
}
