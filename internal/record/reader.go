package record

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// Reader walks a data file one fixed-width record at a time.
type Reader struct {
	r      *bufio.Reader
	layout Layout
	buf    []byte
	offset int64
}

func NewReader(r io.Reader, layout Layout) *Reader {
	return &Reader{
		r:      bufio.NewReader(r),
		layout: layout,
		buf:    make([]byte, layout.Size()),
	}
}

// Next returns the next record and the byte offset it started at. A
// trailing fragment shorter than one record is treated as end of stream.
func (rd *Reader) Next() (Record, int64, error) {
	raw, offset, err := rd.NextRaw()
	if err != nil {
		return nil, 0, err
	}

	fields, err := rd.layout.Decode(raw)
	if err != nil {
		return nil, 0, err
	}

	rec, err := FromFields(rd.layout.Kind, fields)
	if err != nil {
		return nil, 0, err
	}

	return rec, offset, nil
}

// NextRaw returns the undecoded bytes of the next record. The slice is
// reused by the following call.
func (rd *Reader) NextRaw() ([]byte, int64, error) {
	_, err := io.ReadFull(rd.r, rd.buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, 0, io.EOF
		}
		return nil, 0, err
	}

	offset := rd.offset
	rd.offset += int64(len(rd.buf))

	return rd.buf, offset, nil
}

// ReadAll decodes every complete record in r.
func ReadAll(r io.Reader, layout Layout) ([]Record, error) {
	rd := NewReader(r, layout)
	var records []Record

	for {
		rec, _, err := rd.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, err
		}
		records = append(records, rec)
	}
}

// ReadFile decodes every record in the file at path. The error wraps
// os.ErrNotExist when the file is missing.
func ReadFile(path string, layout Layout) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadAll(f, layout)
}

// WriteAll encodes records into w in the given order.
func WriteAll(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)

	for _, rec := range records {
		encoded, err := Encode(rec)
		if err != nil {
			return err
		}
		if _, err := bw.Write(encoded); err != nil {
			return err
		}
	}

	return bw.Flush()
}
