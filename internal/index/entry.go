// Package index maintains the sparse (key, offset) index that sits next to
// every data file and uses it to bound lookups to a short forward scan.
//
// The index is derived state. It samples every Stride-th record of a sorted
// data file, is rewritten wholesale after every mutation and can always be
// regenerated from the data file alone.
package index

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
)

// Stride is the sampling interval of the index, and also the maximum number
// of records a lookup reads from the data file.
const Stride = 10

// KeyWidth and OffsetWidth describe one index line:
//
//	<key, space padded to KeyWidth><offset, zero padded to OffsetWidth>\n
const (
	KeyWidth    = record.ProductIDWidth
	OffsetWidth = 10
)

var (
	ErrMissingFile  = errors.New("index: data file does not exist")
	ErrNotFound     = errors.New("index: key not found")
	ErrCorruptEntry = errors.New("index: malformed index entry")
)

// Entry points at the record that starts a block of the data file.
type Entry struct {
	Key    string
	Offset int64
}

// EncodeEntry renders e as one index line.
func EncodeEntry(e Entry) []byte {
	return []byte(fmt.Sprintf("%s%0*d\n", record.Pad(e.Key, KeyWidth), OffsetWidth, e.Offset))
}

// DecodeEntry parses one index line, with or without its newline.
func DecodeEntry(line []byte) (Entry, error) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) < KeyWidth+1 {
		return Entry{}, fmt.Errorf("%w: %q", ErrCorruptEntry, line)
	}

	offset, err := strconv.ParseInt(strings.TrimSpace(string(line[KeyWidth:])), 10, 64)
	if err != nil || offset < 0 {
		return Entry{}, fmt.Errorf("%w: bad offset in %q", ErrCorruptEntry, line)
	}

	return Entry{
		Key:    strings.TrimSpace(string(line[:KeyWidth])),
		Offset: offset,
	}, nil
}

// Load reads the index file at path. A missing index is not an error: it
// yields no entries, which degrades lookups to a scan from offset 0.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}

		e, err := DecodeEntry(scanner.Bytes())
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
