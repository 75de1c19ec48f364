package index

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
)

// Rebuild scans the data file at dataPath and overwrites indexPath with one
// entry for every Stride-th record whose key is non-empty. When the data
// file is missing, ErrMissingFile is returned and any existing index file is
// left as it was.
func Rebuild(dataPath, indexPath string, layout record.Layout) ([]Entry, error) {
	data, err := os.Open(dataPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrMissingFile
		}
		return nil, err
	}
	defer data.Close()

	entries, err := sample(data, layout)
	if err != nil {
		return nil, err
	}

	if err := writeIndex(indexPath, entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func sample(r io.Reader, layout record.Layout) ([]Entry, error) {
	var entries []Entry

	rd := record.NewReader(r, layout)
	for position := 0; ; position++ {
		raw, offset, err := rd.NextRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return nil, err
		}

		if position%Stride != 0 {
			continue
		}

		key, err := layout.DecodeKey(raw)
		if err != nil {
			return nil, err
		}
		if key == "" {
			continue
		}

		entries = append(entries, Entry{Key: key, Offset: offset})
	}
}

func writeIndex(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		if _, err := w.Write(EncodeEntry(e)); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}

	return f.Close()
}
