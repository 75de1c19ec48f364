package index

import (
	"errors"
	"io"
	"os"

	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
)

// LocateStart returns the offset a forward scan for key should begin at.
//
// An exact hit returns that entry's offset (the leftmost one when several
// index entries share the key). Otherwise it is the offset of the greatest
// indexed key strictly below key, or 0 when there is none. entries must be
// in ascending key order, which holds as long as the data file is sorted.
func LocateStart(entries []Entry, key string) int64 {
	lo, hi := 0, len(entries)-1
	var start int64

	for lo <= hi {
		mid := (lo + hi) / 2

		switch k := entries[mid].Key; {
		case k == key:
			for mid > 0 && entries[mid-1].Key == key {
				mid--
			}
			return entries[mid].Offset
		case k < key:
			start = entries[mid].Offset
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}

	return start
}

// Scan reads at most Stride records of the data file starting at start and
// returns the first one whose key equals key. Because the file is sorted the
// scan gives up as soon as it passes key. ErrNotFound covers both a miss and
// a missing data file.
func Scan(dataPath string, layout record.Layout, key string, start int64) (record.Record, error) {
	syncBestEffort(dataPath)

	f, err := os.Open(dataPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, err
	}

	rd := record.NewReader(f, layout)
	for i := 0; i < Stride; i++ {
		rec, _, err := rd.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		got := rec.Key()
		if got == key {
			return rec, nil
		}
		if got > key {
			break
		}
	}

	return nil, ErrNotFound
}

// syncBestEffort flushes the data file to stable storage so a mutation that
// just completed in this process is visible to the read that follows.
// Failures (read-only media, missing file) are ignored.
func syncBestEffort(path string) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return
	}
	_ = f.Sync()
	_ = f.Close()
}
