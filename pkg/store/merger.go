package store

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/pebble"
)

// counterMerger sums decimal-encoded int64 operands. It backs the atomic
// increment-with-default on the metadata counter key: each increment is a
// merge of "+delta", and pebble folds the operands together regardless of
// how writes interleave. An absent base value contributes zero.
//
// The merger name is persisted into sstables; do not change it once a store
// has been written.
var counterMerger = &pebble.Merger{
	Name: "messagewall.counter",
	Merge: func(_, value []byte) (pebble.ValueMerger, error) {
		n, err := decodeCount(value)
		if err != nil {
			return nil, err
		}
		return &countSum{sum: n}, nil
	},
}

type countSum struct {
	sum int64
}

func (c *countSum) MergeNewer(value []byte) error {
	n, err := decodeCount(value)
	if err != nil {
		return err
	}
	c.sum += n
	return nil
}

func (c *countSum) MergeOlder(value []byte) error {
	n, err := decodeCount(value)
	if err != nil {
		return err
	}
	c.sum += n
	return nil
}

func (c *countSum) Finish(bool) ([]byte, io.Closer, error) {
	return encodeCount(c.sum), nil, nil
}

func encodeCount(n int64) []byte {
	return strconv.AppendInt(nil, n, 10)
}

func decodeCount(v []byte) (int64, error) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter value %q: %w", v, err)
	}
	return n, nil
}
