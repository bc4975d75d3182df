package kv

import (
	"context"

	"github.com/dmitrijs2005/webkech/internal/common"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = common.ErrorNotFound

// Entry is one key/value pair of a batch write.
type Entry struct {
	Key   string
	Value []byte
}

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	SetBatch(ctx context.Context, entries ...Entry) error
	Close() error
}
