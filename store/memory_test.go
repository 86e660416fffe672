package store_test

import (
	"testing"

	"github.com/netresearch/go-trigger/store"
	"github.com/netresearch/go-trigger/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store {
		return store.NewMemory()
	})
}
