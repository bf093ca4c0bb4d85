package localstore

import "context"

// Namespaces for the blobs the ledger persists locally
const (
	NamespaceSlots   = "slots"
	NamespaceGuest   = "guest"
	NamespaceBests   = "bests"
	NamespaceRecords = "records"
	NamespaceQueue   = "queue"
)

// Store is the local durable key -> JSON blob store. Blobs survive process
// restarts. Get returns model.ErrNotFound when the key has never been written.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Put(ctx context.Context, namespace, key string, data []byte) error
	Delete(ctx context.Context, namespace, key string) error
}
