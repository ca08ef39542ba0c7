package partition

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// Count is the fixed number of logical partitions.
// Lock stripes and dispatcher lanes are sized by it.
const Count = 256

// For returns the partition for a key.
// Stable and deterministic: the same key always maps to the same partition.
// Uses FNV-32a (stdlib, fast, well-distributed).
func For(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % Count)
}

// ForID returns the partition for an aggregate id, hashing its raw 16 bytes.
func ForID(id uuid.UUID) int {
	h := fnv.New32a()
	h.Write(id[:])
	return int(h.Sum32() % Count)
}
