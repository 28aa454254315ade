package outbox

import (
	"testing"

	"innercircle/internal/adapters/storage/storagetest"
)

// TestPostgresStore runs the outbox store contract against a live database.
func TestPostgresStore(t *testing.T) {
	exerciseStore(t, NewPostgresStore(storagetest.OpenPostgres(t)))
}
