package audit

import (
	"testing"

	"innercircle/internal/adapters/storage/storagetest"
)

func TestPostgresStore(t *testing.T) {
	exerciseStore(t, NewPostgresStore(storagetest.OpenPostgres(t)))
}
