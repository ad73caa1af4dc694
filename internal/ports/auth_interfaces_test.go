package ports_test

import (
	"testing"

	"github.com/komunitas-inovasi/komunitas/internal/adapters/redis"
	mocks "github.com/komunitas-inovasi/komunitas/internal/mocks/auth"
	"github.com/komunitas-inovasi/komunitas/internal/ports"
)

// This test only verifies that the session stores conform to the port at compile time.
func TestSessionStoresImplementPort(t *testing.T) {
	t.Helper()

	var _ ports.SessionStore = (*mocks.MemorySessionStore)(nil)
	var _ ports.SessionStore = (*redis.SessionStore)(nil)
}
