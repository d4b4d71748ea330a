package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/waikato-ufdl/simple-teams/internal/config"
	"github.com/waikato-ufdl/simple-teams/internal/database"
)

// ConnectForTests returns a migrated connection to a private in-memory
// database that lives as long as the test.
func ConnectForTests(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.Config{
		DatabaseType:  "sqlite",
		DatabaseURL:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		SlowThreshold: 0,
	}

	conn, err := database.Open(cfg)
	require.NoError(t, err, "Failed to open in-memory database.")

	rawConn, err := conn.DB()
	require.NoError(t, err)
	// The in-memory database disappears with its last connection.
	rawConn.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(conn))

	t.Cleanup(func() {
		require.NoError(t, rawConn.Close(), "must close database connection")
	})

	return conn
}
