// Package testkit holds helpers shared by the package tests: a migrated
// in-memory database, a recording mailer and a cookie-keeping browser for
// end-to-end flows.
package testkit

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	_ "github.com/shashiranjanraj/carby/database/migrations" // registers schema
	"github.com/shashiranjanraj/carby/database/seeders"
	"github.com/shashiranjanraj/carby/pkg/database"
	"github.com/shashiranjanraj/carby/pkg/migration"
)

var dbSeq atomic.Int64

// DB returns a fresh in-memory sqlite database with every migration applied.
// Each call gets its own database.
func DB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, dbSeq.Add(1))

	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection serialises the request goroutine and queue workers;
	// shared-cache sqlite reports "table is locked" instead of waiting.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, migration.New(db, io.Discard).Run())
	return db
}

// SeededDB is DB plus the catalog seed data.
func SeededDB(t testing.TB) *gorm.DB {
	t.Helper()
	db := DB(t)
	require.NoError(t, seeders.RunAll(db, io.Discard))
	return db
}
