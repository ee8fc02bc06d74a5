package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/mafiaserver/config"
)

var (
	_ Database = (*GormPostgreSQL)(nil)
	_ Database = (*PostgreSQL)(nil)
)

func TestOpen_Disabled(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Enabled: false, Driver: "postgres"})
	require.NoError(t, err)
	assert.Nil(t, db)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Enabled: true, Driver: "mongo"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"host=db port=5432 user=mafia password=secret dbname=archive sslmode=disable",
		dsn("db", 5432, "mafia", "secret", "archive"))
}
