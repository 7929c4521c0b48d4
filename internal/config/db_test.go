package config

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	err = AutoMigrate(context.Background(), mock, zerolog.Nop())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoMigrate_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = AutoMigrate(context.Background(), mock, zerolog.Nop())

	assert.ErrorContains(t, err, "unable to apply migrations")
	assert.ErrorContains(t, err, "permission denied")
}

func TestConnectDB_GivesUpWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DBConfig{Host: "127.0.0.1", Port: "1", User: "x", Name: "x", SSLMode: "disable", MaxRetries: 3}
	_, err := ConnectDB(ctx, cfg, zerolog.Nop())

	assert.Error(t, err)
}
