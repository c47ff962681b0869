package postgres

import (
	"testing"
	"time"

	"todolist/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig_PasswordWithSpecialCharacters(t *testing.T) {
	password := `p@ss w'rd:/?#"x`
	pcfg, err := PoolConfig(config.DatabaseConfig{
		DBHost:     "db.internal",
		DBPort:     "6543",
		DBName:     "todolist",
		DBUser:     "app",
		DBPassword: password,
		DBSSLMode:  "disable",
	})
	require.NoError(t, err)

	cc := pcfg.ConnConfig
	assert.Equal(t, password, cc.Password)
	assert.Equal(t, "app", cc.User)
	assert.Equal(t, "db.internal", cc.Host)
	assert.EqualValues(t, 6543, cc.Port)
	assert.Equal(t, "todolist", cc.Database)
	assert.Nil(t, cc.TLSConfig)
}

func TestPoolConfig_AppliesPoolLimits(t *testing.T) {
	pcfg, err := PoolConfig(config.DatabaseConfig{
		DBHost:              "localhost",
		DBPort:              "5432",
		DBName:              "todolist",
		DBUser:              "app",
		DBSSLMode:           "disable",
		ConnectTimeout:      3 * time.Second,
		PoolMaxConns:        7,
		PoolMinConns:        2,
		PoolMaxConnLifetime: time.Hour,
	})
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, pcfg.ConnConfig.ConnectTimeout)
	assert.EqualValues(t, 7, pcfg.MaxConns)
	assert.EqualValues(t, 2, pcfg.MinConns)
	assert.Equal(t, time.Hour, pcfg.MaxConnLifetime)
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{DBHost: "localhost", DBPort: "5432", DBName: "todolist", DBUser: "app", DBSSLMode: "require"})
	assert.Equal(t, "postgres://app@localhost:5432/todolist?sslmode=require", dsn)
}
