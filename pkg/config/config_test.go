package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullDocument(t *testing.T) {
	t.Setenv("TEST_JWKS_URL", "https://auth.example.com/.well-known/jwks.json")

	cfg, err := Parse([]byte(`
server:
  port: 9090
  auth:
    enabled: true
    jwks_url: ${TEST_JWKS_URL}
    issuer: https://auth.example.com
    audience: agora-api
databases:
  default:
    driver: sqlite
    database: ./agora.db
quota:
  daily_limit: 25
  backend: sql
  database:
    driver: sqlite
    database: ./agora.db
forum:
  backend: sql
  database: default
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://auth.example.com/.well-known/jwks.json", cfg.Server.Auth.JWKSURL)
	assert.True(t, cfg.Server.Auth.IsEnabled())
	assert.Equal(t, int64(25), cfg.Quota.Limit())
	assert.Equal(t, "sql", cfg.Quota.Backend)
	assert.Equal(t, "default", cfg.Forum.Database)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Quota.IsEnabled())
	assert.Equal(t, int64(50), cfg.Quota.Limit())
	assert.Equal(t, "memory", cfg.Quota.Backend)
	assert.Equal(t, time.Hour, cfg.Quota.SweepInterval)
	assert.Equal(t, "inmemory", cfg.Forum.Backend)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestParse_QuotaDefaultLimit(t *testing.T) {
	cfg, err := Parse([]byte(`
quota:
  enabled: true
`))
	require.NoError(t, err)
	assert.Equal(t, int64(50), cfg.Quota.Limit())
}

func TestParse_QuotaExplicitZeroLimit(t *testing.T) {
	cfg, err := Parse([]byte(`
quota:
  enabled: true
  daily_limit: 0
`))
	require.NoError(t, err)

	// Zero is a legal configured value meaning no requests are ever
	// allowed; it must not be rewritten to the default.
	require.NotNil(t, cfg.Quota.DailyLimit)
	assert.Equal(t, int64(0), cfg.Quota.Limit())
	assert.True(t, cfg.Quota.IsEnabled())
}

func TestParse_InvalidQuotaBackend(t *testing.T) {
	_, err := Parse([]byte(`
quota:
  backend: redis
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend")
}

func TestParse_AuthRequiresFields(t *testing.T) {
	_, err := Parse([]byte(`
server:
  auth:
    enabled: true
    jwks_url: https://auth.example.com/jwks
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issuer is required")
}

func TestParse_ForumDatabaseReference(t *testing.T) {
	_, err := Parse([]byte(`
forum:
  backend: sql
  database: missing
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `database "missing" not found`)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("AGORA_TEST_VALUE", "hello")

	assert.Equal(t, "hello", ExpandEnvVars("${AGORA_TEST_VALUE}"))
	assert.Equal(t, "hello", ExpandEnvVars("${AGORA_TEST_UNSET:-hello}"))
	assert.Equal(t, "", ExpandEnvVars("${AGORA_TEST_UNSET}"))
	assert.Equal(t, "plain", ExpandEnvVars("plain"))
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := &DatabaseConfig{
		Driver: "postgres", Host: "db.internal", Database: "agora",
		Username: "svc", Password: "secret",
	}
	pg.SetDefaults()
	assert.Equal(t,
		"host=db.internal port=5432 dbname=agora user=svc password=secret sslmode=disable",
		pg.DSN())

	my := &DatabaseConfig{
		Driver: "mysql", Host: "db.internal", Database: "agora", Username: "svc",
	}
	my.SetDefaults()
	assert.Equal(t, "svc:@tcp(db.internal:3306)/agora?parseTime=true", my.DSN())

	lite := &DatabaseConfig{Driver: "sqlite", Database: "./agora.db"}
	assert.Equal(t, "./agora.db", lite.DSN())
	assert.Equal(t, "sqlite3", lite.DriverName())
	assert.Equal(t, "sqlite", lite.Dialect())
}
