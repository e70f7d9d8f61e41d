package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("MAIL_DRIVER", "log")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, MailDriverLog, cfg.Mail.Driver)
	assert.Equal(t, 5*time.Minute, cfg.OTPSweepInterval)
	assert.Equal(t, 10*time.Minute, cfg.VerificationTokenTTL)
	assert.Equal(t, int64(0), cfg.RateLimitLimit)
	assert.NotEmpty(t, cfg.VerificationSecret)
	assert.NotEmpty(t, cfg.AllowedOrigins)
}

func TestLoad_UnknownStorageDriver(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "firestore")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("VERIFICATION_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VERIFICATION_SECRET")
}

func TestLoad_EmailJSRequiresCredentials(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("MAIL_DRIVER", "emailjs")
	t.Setenv("EMAILJS_SERVICE_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMAILJS")
}

func TestLoad_SplitsOrigins(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("MAIL_DRIVER", "log")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://katipudroid.app, https://www.katipudroid.app")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://katipudroid.app", "https://www.katipudroid.app"}, cfg.AllowedOrigins)
}

func TestGetDatabaseURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "kat")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "feedback")

	assert.Equal(t, "postgres://kat:p%40ss@db:5432/feedback?sslmode=disable", getDatabaseURL())
}
