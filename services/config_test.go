package services

import (
	"pickplace-backend/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "CORS_ORIGINS", "DB_DRIVER", "MYSQL_HOST", "MYSQL_PORT",
		"ROBOT_LIMITS", "POLL_INTERVAL", "LOG_FLUSH_SIZE", "LOG_FLUSH_INTERVAL", "SQLITE_PATH"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.CORSOrigins)
	assert.Equal(t, DefaultRobotLimits, cfg.RobotLimits)
	assert.Equal(t, 20*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 50, cfg.FlushSize)
	assert.Equal(t, 10*time.Second, cfg.FlushInterval)
	assert.Equal(t, DriverNone, cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.MySQLPort)
	assert.Equal(t, "robot.db", cfg.Database.SQLitePath)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("MYSQL_HOST", "")
	t.Setenv("ROBOT_LIMITS", "500, 400,300")
	t.Setenv("POLL_INTERVAL", "50ms")
	t.Setenv("LOG_FLUSH_SIZE", "10")
	t.Setenv("LOG_FLUSH_INTERVAL", "2s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, models.Vector3{500, 400, 300}, cfg.RobotLimits)
	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10, cfg.FlushSize)
	assert.Equal(t, 2*time.Second, cfg.FlushInterval)
}

func TestLoadConfig_MySQLFromHost(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("MYSQL_HOST", "db.local")
	t.Setenv("MYSQL_PORT", "3307")
	t.Setenv("MYSQL_USER", "robot")
	t.Setenv("MYSQL_PASSWORD", "secret")
	t.Setenv("MYSQL_DATABASE", "pickplace")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "robot:secret@tcp(db.local:3307)/pickplace?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.MySQLDSN())
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"ROBOT_LIMITS":       "1000,1000",
		"POLL_INTERVAL":      "fast",
		"LOG_FLUSH_SIZE":     "-3",
		"LOG_FLUSH_INTERVAL": "0s",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestParseLimits(t *testing.T) {
	limits, err := ParseLimits("1,2.5,3")
	require.NoError(t, err)
	assert.Equal(t, models.Vector3{1, 2.5, 3}, limits)

	_, err = ParseLimits("1,0,3")
	assert.Error(t, err)

	_, err = ParseLimits("1,x,3")
	assert.Error(t, err)
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "sec***", maskPassword("secret"))
	assert.Equal(t, "***", maskPassword("ab"))
}
