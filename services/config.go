package services

import (
	"fmt"
	"os"
	"pickplace-backend/models"
	"strconv"
	"strings"
	"time"
)

// DB 드라이버
const (
	DriverNone   = "none"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config - 서버 설정 (.env / 환경 변수)
type Config struct {
	Port          string
	CORSOrigins   string
	RobotLimits   models.Vector3
	PollInterval  time.Duration // 픽앤플레이스 작업 폴링 주기
	FlushSize     int
	FlushInterval time.Duration
	Database      DatabaseConfig
}

// DatabaseConfig - 로그 저장소 설정
type DatabaseConfig struct {
	Driver        string
	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string
	SQLitePath    string
}

// MySQLDSN - MySQL 접속 문자열
func (c DatabaseConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLDatabase)
}

// LoadConfig - 환경 변수에서 설정 읽기 (godotenv.Load 이후 호출)
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8000"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:3000"),
		RobotLimits:   DefaultRobotLimits,
		PollInterval:  20 * time.Millisecond,
		FlushSize:     50,
		FlushInterval: 10 * time.Second,
		Database: DatabaseConfig{
			MySQLHost:     os.Getenv("MYSQL_HOST"),
			MySQLPort:     3306,
			MySQLUser:     os.Getenv("MYSQL_USER"),
			MySQLPassword: os.Getenv("MYSQL_PASSWORD"),
			MySQLDatabase: os.Getenv("MYSQL_DATABASE"),
			SQLitePath:    getEnv("SQLITE_PATH", "robot.db"),
		},
	}

	if port, err := strconv.Atoi(os.Getenv("MYSQL_PORT")); err == nil && port > 0 {
		cfg.Database.MySQLPort = port
	}

	// DB_DRIVER가 없으면 MySQL 환경 변수 유무로 결정
	cfg.Database.Driver = strings.ToLower(os.Getenv("DB_DRIVER"))
	if cfg.Database.Driver == "" {
		if cfg.Database.MySQLHost != "" {
			cfg.Database.Driver = DriverMySQL
		} else {
			cfg.Database.Driver = DriverNone
		}
	}

	if raw := os.Getenv("ROBOT_LIMITS"); raw != "" {
		limits, err := ParseLimits(raw)
		if err != nil {
			return cfg, err
		}
		cfg.RobotLimits = limits
	}

	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("POLL_INTERVAL 형식 오류: %q", raw)
		}
		cfg.PollInterval = d
	}

	if raw := os.Getenv("LOG_FLUSH_SIZE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("LOG_FLUSH_SIZE 형식 오류: %q", raw)
		}
		cfg.FlushSize = n
	}

	if raw := os.Getenv("LOG_FLUSH_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("LOG_FLUSH_INTERVAL 형식 오류: %q", raw)
		}
		cfg.FlushInterval = d
	}

	return cfg, nil
}

// ParseLimits - "1000,1000,1000" 형식의 축 범위 파싱 (모두 양수)
func ParseLimits(raw string) (models.Vector3, error) {
	var limits models.Vector3
	parts := strings.Split(raw, ",")
	if len(parts) != len(limits) {
		return limits, fmt.Errorf("ROBOT_LIMITS는 3개의 값이어야 합니다: %q", raw)
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || !(v > 0) {
			return limits, fmt.Errorf("ROBOT_LIMITS 축 %d 값 오류: %q", i, p)
		}
		limits[i] = v
	}
	return limits, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
