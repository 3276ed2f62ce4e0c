package services

import (
	"errors"
	"fmt"
	"log"
	"pickplace-backend/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 인스턴스 (nil이면 로그는 저장되지 않음)
var db *gorm.DB

// ErrNoDatabase - DB 없이 실행 중일 때 조회 요청
var ErrNoDatabase = errors.New("database not configured")

// InitDatabase - 설정에 따라 MySQL 또는 SQLite 연결
func InitDatabase(cfg DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case DriverNone:
		log.Println("⚠️  DB 미사용: 로봇 로그는 저장되지 않습니다")
		return nil
	case DriverMySQL:
		if cfg.MySQLHost == "" || cfg.MySQLUser == "" || cfg.MySQLPassword == "" || cfg.MySQLDatabase == "" {
			return fmt.Errorf("MySQL 환경 변수가 모두 설정되지 않았습니다: MYSQL_HOST, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE")
		}
		dialector = mysql.Open(cfg.MySQLDSN())
	case DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return fmt.Errorf("지원하지 않는 DB_DRIVER: %q", cfg.Driver)
	}

	conn, err := OpenDatabase(dialector)
	if err != nil {
		return err
	}
	db = conn

	if cfg.Driver == DriverMySQL {
		log.Printf("📡 연결 정보: %s:%s@%s:%d/%s", cfg.MySQLUser, maskPassword(cfg.MySQLPassword), cfg.MySQLHost, cfg.MySQLPort, cfg.MySQLDatabase)
	} else {
		log.Printf("📡 연결 정보: sqlite %s", cfg.SQLitePath)
	}
	return nil
}

// OpenDatabase - 연결 및 마이그레이션 (패키지 전역에는 설정하지 않음)
func OpenDatabase(dialector gorm.Dialector) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("DB 연결 실패: %w", err)
	}

	// AutoMigrate - 테이블 자동 생성
	if err := conn.AutoMigrate(&models.RobotLog{}); err != nil {
		return nil, fmt.Errorf("마이그레이션 실패: %w", err)
	}

	log.Println("✅ DB 연결 및 마이그레이션 완료")
	return conn, nil
}

// SetDB - GORM 인스턴스 교체 (테스트용)
func SetDB(conn *gorm.DB) {
	db = conn
}

// maskPassword - 로그 출력용 비밀번호 마스킹
func maskPassword(password string) string {
	if len(password) <= 3 {
		return "***"
	}
	return password[:3] + "***"
}
