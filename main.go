package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"pickplace-backend/handlers"
	"pickplace-backend/services"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	// .env 파일 로드
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env 파일을 찾을 수 없습니다.")
	}

	cfg, err := services.LoadConfig()
	if err != nil {
		log.Fatalf("❌ 설정 오류: %v", err)
	}

	// 로그 저장소 연결 (DB_DRIVER=none이면 생략)
	if err := services.InitDatabase(cfg.Database); err != nil {
		log.Fatalf("❌ DB 초기화 실패: %v", err)
	}

	services.InitLogging(cfg.FlushSize, cfg.FlushInterval)
	defer services.StopLogging() // 종료 시 남은 로그 저장

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go handlers.Manager.Start()

	state := services.NewRobotState(cfg.RobotLimits, services.RealClock{}, handlers.Manager.BroadcastMessage)
	tasks := services.NewPickPlaceSequencer(state, cfg.PollInterval, handlers.Manager.BroadcastMessage)

	app := handlers.NewApp(ctx, cfg.CORSOrigins, state, tasks)

	go func() {
		<-ctx.Done()
		log.Println("🛑 서버 종료 중...")
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ 종료 오류: %v", err)
		}
	}()

	log.Printf("🚀 서버 시작: http://localhost:%s", cfg.Port)
	log.Printf("📡 WebSocket: ws://localhost:%s/websocket/web", cfg.Port)
	log.Printf("🤖 로봇 API: POST /initialize_robot, /move_to, /move_home, /open_gripper, /close_gripper")
	log.Printf("📦 작업 API: POST http://localhost:%s/api/tasks/pick_place", cfg.Port)
	log.Printf("💾 로그 API: GET http://localhost:%s/api/logs/*", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("❌ 서버 오류: %v", err)
	}
}
