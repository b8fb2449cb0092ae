package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/attendance-terminal/internal/app"
	"github.com/Spok95/attendance-terminal/internal/attendance"
	"github.com/Spok95/attendance-terminal/internal/config"
	"github.com/Spok95/attendance-terminal/internal/ctxutil"
	"github.com/Spok95/attendance-terminal/internal/db"
	"github.com/Spok95/attendance-terminal/internal/export"
	"github.com/Spok95/attendance-terminal/internal/jobs"
	"github.com/Spok95/attendance-terminal/internal/logging"
	"github.com/Spok95/attendance-terminal/internal/metrics"
	"github.com/Spok95/attendance-terminal/internal/models"
	"github.com/Spok95/attendance-terminal/internal/observability"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer lg.Closer()
	sugar := lg.Sugar

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, "attendance-terminal")
	if err != nil {
		sugar.Warnw("sentry не инициализирован", "err", err)
	}
	defer flushSentry()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		sugar.Fatalw("открытие БД", "err", err)
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		sugar.Fatalw("миграция", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	settings, err := db.LoadSettings(ctx, database)
	if err != nil {
		sugar.Fatalw("загрузка настроек", "err", err)
	}

	resolver := attendance.NewResolver(database, sugar, settings.AbsenceThreshold)

	app.StartHTTP(ctx, cfg.HTTPAddr, database)

	// Фоновые задачи: ночной пересчёт неактивности и выгрузка сводки.
	// Оба держат свои короткие транзакции и не лезут в транзакции
	// главного цикла.
	runner := jobs.New(ctx)
	runner.Every(24*time.Hour, "inactivity_recompute", func(ctx context.Context) error {
		_, _, err := resolver.RecomputeAll(ctx, settings.AbsenceThreshold)
		return err
	})
	if settings.SummaryPath != "" {
		runner.Every(6*time.Hour, "summary_push", func(ctx context.Context) error {
			ctx, cancel := ctxutil.WithExportTimeout(ctx)
			defer cancel()
			n, err := export.PushSummary(ctx, database, settings.SummaryPath)
			if err != nil {
				observability.CaptureErr(err)
				return err
			}
			sugar.Infow("сводка выгружена", "rows", n)
			return nil
		})
	}

	sugar.Infow("терминал запущен, ожидаем считывания карт", "db", cfg.DBPath)

	// Считыватель работает как клавиатура: номер карты приходит строкой
	// на stdin. Один цикл — один пишущий поток.
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			sugar.Infow("остановка терминала")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			tapCtx := ctxutil.WithOp(ctxutil.WithCardID(ctx, line), "resolve_tap")
			res, err := resolver.ResolveTap(tapCtx, line)
			if err != nil {
				metrics.HandlerErrors.Inc()
				observability.CaptureErr(err)
				sugar.Errorw("обработка касания", "err", err)
				continue
			}
			printOutcome(res)
		}
	}
}

func printOutcome(res models.TapResult) {
	switch res.Kind {
	case models.TapRecorded:
		fmt.Printf("✅ %s\n", res.Message)
		if res.Inactive {
			fmt.Println("⚠️  Ученик числится неактивным — серия пропусков.")
		}
	case models.TapDuplicate:
		fmt.Printf("🔁 %s\n", res.Message)
	case models.TapUnknownCard:
		fmt.Printf("❓ %s\n", res.Message)
	case models.TapNoSections:
		fmt.Printf("📋 %s\n", res.Message)
	case models.TapInvalidCard:
		fmt.Printf("⛔ %s\n", res.Message)
	}
}
