package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"dailytasks/internal/config"
	"dailytasks/internal/serverapp"
)

const configPath = "dailytasks.yml"

func main() {
	cfg, err := config.Load(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("load config: %v", err)
		}
		cfg = config.Default()
	}

	logger := buildLogger(cfg.Logging)
	defer logger.Sync()
	sugar := logger.Sugar()

	app, err := serverapp.New(serverapp.Options{
		Config: cfg,
		Logger: sugar,
	})
	if err != nil {
		sugar.Fatalw("build server", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go app.Scanner.Run(ctx)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: app.Handler,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	sugar.Infow("listening", "addr", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("serve", "error", err)
	}
}

// buildLogger tees a rotating JSON file core with a console core, or
// console only when no log file is configured.
func buildLogger(lc config.Logging) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		zap.InfoLevel,
	)

	if lc.File == "" {
		return zap.New(consoleCore, zap.AddCaller())
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
		}),
		zap.InfoLevel,
	)

	return zap.New(
		zapcore.NewTee(fileCore, consoleCore),
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)
}
