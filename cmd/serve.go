package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	config "case-board.com/case-board/internal/configs"
	httpapi "case-board.com/case-board/internal/http"
	"case-board.com/case-board/internal/notify"
	repository "case-board.com/case-board/internal/repositories"
	"case-board.com/case-board/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the board service",
	Long:  "Starts the board HTTP API that serves per-session boards backed by the case API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		journalDB, err := config.NewJournalDB(cfg.JournalDSN)
		if err != nil {
			return err
		}
		moves := repository.NewMoveRepository(journalDB)

		var publisher notify.Notifier
		if cfg.RedisAddr != "" {
			redisClient, err := config.NewRedisClient(cfg.RedisAddr)
			if err != nil {
				return fmt.Errorf("failed to create redis client: %w", err)
			}
			defer redisClient.Close()
			publisher = notify.NewRedisPublisher(redisClient, cfg.RedisNotifyChannel)
			log.WithField("channel", cfg.RedisNotifyChannel).Info("publishing notifications to redis")
		}

		manager := session.NewManager(session.Config{
			Dial:          caseAPIDialer(cfg),
			IdleTimeout:   time.Duration(cfg.SessionIdleTimeoutSeconds) * time.Second,
			SweepInterval: time.Duration(cfg.SessionSweepIntervalSeconds) * time.Second,
			PageSize:      cfg.PageSize,
			Policy:        cfg.ReconcilePolicy,
			AllowReopen:   cfg.AllowReopen,
			Journal:       moves,
			Publisher:     publisher,
		})

		e := echo.New()
		e.HideBanner = true
		httpapi.Register(e, httpapi.NewHandler(manager, moves, cfg.SessionCookieName), cfg.RateLimit)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			log.WithField("addr", cfg.AppURL).Info("board service listening")
			if err := e.Start(cfg.AppURL); err != nil {
				log.WithError(err).Info("server stopped")
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()

		_ = e.Shutdown(shutdownCtx)
		manager.Shutdown(shutdownCtx)

		log.Info("board service shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
