package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"case-board.com/case-board/internal/caseapi"
	config "case-board.com/case-board/internal/configs"
	repository "case-board.com/case-board/internal/repositories"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

var seedAPI bool

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the development case API",
	Long:  "Starts a local implementation of the case API for development and integration testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		db, err := config.NewCaseAPIDB(cfg.APIDatabaseDSN)
		if err != nil {
			return err
		}
		tasks := repository.NewTaskRepository(db)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if seedAPI {
			if err := seedTasks(ctx, tasks); err != nil {
				return err
			}
		}

		h := caseapi.NewHandler(tasks, repository.NewAttachmentRepository(db), caseapi.NewPasswordHasher(caseapi.DefaultBcryptCost))

		e := echo.New()
		e.HideBanner = true
		caseapi.Register(e, h, cfg.SessionCookieName, cfg.RateLimit)

		go func() {
			log.WithField("addr", cfg.APIURL).Info("case API listening")
			if err := e.Start(cfg.APIURL); err != nil {
				log.WithError(err).Info("server stopped")
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)

		log.Info("case API shut down gracefully")
		return nil
	},
}

// seedTasks fills an empty database with a few tasks spread over the
// priority bands.
func seedTasks(ctx context.Context, repo *repository.TaskRepository) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	today := time.Now()
	due := func(days int) *time.Time {
		d := time.Date(today.Year(), today.Month(), today.Day()+days, 0, 0, 0, 0, time.UTC)
		return &d
	}

	seed := []model.Task{
		{Title: "File response brief", CaseRef: "Doe v. Roe", Assignee: "Dana", DueDate: due(1), Status: constants.StatusToDo},
		{Title: "Prepare deposition outline", CaseRef: "Doe v. Roe", Assignee: "Sam", DueDate: due(4), Status: constants.StatusInProgress},
		{Title: "Collect exhibits", CaseRef: "State v. Lee", Assignee: "Dana", DueDate: due(12), Status: constants.StatusToDo},
		{Title: "Client intake notes", CaseRef: "State v. Lee", Status: constants.StatusToDo},
		{Title: "Serve subpoena", CaseRef: "Acme v. Beta", Assignee: "Sam", DueDate: due(-3), CompletionDate: due(-4), Status: constants.StatusCompleted},
	}
	for _, t := range seed {
		if _, err := repo.CreateTask(ctx, t); err != nil {
			return err
		}
	}

	log.WithField("tasks", len(seed)).Info("seeded case API")
	return nil
}

func init() {
	apiCmd.Flags().BoolVar(&seedAPI, "seed", false, "insert sample tasks into an empty database")
	rootCmd.AddCommand(apiCmd)
}
