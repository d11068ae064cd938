package cmd

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"case-board.com/case-board/internal/board"
	"case-board.com/case-board/internal/notify"
	"case-board.com/case-board/internal/presenter"
	"case-board.com/case-board/internal/priority"
	"case-board.com/case-board/internal/store"
	"case-board.com/case-board/pkg/constants"
	model "case-board.com/case-board/pkg/models"
)

var (
	listPriority string
	listPage     int
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Work with the case API's tasks from the command line",
	Long:  "Lists and moves tasks using the session cookie in SESSION_COOKIE",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks ordered by priority and due date",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := constants.ParsePriorityFilter(listPriority)
		if err != nil {
			return fmt.Errorf("--priority must be one of All, High, Mid, Low")
		}

		cfg := loadConfig()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := newCaseClient(cfg, cfg.SessionCookie)
		if err != nil {
			return err
		}
		tasks, err := c.ListTasks(ctx)
		if err != nil {
			return err
		}

		page := presenter.Present(priority.AnnotateAll(tasks, time.Now()), filter, listPage, cfg.PageSize)
		return printPage(cmd.OutOrStdout(), page)
	},
}

var tasksBoardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show tasks grouped by board column",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := newCaseClient(cfg, cfg.SessionCookie)
		if err != nil {
			return err
		}
		tasks, err := c.ListTasks(ctx)
		if err != nil {
			return err
		}

		return printColumns(cmd.OutOrStdout(), board.Columns(tasks, time.Now()))
	},
}

var tasksMoveCmd = &cobra.Command{
	Use:   "move <task-id> <column>",
	Short: "Move a task to another column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := constants.ParseStatus(args[1])
		if err != nil {
			return fmt.Errorf("column must be one of todo, in_progress, completed")
		}

		cfg := loadConfig()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := newCaseClient(cfg, cfg.SessionCookie)
		if err != nil {
			return err
		}

		st := store.NewTaskStore()
		if err := st.Load(ctx, c); err != nil {
			return err
		}

		entry := log.WithField("component", "cli")
		syncer := board.NewSynchronizer(st, c, board.Options{
			SessionID:   "cli",
			Policy:      cfg.ReconcilePolicy,
			AllowReopen: cfg.AllowReopen,
			Notifier:    notify.LogNotifier{Log: entry},
			Log:         entry,
		})

		pending, err := syncer.MoveTask(ctx, model.Move{TaskID: args[0], TargetColumn: target})
		if err != nil {
			return err
		}
		outcome, moveErr := pending.Wait(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s (%s)\n", args[0], pending.From, target, outcome)
		return moveErr
	},
}

func printPage(w io.Writer, page presenter.Page) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIORITY\tDUE\tSTATUS\tTITLE\tCASE\tASSIGNEE")
	for _, t := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", priorityLabel(t), dueLabel(t), t.Status, t.Title, t.CaseRef, t.Assignee)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d/%d (%d tasks, filter %s)\n", page.Page, page.TotalPages, page.TotalItems, page.Filter)
	return err
}

func printColumns(w io.Writer, cols []board.Column) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, col := range cols {
		fmt.Fprintf(tw, "== %s (%d)\n", col.Title, len(col.Tasks))
		for _, t := range col.Tasks {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", t.ID, priorityLabel(t), dueLabel(t), t.Title)
		}
	}
	return tw.Flush()
}

func priorityLabel(t model.BoardTask) string {
	if t.Priority == constants.PriorityNone {
		return "-"
	}
	return string(t.Priority)
}

func dueLabel(t model.BoardTask) string {
	if t.DueDate == nil {
		return "no date"
	}
	return t.DueDate.Format("2006-01-02")
}

func init() {
	tasksListCmd.Flags().StringVar(&listPriority, "priority", "All", "filter by priority (All, High, Mid, Low)")
	tasksListCmd.Flags().IntVar(&listPage, "page", 1, "page to show")

	tasksCmd.AddCommand(tasksListCmd, tasksBoardCmd, tasksMoveCmd)
	rootCmd.AddCommand(tasksCmd)
}
