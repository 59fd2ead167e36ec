package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/zephyrforge/internal/build"
	"git.home.luguber.info/inful/zephyrforge/internal/eventstore"
	ferrors "git.home.luguber.info/inful/zephyrforge/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of runs to show" default:"20"`
}

func (h *HistoryCmd) Run(ctx context.Context, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if cfg.History.Disabled {
		return ferrors.ConfigError("run history is disabled in the configuration").Build()
	}
	if _, err := os.Stat(cfg.HistoryPath()); os.IsNotExist(err) {
		fmt.Println("No runs recorded yet")
		return nil
	}

	store, err := eventstore.NewSQLiteStore(cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := build.History(ctx, store, h.Limit)
	if err != nil {
		return err
	}
	printHistory(runs)
	return nil
}

func printHistory(runs []eventstore.RunSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tKIND\tSTATUS\tBOARD\tSTRATEGY\tDURATION\tDETAIL")
	for _, r := range runs {
		detail := r.Address
		if r.Status == eventstore.RunStatusFailed {
			detail = fmt.Sprintf("%s: %s (exit %d)", r.ErrorStage, r.ErrorMessage, r.ExitCode)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.Kind, r.Status, r.Board, dash(r.Strategy),
			r.Duration.Round(time.Second), detail)
	}
	_ = w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
