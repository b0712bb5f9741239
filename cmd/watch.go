package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/engine"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/note"
	"github.com/fkloosterman/relations-obsidian-sub000/internal/vault"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow vault changes and keep the graph current",
	Long: `watch scans the vault, then follows filesystem events and applies
them to every configured graph as serialized change notifications,
re-validating after each settled batch.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}

		log := slog.New(slog.NewTextHandler(os.Stderr, nil))
		handlers := make([]vault.ChangeHandler, 0, len(a.engines))
		for _, field := range a.cfg.Fields() {
			handlers = append(handlers, &revalidatingHandler{app: a, field: field, log: log})
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s (%d notes, %d field graphs). Ctrl-C to stop.\n",
			vaultPath, a.primary.Graph().Len(), len(a.engines))

		w := vault.NewWatcher(vaultPath, a.vault, log, handlers...)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

// revalidatingHandler forwards one field graph's change notifications and
// logs the health delta after each change.
type revalidatingHandler struct {
	app   *app
	field string
	log   *slog.Logger
}

func (h *revalidatingHandler) engine() *engine.Engine { return h.app.engines[h.field] }

func (h *revalidatingHandler) NoteUpserted(n note.Note) {
	h.engine().NoteUpserted(n)
	h.report()
}

func (h *revalidatingHandler) NoteRemoved(path string) {
	h.engine().NoteRemoved(path)
	h.report()
}

func (h *revalidatingHandler) NoteRenamed(n note.Note, oldPath string) {
	h.engine().NoteRenamed(n, oldPath)
	h.report()
}

func (h *revalidatingHandler) report() {
	d := h.engine().ValidateGraph()
	h.log.Info("graph updated",
		"field", h.field,
		"notes", d.Stats.Notes,
		"edges", d.Stats.Edges,
		"errors", d.ErrorCount(),
		"healthy", d.Healthy(),
	)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
