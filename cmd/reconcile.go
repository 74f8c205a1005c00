package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"marker-sync/core/markerset"
	"marker-sync/core/reconcile"
	"marker-sync/feature/markers"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// jsonOutput prints the pass report as JSON instead of logging it.
var jsonOutput bool

// reconcileCmd runs one pass and exits. Markers are left in place.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one marker update and print the report",
	Long: `Reads the location source once, rebuilds the marker sets and prints what
was placed. Markers stay in place after the command exits.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, l, err := loadStore()
	if err != nil {
		return err
	}
	defer l.Sync()
	cfg := store.Snapshot()

	fetcher, _, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	source := newSource(cfg, fetcher, l.Logger)
	if !source.Available(ctx) {
		return fmt.Errorf("%s: %w", source.Name(), reconcile.ErrSourceUnavailable)
	}

	renderer, _, err := newRenderer(ctx, cfg, l.Logger)
	if err != nil {
		return err
	}

	last := &markers.LastPass{}
	registry := markerset.NewRegistry(l.Logger)
	engine := reconcile.NewEngine(newProvider(cfg, source, l.Logger), registry, store.Policy, l.Logger,
		reconcile.WithObserver(last),
	)
	// Initialization runs the pass.
	if err := engine.OnRendererAvailable(ctx, renderer); err != nil {
		return err
	}

	summary := last.Last()
	if summary == nil {
		return errors.New("no marker update ran")
	}
	active := engine.Active()

	if jsonOutput {
		return printReconcileJSON(*summary, active)
	}
	printReconcileReport(l.Logger, *summary, active)
	return nil
}

// printReconcileReport prints a formatted pass report using logger.
func printReconcileReport(l *zap.Logger, s reconcile.Summary, active map[string]markerset.Record) {
	l.Info("Marker update report",
		zap.Int("added", s.Added()),
		zap.Int("cleared", s.Cleared),
		zap.Int("errors", len(s.Errors)),
		zap.Duration("duration", s.Duration),
	)

	for _, g := range markerset.Groups() {
		gs := s.Group(g.String())
		l.Info("Group",
			zap.String("group", g.String()),
			zap.Bool("disabled", gs.Disabled),
			zap.Int("added", gs.Added),
			zap.Int("blacklisted", gs.Blacklisted),
			zap.Int("unresolved", gs.Unresolved),
			zap.Int("capped", gs.Capped),
			zap.Int("failed", gs.Failed),
		)
	}

	for _, rec := range sortedRecords(active) {
		l.Debug("Marker",
			zap.String("id", rec.ID),
			zap.String("label", rec.Label),
			zap.String("at", rec.Point.String()),
		)
	}
}

func printReconcileJSON(s reconcile.Summary, active map[string]markerset.Record) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Summary reconcile.Summary  `json:"summary"`
		Markers []markerset.Record `json:"markers"`
	}{s, sortedRecords(active)})
}

func sortedRecords(active map[string]markerset.Record) []markerset.Record {
	out := make([]markerset.Record, 0, len(active))
	for _, rec := range active {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
