package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshweier/nlisten/internal/journal"
	"github.com/joshweier/nlisten/internal/progress"
	"github.com/joshweier/nlisten/internal/services"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the build journal",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				if jsonOutput {
					views := make([]runView, 0, len(runs))
					for _, r := range runs {
						views = append(views, newRunView(r))
					}
					return writeJSON(cmd, views)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						shortID(r.ID),
						r.StartedAt.Local().Format("2006-01-02 15:04"),
						r.Mode,
						string(r.Status),
						fmt.Sprintf("%d/%d", r.Totals.Processed, r.Totals.Total),
						strconv.Itoa(r.Totals.TranscodeFailures),
						humanize.Bytes(uint64(max(r.Totals.OutputBytes, 0))),
						formatRunDuration(r),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Started", "Mode", "Status", "Voiced", "Failed", "Audio", "Took"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output runs as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var failuresOnly bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one build and its per-sentence outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				run, err := store.FindRun(cmd.Context(), args[0])
				switch {
				case errors.Is(err, journal.ErrRunNotFound):
					return services.Wrap(services.ErrNotFound, "runs", "show", "no run matches "+args[0], nil)
				case errors.Is(err, journal.ErrAmbiguousRun):
					return services.Wrap(services.ErrValidation, "runs", "show", "more than one run matches "+args[0], nil)
				case err != nil:
					return fmt.Errorf("find run: %w", err)
				}
				items, err := store.Items(cmd.Context(), run.ID)
				if err != nil {
					return fmt.Errorf("load run items: %w", err)
				}
				counts, err := store.OutcomeCounts(cmd.Context(), run.ID)
				if err != nil {
					return fmt.Errorf("count run outcomes: %w", err)
				}
				if failuresOnly {
					kept := items[:0]
					for _, item := range items {
						if item.Outcome.IsFailure() {
							kept = append(kept, item)
						}
					}
					items = kept
				}

				if jsonOutput {
					view := runDetailView{runView: newRunView(*run), Outcomes: make(map[string]int, len(counts))}
					for outcome, n := range counts {
						view.Outcomes[string(outcome)] = n
					}
					for _, item := range items {
						view.Items = append(view.Items, newItemView(item))
					}
					return writeJSON(cmd, view)
				}

				out := cmd.OutOrStdout()
				fields := runFields(*run)
				if summary := outcomeSummary(counts); summary != "" {
					fields = append(fields, [2]string{"Outcomes", summary})
				}
				fmt.Fprintln(out, renderFields(fields))
				if len(items) == 0 {
					fmt.Fprintln(out, "No sentences recorded")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					voice := "-"
					if item.Outcome.Synthesized() {
						voice = strconv.Itoa(item.VoiceID)
					}
					rows = append(rows, []string{
						strconv.Itoa(item.Index),
						item.Audio,
						string(item.Outcome),
						voice,
						item.Elapsed.Round(time.Millisecond).String(),
						item.ErrorMessage,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Audio", "Outcome", "Voice", "Took", "Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run as JSON")
	cmd.Flags().BoolVar(&failuresOnly, "failures", false, "Only list sentences that need attention")
	return cmd
}

func (c *commandContext) withJournal(fn func(*journal.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return services.Wrap(services.ErrConfiguration, "runs", "open journal", "journal.enabled is false", nil)
	}
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func runFields(r journal.Run) [][2]string {
	fields := [][2]string{
		{"Run", r.ID},
		{"Mode", r.Mode},
		{"Status", string(r.Status)},
		{"Started", r.StartedAt.Local().Format(time.RFC3339)},
		{"Took", formatRunDuration(r)},
		{"Input", r.InputPath},
		{"Output", r.OutputDir},
		{"Manifest", r.ManifestPath},
		{"Sentences", strconv.Itoa(r.Totals.Total)},
		{"Voiced", strconv.Itoa(r.Totals.Processed)},
		{"Transcoded", strconv.Itoa(r.Totals.Transcoded)},
		{"Transcode failures", strconv.Itoa(r.Totals.TranscodeFailures)},
		{"Skipped", strconv.Itoa(r.Totals.Skipped)},
		{"Malformed rows", strconv.Itoa(r.Totals.Malformed)},
		{"Audio", humanize.Bytes(uint64(max(r.Totals.OutputBytes, 0)))},
	}
	if r.ErrorMessage != "" {
		fields = append(fields, [2]string{"Error", r.ErrorMessage})
	}
	return fields
}

var outcomeOrder = []journal.Outcome{
	journal.OutcomeEncoded,
	journal.OutcomeSynthesized,
	journal.OutcomeSkippedExisting,
	journal.OutcomeSkippedMetadata,
}

// outcomeSummary renders counts as "encoded 2, synthesized 1" in a fixed order.
func outcomeSummary(counts map[journal.Outcome]int) string {
	parts := make([]string, 0, len(counts))
	for _, outcome := range outcomeOrder {
		if n := counts[outcome]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", outcome, n))
		}
	}
	return strings.Join(parts, ", ")
}

func formatRunDuration(r journal.Run) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return progress.FormatDuration(r.Duration())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type runView struct {
	ID                string     `json:"id"`
	Mode              string     `json:"mode"`
	Status            string     `json:"status"`
	InputPath         string     `json:"input_path"`
	OutputDir         string     `json:"output_dir"`
	ManifestPath      string     `json:"manifest_path"`
	Total             int        `json:"total"`
	Processed         int        `json:"processed"`
	Transcoded        int        `json:"transcoded"`
	TranscodeFailures int        `json:"transcode_failures"`
	Skipped           int        `json:"skipped"`
	Malformed         int        `json:"malformed"`
	OutputBytes       int64      `json:"output_bytes"`
	Error             string     `json:"error,omitempty"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
}

func newRunView(r journal.Run) runView {
	return runView{
		ID:                r.ID,
		Mode:              r.Mode,
		Status:            string(r.Status),
		InputPath:         r.InputPath,
		OutputDir:         r.OutputDir,
		ManifestPath:      r.ManifestPath,
		Total:             r.Totals.Total,
		Processed:         r.Totals.Processed,
		Transcoded:        r.Totals.Transcoded,
		TranscodeFailures: r.Totals.TranscodeFailures,
		Skipped:           r.Totals.Skipped,
		Malformed:         r.Totals.Malformed,
		OutputBytes:       r.Totals.OutputBytes,
		Error:             r.ErrorMessage,
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
	}
}

type itemView struct {
	Index     int    `json:"index"`
	Audio     string `json:"audio"`
	Outcome   string `json:"outcome"`
	VoiceID   *int   `json:"voice_id,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

type runDetailView struct {
	runView
	Outcomes map[string]int `json:"outcomes"`
	Items    []itemView     `json:"items"`
}

func newItemView(item journal.Item) itemView {
	view := itemView{
		Index:     item.Index,
		Audio:     item.Audio,
		Outcome:   string(item.Outcome),
		ElapsedMS: item.Elapsed.Milliseconds(),
		Error:     item.ErrorMessage,
	}
	if item.Outcome.Synthesized() {
		voice := item.VoiceID
		view.VoiceID = &voice
	}
	return view
}
