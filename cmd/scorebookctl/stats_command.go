package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maxviazov/scorebook-stats-service/internal/app"
	"github.com/maxviazov/scorebook-stats-service/internal/cache"
	"github.com/maxviazov/scorebook-stats-service/internal/service"
	"github.com/maxviazov/scorebook-stats-service/internal/stats"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var teamFlag, seasonFlag, gameFlag string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a team's stat sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := uuid.Parse(teamFlag)
			if err != nil {
				return fmt.Errorf("--team: %w", err)
			}
			var f service.StatsFilter
			if f.SeasonID, err = optionalFlagUUID("--season", seasonFlag); err != nil {
				return err
			}
			if f.GameID, err = optionalFlagUUID("--game", gameFlag); err != nil {
				return err
			}

			cfg, l, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			repo, err := ctx.openRepository(cmd.Context())
			if err != nil {
				return err
			}
			defer repo.Close()

			// One-shot reads bypass the shared sheet cache.
			svc := service.NewStatsService(app.Stores(repo.Pool()), stats.NewEngine(cfg.StatsOptions()), cache.NoopStatsCache{}, l)
			sheet, err := svc.TeamStats(cmd.Context(), teamID, f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSheet(sheet))
			return nil
		},
	}
	cmd.Flags().StringVar(&teamFlag, "team", "", "Team ID")
	cmd.Flags().StringVar(&seasonFlag, "season", "", "Limit to one season")
	cmd.Flags().StringVar(&gameFlag, "game", "", "Limit to one game")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func optionalFlagUUID(name, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &id, nil
}

var rateColumns = map[string]bool{"AVG": true, "OBP": true, "SLG": true, "OPS": true, "wOBA": true}

// renderSheet prints one row per player in sheet order. Column leaders get a trailing "*".
func renderSheet(sheet stats.Sheet) string {
	headers := append([]string{"Player"}, stats.LeaderColumns...)
	rows := make([][]string, 0, len(sheet.Rows))
	for _, r := range sheet.Rows {
		row := []string{r.Name}
		for _, col := range stats.LeaderColumns {
			var cell string
			if rateColumns[col] {
				cell = stats.FormatRate(r.Value(col))
			} else {
				cell = strconv.Itoa(int(r.Value(col)))
			}
			if sheet.IsLeader(r, col) {
				cell += "*"
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, rightAfter(1, len(headers)))
}
