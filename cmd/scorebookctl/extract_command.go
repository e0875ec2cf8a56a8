package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maxviazov/scorebook-stats-service/internal/app"
	"github.com/maxviazov/scorebook-stats-service/internal/extractor"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
	"github.com/maxviazov/scorebook-stats-service/internal/vision"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <image-path-or-url>",
		Short: "Read a scorebook image and print the extracted lines without storing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			img, err := loadImage(args[0])
			if err != nil {
				return err
			}
			out, err := app.Extractor(cfg, l).Extract(cmd.Context(), img)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderExtraction(out))
			return nil
		},
	}
}

// loadImage treats http(s) arguments as URLs and everything else as a file path.
func loadImage(arg string) (vision.Image, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return vision.Image{URL: arg}, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return vision.Image{}, fmt.Errorf("read image: %w", err)
	}
	return vision.Image{Data: data}, nil
}

func renderExtraction(out extractor.Output) string {
	headers := []string{"#", "Player"}
	for _, code := range model.StatCodes {
		headers = append(headers, string(code))
	}
	rows := make([][]string, 0, len(out.Players))
	for i, p := range out.Players {
		row := []string{strconv.Itoa(i + 1), p.PlayerName}
		for _, code := range model.StatCodes {
			row = append(row, strconv.Itoa(p.Stats.Get(code)))
		}
		rows = append(rows, row)
	}
	s := renderTable(headers, rows, rightAfter(2, len(headers)))
	if len(out.Flagged) == 0 {
		return s
	}

	flagged := make([][]string, 0, len(out.Flagged))
	for _, f := range out.Flagged {
		msgs := make([]string, 0, len(f.Violations))
		for _, v := range f.Violations {
			msgs = append(msgs, v.Field+": "+v.Message)
		}
		flagged = append(flagged, []string{strconv.Itoa(f.Row), f.Player.PlayerName, strings.Join(msgs, "; ")})
	}
	return s + "\n\nFlagged rows\n" + renderTable([]string{"Row", "Player", "Violations"}, flagged, nil)
}
