package stats

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
)

// LeaderColumns are the columns highlighted on a stat sheet.
var LeaderColumns = []string{
	"GP", "PA", "AB", "R", "H", "2B", "3B", "HR", "RBI", "BB", "SO",
	"AVG", "OBP", "SLG", "OPS", "wOBA",
}

// Row is one player line on a stat sheet.
type Row struct {
	PlayerID  uuid.UUID         `json:"player_id"`
	Name      string            `json:"name"`
	GP        int               `json:"GP"`
	Totals    model.StatRecord  `json:"totals"`
	Rates     Rates             `json:"rates"`
	Formatted map[string]string `json:"formatted"`
	Leads     []string          `json:"leads,omitempty"`
}

// Value returns the numeric value of a sheet column, or 0 when unknown.
func (r Row) Value(column string) float64 {
	switch column {
	case "GP":
		return float64(r.GP)
	case "AVG":
		return r.Rates.AVG
	case "OBP":
		return r.Rates.OBP
	case "SLG":
		return r.Rates.SLG
	case "OPS":
		return r.Rates.OPS
	case "wOBA":
		return r.Rates.WOBA
	default:
		return float64(r.Totals.Get(model.StatCode(column)))
	}
}

// Sheet is a display-ready table: rows by OPS descending plus per-column maxima.
type Sheet struct {
	Rows    []Row              `json:"rows"`
	Leaders map[string]float64 `json:"leaders"`
}

// IsLeader reports whether row holds the column maximum. Ties all lead.
func (s Sheet) IsLeader(r Row, column string) bool {
	top, ok := s.Leaders[column]
	return ok && r.Value(column) == top
}

// BuildSheet aggregates results and lays them out for display. Only players in
// the given list get a row.
func (e *Engine) BuildSheet(players []model.Player, results []model.Result) Sheet {
	agg := e.Aggregate(players, results)

	rows := make([]Row, 0, len(players))
	for _, p := range players {
		a := agg[p.ID]
		rows = append(rows, Row{
			PlayerID: p.ID,
			Name:     p.Name,
			GP:       a.GP,
			Totals:   a.Totals,
			Rates:    a.Rates,
			Formatted: map[string]string{
				"AVG":  FormatRate(a.Rates.AVG),
				"OBP":  FormatRate(a.Rates.OBP),
				"SLG":  FormatRate(a.Rates.SLG),
				"OPS":  FormatRate(a.Rates.OPS),
				"wOBA": FormatRate(a.Rates.WOBA),
			},
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rates.OPS != rows[j].Rates.OPS {
			return rows[i].Rates.OPS > rows[j].Rates.OPS
		}
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})

	sheet := Sheet{Rows: rows, Leaders: map[string]float64{}}
	if len(rows) == 0 {
		return sheet
	}
	for _, col := range LeaderColumns {
		top := math.Inf(-1)
		for _, r := range rows {
			if v := r.Value(col); v > top {
				top = v
			}
		}
		sheet.Leaders[col] = top
	}
	for i := range sheet.Rows {
		for _, col := range LeaderColumns {
			if sheet.IsLeader(sheet.Rows[i], col) {
				sheet.Rows[i].Leads = append(sheet.Rows[i].Leads, col)
			}
		}
	}
	return sheet
}

// FormatRate renders a rate the way a box score does: ".000" for zero, three
// decimals, and no leading zero below one (".300", "1.083").
func FormatRate(v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return ".000"
	}
	s := strconv.FormatFloat(v, 'f', 3, 64)
	switch {
	case strings.HasPrefix(s, "0."):
		return s[1:]
	case strings.HasPrefix(s, "-0."):
		return "-" + s[2:]
	default:
		return s
	}
}
