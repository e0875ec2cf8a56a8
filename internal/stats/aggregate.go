package stats

import (
	"github.com/google/uuid"
	"github.com/maxviazov/scorebook-stats-service/internal/model"
)

// Weights are the linear run values used by wOBA.
type Weights struct {
	BB     float64 `mapstructure:"bb" json:"bb"`
	HBP    float64 `mapstructure:"hbp" json:"hbp"`
	Single float64 `mapstructure:"single" json:"single"`
	Double float64 `mapstructure:"double" json:"double"`
	Triple float64 `mapstructure:"triple" json:"triple"`
	HR     float64 `mapstructure:"hr" json:"hr"`
}

// DefaultWeights is the fixed table the product has always shipped with.
var DefaultWeights = Weights{BB: 0.69, HBP: 0.72, Single: 0.89, Double: 1.27, Triple: 1.62, HR: 2.10}

func (w Weights) isZero() bool { return w == Weights{} }

// OBPFormula selects the on-base denominator.
type OBPFormula string

const (
	// OBPPlateAppearances divides by PA. This is what every stat sheet so far was computed with.
	OBPPlateAppearances OBPFormula = "plate_appearances"
	// OBPStandard divides by AB + BB + HBP + SF.
	OBPStandard OBPFormula = "standard"
)

// Options configures an Engine.
type Options struct {
	Weights Weights
	OBP     OBPFormula
}

// DefaultOptions returns the fixed wOBA table and the PA-denominator OBP.
func DefaultOptions() Options {
	return Options{Weights: DefaultWeights, OBP: OBPPlateAppearances}
}

// Rates are the derived batting rates. They are only ever computed from totals.
type Rates struct {
	AVG  float64 `json:"AVG"`
	OBP  float64 `json:"OBP"`
	SLG  float64 `json:"SLG"`
	OPS  float64 `json:"OPS"`
	WOBA float64 `json:"wOBA"`
}

// AggregatedStats is one player's folded line.
type AggregatedStats struct {
	PlayerID uuid.UUID        `json:"player_id"`
	GP       int              `json:"GP"`
	Totals   model.StatRecord `json:"totals"`
	Rates    Rates            `json:"rates"`
}

// Engine folds result rows into per-player totals and rates. It does not
// filter; callers pick the result subset (season, game, all-time) first.
type Engine struct {
	opts Options
}

// NewEngine builds an engine, filling unset options with defaults.
func NewEngine(opts Options) *Engine {
	if opts.Weights.isZero() {
		opts.Weights = DefaultWeights
	}
	if opts.OBP != OBPStandard {
		opts.OBP = OBPPlateAppearances
	}
	return &Engine{opts: opts}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Aggregate seeds every player with a zero line, then sums each result into
// its owner. Results for players outside the set still get a line. GP counts
// distinct games, so two rows for one game count once.
func (e *Engine) Aggregate(players []model.Player, results []model.Result) map[uuid.UUID]AggregatedStats {
	totals := make(map[uuid.UUID]model.StatRecord, len(players))
	games := make(map[uuid.UUID]map[uuid.UUID]struct{}, len(players))

	for _, p := range players {
		totals[p.ID] = model.StatRecord{}
		games[p.ID] = map[uuid.UUID]struct{}{}
	}
	for _, r := range results {
		totals[r.PlayerID] = totals[r.PlayerID].Plus(r.Stats)
		if games[r.PlayerID] == nil {
			games[r.PlayerID] = map[uuid.UUID]struct{}{}
		}
		games[r.PlayerID][r.GameID] = struct{}{}
	}

	out := make(map[uuid.UUID]AggregatedStats, len(totals))
	for id, t := range totals {
		out[id] = AggregatedStats{
			PlayerID: id,
			GP:       len(games[id]),
			Totals:   t,
			Rates:    e.Rates(t),
		}
	}
	return out
}

// Rates derives AVG, OBP, SLG, OPS and wOBA from a totals line. Any zero
// denominator yields 0 for that rate.
func (e *Engine) Rates(t model.StatRecord) Rates {
	singles := t.H - (t.Doubles + t.Triples + t.HR)

	var r Rates
	if t.AB > 0 {
		r.AVG = float64(t.H) / float64(t.AB)
		r.SLG = float64(singles+2*t.Doubles+3*t.Triples+4*t.HR) / float64(t.AB)
	}

	obpDen := t.PA
	if e.opts.OBP == OBPStandard {
		obpDen = t.AB + t.BB + t.HBP + t.SF
	}
	if obpDen > 0 {
		r.OBP = float64(t.H+t.BB+t.HBP) / float64(obpDen)
	}
	r.OPS = r.OBP + r.SLG

	w := e.opts.Weights
	if den := t.AB + t.BB + t.SF + t.HBP; den > 0 {
		num := w.BB*float64(t.BB) +
			w.HBP*float64(t.HBP) +
			w.Single*float64(singles) +
			w.Double*float64(t.Doubles) +
			w.Triple*float64(t.Triples) +
			w.HR*float64(t.HR)
		r.WOBA = num / float64(den)
	}
	return r
}
