package model

// StatCode names one counting stat as it appears on a scorebook and in the
// stored JSON document.
type StatCode string

const (
	StatPA  StatCode = "PA"
	StatAB  StatCode = "AB"
	StatR   StatCode = "R"
	StatH   StatCode = "H"
	Stat1B  StatCode = "1B"
	Stat2B  StatCode = "2B"
	Stat3B  StatCode = "3B"
	StatHR  StatCode = "HR"
	StatRBI StatCode = "RBI"
	StatBB  StatCode = "BB"
	StatSO  StatCode = "SO"
	StatHBP StatCode = "HBP"
	StatSF  StatCode = "SF"
	StatSAC StatCode = "SAC"
)

// StatCodes lists every recognized counting stat in display order.
var StatCodes = []StatCode{
	StatPA, StatAB, StatR, StatH, Stat1B, Stat2B, Stat3B, StatHR,
	StatRBI, StatBB, StatSO, StatHBP, StatSF, StatSAC,
}

// StatRecord is the atomic batting line. Unknown keys in stored documents are
// dropped on decode, so older rows keep loading when the schema grows.
type StatRecord struct {
	PA      int `json:"PA" validate:"gte=0"`
	AB      int `json:"AB" validate:"gte=0"`
	R       int `json:"R" validate:"gte=0"`
	H       int `json:"H" validate:"gte=0"`
	Singles int `json:"1B" validate:"gte=0"`
	Doubles int `json:"2B" validate:"gte=0"`
	Triples int `json:"3B" validate:"gte=0"`
	HR      int `json:"HR" validate:"gte=0"`
	RBI     int `json:"RBI" validate:"gte=0"`
	BB      int `json:"BB" validate:"gte=0"`
	SO      int `json:"SO" validate:"gte=0"`
	HBP     int `json:"HBP" validate:"gte=0"`
	SF      int `json:"SF" validate:"gte=0"`
	SAC     int `json:"SAC" validate:"gte=0"`
}

// Get returns the value for code, or 0 for an unknown code.
func (s StatRecord) Get(code StatCode) int {
	switch code {
	case StatPA:
		return s.PA
	case StatAB:
		return s.AB
	case StatR:
		return s.R
	case StatH:
		return s.H
	case Stat1B:
		return s.Singles
	case Stat2B:
		return s.Doubles
	case Stat3B:
		return s.Triples
	case StatHR:
		return s.HR
	case StatRBI:
		return s.RBI
	case StatBB:
		return s.BB
	case StatSO:
		return s.SO
	case StatHBP:
		return s.HBP
	case StatSF:
		return s.SF
	case StatSAC:
		return s.SAC
	default:
		return 0
	}
}

// Plus returns the field-wise sum of s and o.
func (s StatRecord) Plus(o StatRecord) StatRecord {
	return StatRecord{
		PA:      s.PA + o.PA,
		AB:      s.AB + o.AB,
		R:       s.R + o.R,
		H:       s.H + o.H,
		Singles: s.Singles + o.Singles,
		Doubles: s.Doubles + o.Doubles,
		Triples: s.Triples + o.Triples,
		HR:      s.HR + o.HR,
		RBI:     s.RBI + o.RBI,
		BB:      s.BB + o.BB,
		SO:      s.SO + o.SO,
		HBP:     s.HBP + o.HBP,
		SF:      s.SF + o.SF,
		SAC:     s.SAC + o.SAC,
	}
}
