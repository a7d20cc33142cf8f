// Package model defines shared data structures.
package model

// Practice modes.
const (
	ModeWords  = "word"
	ModeTime   = "time"
	ModeQuote  = "quote"
	ModeCode   = "code"
	ModeCustom = "custom"
)

// Config defines practice settings.
type Config struct {
	Mode         string
	Words        int
	TimeLimit    int
	Difficulty   string
	CodeLang     string
	CustomText   string
	WordListPath string
	CapsPct      float64
	PunctPct     float64
	Numbers      bool
}

// HistoryConfig bounds retained history.
type HistoryConfig struct {
	MaxResults int
	MaxDays    int
	DBPath     string
}

// StatsConfig defines options for stats output.
type StatsConfig struct {
	Plain       bool
	AvgDays     int
	CurveWindow int
}
