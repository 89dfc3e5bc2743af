package recognizer

import "fmt"

// Stage is a step of the classification pipeline.
//
// Every call starts at StageIdle and advances through Extracting,
// Describing and Matching before ending in exactly one of the terminal
// stages Matched, Unclassified or Failed.
type Stage int

const (
	StageIdle Stage = iota
	StageExtracting
	StageDescribing
	StageMatching
	StageMatched
	StageUnclassified
	StageFailed
)

var stageNames = [...]string{
	StageIdle:         "idle",
	StageExtracting:   "extracting",
	StageDescribing:   "describing",
	StageMatching:     "matching",
	StageMatched:      "matched",
	StageUnclassified: "unclassified",
	StageFailed:       "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText encodes the stage name so outcomes serialize readably.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether s ends a pipeline run.
func (s Stage) Terminal() bool {
	return s == StageMatched || s == StageUnclassified || s == StageFailed
}

// StageError records the pipeline stage at which a classification failed.
// The underlying error kind is preserved for errors.Is and errors.As.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
