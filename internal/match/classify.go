package match

import (
	"encoding/json"
	"math"
)

// Origin tells which rule produced a near-miss annotation.
type Origin string

const (
	OriginSpelling Origin = "spelling"
	OriginModel    Origin = "model"
)

// Annotation is the near-miss hint attached to an unrevealed word token.
// Score is only meaningful when Origin is OriginModel.
type Annotation struct {
	Guess  string
	Origin Origin
	Score  float64
}

// SpellingHint builds a spelling-origin annotation.
func SpellingHint(guess string) Annotation {
	return Annotation{Guess: guess, Origin: OriginSpelling}
}

// ModelHint builds a model-origin annotation carrying the model score.
func ModelHint(guess string, score float64) Annotation {
	return Annotation{Guess: guess, Origin: OriginModel, Score: score}
}

// HasScore reports whether the annotation carries a model score.
func (a Annotation) HasScore() bool {
	return a.Origin == OriginModel && !math.IsNaN(a.Score)
}

type annotationJSON struct {
	GuessText string   `json:"guessText"`
	Score     *float64 `json:"score"`
	Origin    Origin   `json:"origin"`
	Bucket    Bucket   `json:"bucket"`
}

func (a Annotation) MarshalJSON() ([]byte, error) {
	out := annotationJSON{GuessText: a.Guess, Origin: a.Origin, Bucket: Classify(a)}
	if a.HasScore() {
		score := a.Score
		out.Score = &score
	}
	return json.Marshal(out)
}

// Bucket is the display severity of an annotation.
type Bucket string

const (
	BucketStrong   Bucket = "strong"
	BucketMid      Bucket = "mid"
	BucketLow      Bucket = "low"
	BucketSpelling Bucket = "spelling"
)

// Lower bounds (inclusive) of the scored buckets.
const (
	StrongThreshold = 0.7
	MidThreshold    = 0.6
)

// Classify maps an annotation to its bucket. Spelling hints and hints without
// a score always land in BucketSpelling.
func Classify(a Annotation) Bucket {
	if !a.HasScore() {
		return BucketSpelling
	}
	switch {
	case a.Score >= StrongThreshold:
		return BucketStrong
	case a.Score >= MidThreshold:
		return BucketMid
	default:
		return BucketLow
	}
}

// BucketCounts tallies annotations per bucket.
type BucketCounts struct {
	Strong   int `json:"strong"`
	Mid      int `json:"mid"`
	Low      int `json:"low"`
	Spelling int `json:"spelling"`
}

func (c *BucketCounts) Add(b Bucket) {
	switch b {
	case BucketStrong:
		c.Strong++
	case BucketMid:
		c.Mid++
	case BucketLow:
		c.Low++
	default:
		c.Spelling++
	}
}

func (c BucketCounts) Total() int {
	return c.Strong + c.Mid + c.Low + c.Spelling
}
