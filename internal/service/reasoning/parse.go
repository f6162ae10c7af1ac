package reasoning

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"FxBias/internal/domain/models"
)

type ParseErrorKind string

const (
	KindMalformed    ParseErrorKind = "malformed"
	KindMissingField ParseErrorKind = "missing_field"
	KindOutOfRange   ParseErrorKind = "out_of_range"
	KindInvalidValue ParseErrorKind = "invalid_value"
)

// ParseError reports a reply that could not be turned into a result.
type ParseError struct {
	Kind ParseErrorKind
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("reasoning reply %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	fenceOpen  = regexp.MustCompile("^```(?:json|JSON)?[ \t]*\n?")
	fenceClose = regexp.MustCompile("\n?```$")
)

// StripFences removes a markdown code fence wrapped around a JSON payload.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func decode(raw string, dest interface{}) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(StripFences(raw))))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return &ParseError{Kind: KindMalformed, Raw: raw, Err: err}
	}
	return nil
}

// ParseScore decodes a scoring reply. The score must be an integer in [-2, 2];
// anything else is rejected rather than clamped.
func ParseScore(raw string) (models.IndicatorScore, error) {
	var body struct {
		Score     *json.Number `json:"score"`
		Rationale string       `json:"rationale"`
	}
	if err := decode(raw, &body); err != nil {
		return models.IndicatorScore{}, err
	}
	if body.Score == nil {
		return models.IndicatorScore{}, &ParseError{Kind: KindMissingField, Raw: raw, Err: errors.New("score is missing")}
	}

	f, err := body.Score.Float64()
	if err != nil {
		return models.IndicatorScore{}, &ParseError{Kind: KindMalformed, Raw: raw, Err: err}
	}
	if f != math.Trunc(f) || f < models.MinScore || f > models.MaxScore {
		return models.IndicatorScore{}, &ParseError{
			Kind: KindOutOfRange,
			Raw:  raw,
			Err:  fmt.Errorf("score %v is not an integer in [%d, %d]", f, models.MinScore, models.MaxScore),
		}
	}

	return models.IndicatorScore{Score: int(f), Rationale: body.Rationale}, nil
}

// ParseRecap decodes a recap reply. The bias must be one of the known labels;
// event modifiers carrying an unknown flag are dropped.
func ParseRecap(raw string) (*models.EconomicRecap, error) {
	var recap models.EconomicRecap
	if err := decode(raw, &recap); err != nil {
		return nil, err
	}
	if recap.Bias == "" {
		return nil, &ParseError{Kind: KindMissingField, Raw: raw, Err: errors.New("bias is missing")}
	}
	if !recap.Bias.Valid() {
		return nil, &ParseError{Kind: KindInvalidValue, Raw: raw, Err: fmt.Errorf("unknown bias %q", recap.Bias)}
	}

	kept := recap.EventModifiers[:0]
	for _, m := range recap.EventModifiers {
		switch m.Flag {
		case models.FlagGreen, models.FlagYellow, models.FlagRed:
			kept = append(kept, m)
		}
	}
	recap.EventModifiers = kept
	if recap.EventModifiers == nil {
		recap.EventModifiers = []models.EventModifier{}
	}
	return &recap, nil
}
