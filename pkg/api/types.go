package api

// Decision is the final accept/reject outcome for a candidate file.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Layer identifies which detection layer produced a verdict.
type Layer string

const (
	LayerSignature Layer = "signature"
	LayerPattern   Layer = "pattern"
	LayerPolicy    Layer = "policy"
	LayerDefault   Layer = "default"
)

// Verdict is the classifier's final decision plus the layer and reason
// that produced it. Produced fresh per classification call.
type Verdict struct {
	Decision Decision `json:"decision" mapstructure:"decision"`
	Layer    Layer    `json:"layer" mapstructure:"layer"`
	Reason   string   `json:"reason" mapstructure:"reason"`
}

func (v Verdict) Accepted() bool {
	return v.Decision == DecisionAccept
}

// ParseDecision maps a persisted or user-supplied decision string to a
// Decision, rejecting anything outside the two-value set.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAccept:
		return DecisionAccept, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", ErrInvalidDecision
	}
}

// PolicyConfig is the persisted extension whitelist/blacklist and the
// fallback verdict applied when neither list has an opinion.
type PolicyConfig struct {
	Whitelist      []string `json:"whitelist" mapstructure:"whitelist"`
	Blacklist      []string `json:"blacklist" mapstructure:"blacklist"`
	DefaultVerdict Decision `json:"default_verdict" mapstructure:"default_verdict"`
}

// RuleType selects one of the filename heuristic variants.
type RuleType string

const (
	RuleContains   RuleType = "contains"
	RuleExactName  RuleType = "exact"
	RuleDateSuffix RuleType = "date-suffix"
)

// PatternRule is one filename heuristic: a substring, an exact name, or
// a date-shaped suffix after the last dot.
type PatternRule struct {
	Type  RuleType `json:"type" mapstructure:"type"`
	Value string   `json:"value" mapstructure:"value"`
}

// ScanConfig controls the directory scanner.
type ScanConfig struct {
	Workers    int `json:"workers,omitempty" mapstructure:"workers"`
	SampleSize int `json:"sample_size,omitempty" mapstructure:"sample_size"`
}
