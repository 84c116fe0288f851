package api

const (
	// DefaultSampleSize is how many bytes of the file head the scanner
	// reads for signature matching. 16 covers every built-in magic with
	// margin; reading more keeps the NUL-ratio heuristic meaningful.
	DefaultSampleSize = 512

	DefaultScanWorkers = 8
)

// Config is the full gate configuration.
type Config struct {
	Policy PolicyConfig  `json:"policy" mapstructure:"policy"`
	Rules  []PatternRule `json:"rules,omitempty" mapstructure:"rules"`
	Scan   *ScanConfig   `json:"scan,omitempty" mapstructure:"scan"`

	// NulCheck enables the supplementary NUL-byte-ratio binary
	// heuristic on top of signature matching. Off by default: it
	// trades pattern-layer guarantees for broader binary coverage.
	NulCheck bool `json:"nul_check,omitempty" mapstructure:"nul_check"`
}

// DefaultRules returns the built-in filename heuristics: names log
// collectors conventionally emit, common log substrings, and
// date-shaped suffixes such as access.2024-01-01 or debug.20250103.
func DefaultRules() []PatternRule {
	return []PatternRule{
		{Type: RuleExactName, Value: "syslog"},
		{Type: RuleExactName, Value: "messages"},
		{Type: RuleExactName, Value: "system"},
		{Type: RuleExactName, Value: "stdout"},
		{Type: RuleExactName, Value: "stderr"},
		{Type: RuleContains, Value: "log"},
		{Type: RuleContains, Value: "error"},
		{Type: RuleContains, Value: "access"},
		{Type: RuleDateSuffix, Value: "YYYY-MM-DD"},
		{Type: RuleDateSuffix, Value: "YYYYMMDD"},
		{Type: RuleDateSuffix, Value: "20"},
	}
}

// DefaultPolicy mirrors the stock whitelist/blacklist: plain-text data
// formats in, executables and libraries out, everything else accepted.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		Whitelist:      []string{"log", "txt", "json", "xml", "csv"},
		Blacklist:      []string{"exe", "bat", "sh", "dll", "so"},
		DefaultVerdict: DecisionAccept,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Policy: DefaultPolicy(),
		Rules:  DefaultRules(),
		Scan: &ScanConfig{
			Workers:    DefaultScanWorkers,
			SampleSize: DefaultSampleSize,
		},
	}
}

// GetWorkers returns the configured worker count or the default.
func (s *ScanConfig) GetWorkers() int {
	if s != nil && s.Workers > 0 {
		return s.Workers
	}
	return DefaultScanWorkers
}

// GetSampleSize returns the configured head-sample size or the default.
func (s *ScanConfig) GetSampleSize() int {
	if s != nil && s.SampleSize > 0 {
		return s.SampleSize
	}
	return DefaultSampleSize
}
