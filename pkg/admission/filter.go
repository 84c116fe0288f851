// Package admission decides whether a candidate file should be
// imported as a log source. Three layers are consulted in fixed
// priority order: binary signatures (reject only), filename heuristics
// (accept only), then the extension policy with its default fallback.
// The first layer with an opinion wins and every input resolves to a
// verdict; a scan over thousands of arbitrary files must never abort
// on a single odd one.
package admission

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/varlog/logsift/pkg/api"
	"github.com/varlog/logsift/pkg/pattern"
	"github.com/varlog/logsift/pkg/policy"
	"github.com/varlog/logsift/pkg/signature"
)

// nulRatioLimit is the NUL-byte share above which a sample is treated
// as binary when the supplementary heuristic is enabled.
const nulRatioLimit = 0.05

// Filter is the admission gate. It is stateless per call apart from
// the immutable signature table and the snapshot-read policy, so it is
// safe for concurrent use by scan workers.
type Filter struct {
	table    *signature.Table
	matcher  *pattern.Matcher
	policy   *policy.Store
	nulCheck bool
	logger   *slog.Logger
}

// Options tunes filter construction. Zero value gives built-in rules,
// no NUL heuristic, and the default slog logger.
type Options struct {
	Rules    []api.PatternRule
	NulCheck bool
	Logger   *slog.Logger
}

// New builds a filter around the given policy store. Rule compilation
// errors surface here, never during classification.
func New(pol *policy.Store, opts *Options) (*Filter, error) {
	if opts == nil {
		opts = &Options{}
	}

	matcher := pattern.NewMatcher()
	if opts.Rules != nil {
		m, err := pattern.NewMatcherWith(opts.Rules)
		if err != nil {
			return nil, err
		}
		matcher = m
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Filter{
		table:    signature.NewTable(),
		matcher:  matcher,
		policy:   pol,
		nulCheck: opts.NulCheck,
		logger:   logger,
	}, nil
}

// Classify renders a verdict for one candidate file. The caller
// supplies the path and an already-read head sample; a sample shorter
// than a magic simply cannot match it, so empty or truncated samples
// fall through to the filename layers rather than erroring.
//
// Layer order is deliberate: a recognized binary signature overrides
// everything, including a whitelisted extension or a name like
// app.log, because feeding binary bytes to the text parser corrupts
// downstream state. Filename heuristics beat the policy because
// naming conventions are a stronger signal than a possibly stale
// whitelist.
func (f *Filter) Classify(path string, sample []byte) api.Verdict {
	if sig, ok := f.table.Identify(sample); ok {
		v := api.Verdict{
			Decision: api.DecisionReject,
			Layer:    api.LayerSignature,
			Reason:   fmt.Sprintf("matched %s signature", sig.Format),
		}
		f.logger.Debug("file rejected by signature", "path", path, "format", sig.Format)
		return v
	}

	if f.nulCheck && nulRatio(sample) > nulRatioLimit {
		v := api.Verdict{
			Decision: api.DecisionReject,
			Layer:    api.LayerSignature,
			Reason:   "NUL byte ratio above threshold",
		}
		f.logger.Debug("file rejected by NUL ratio", "path", path)
		return v
	}

	name := filepath.Base(path)
	if rule, ok := f.matcher.Match(name); ok {
		v := api.Verdict{
			Decision: api.DecisionAccept,
			Layer:    api.LayerPattern,
			Reason:   rule + " matched",
		}
		f.logger.Debug("file accepted by pattern", "path", path, "rule", rule)
		return v
	}

	snap := f.policy.Snapshot()
	ext := ExtOf(path)
	if decision, ok := snap.Lookup(ext); ok {
		list := "whitelist"
		if decision == api.DecisionReject {
			list = "blacklist"
		}
		v := api.Verdict{
			Decision: decision,
			Layer:    api.LayerPolicy,
			Reason:   fmt.Sprintf("%s in %s", ext, list),
		}
		f.logger.Debug("file resolved by policy", "path", path, "ext", ext, "decision", decision)
		return v
	}

	return api.Verdict{
		Decision: snap.DefaultVerdict(),
		Layer:    api.LayerDefault,
		Reason:   "no rule matched; applying default",
	}
}

// ExtOf extracts the lowercased extension without its dot. Dotfiles
// like .gitignore and names without a dot have no extension.
func ExtOf(path string) string {
	base := filepath.Base(path)
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 || dot == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[dot+1:])
}

func nulRatio(sample []byte) float64 {
	if len(sample) == 0 {
		return 0
	}
	var nuls int
	for _, b := range sample {
		if b == 0 {
			nuls++
		}
	}
	return float64(nuls) / float64(len(sample))
}
