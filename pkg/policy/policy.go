// Package policy holds the user-editable extension whitelist/blacklist
// and its default verdict. Readers take an immutable snapshot through
// an atomic pointer; Update is the only writer and swaps a fresh
// snapshot in whole, so a classification call never observes a
// half-applied policy.
package policy

import (
	"database/sql"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/varlog/logsift/internal/errx"
	"github.com/varlog/logsift/pkg/api"
)

// Snapshot is one immutable policy state.
type Snapshot struct {
	whitelist      map[string]struct{}
	blacklist      map[string]struct{}
	defaultVerdict api.Decision
}

// Store owns the live policy for a workspace session.
type Store struct {
	mu      sync.Mutex // serializes Update
	current atomic.Pointer[Snapshot]
	db      *sql.DB // nil for in-memory stores
}

// NewStore builds an in-memory store from cfg. The whitelist and
// blacklist must be disjoint; an extension in both is a configuration
// error, not something to resolve silently.
func NewStore(cfg api.PolicyConfig) (*Store, error) {
	snap, err := compile(cfg)
	if err != nil {
		return nil, err
	}
	s := &Store{}
	s.current.Store(snap)
	return s, nil
}

// Snapshot returns the current policy state. The returned value is
// immutable and safe to use across a whole scan.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Lookup resolves an extension against the current snapshot.
func (s *Store) Lookup(ext string) (api.Decision, bool) {
	return s.Snapshot().Lookup(ext)
}

// Update validates and atomically installs a new policy. On any
// validation or persistence failure the previously active policy
// remains in force.
func (s *Store) Update(cfg api.PolicyConfig) error {
	snap, err := compile(cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		if err := save(s.db, snap.Config()); err != nil {
			return err
		}
	}
	s.current.Store(snap)
	return nil
}

// Close releases the backing database, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns Accept for whitelisted extensions, Reject for
// blacklisted ones, and found=false when the policy has no opinion.
// Comparison is case-insensitive and ignores a leading dot.
func (p *Snapshot) Lookup(ext string) (api.Decision, bool) {
	ext = NormalizeExt(ext)
	if _, ok := p.whitelist[ext]; ok {
		return api.DecisionAccept, true
	}
	if _, ok := p.blacklist[ext]; ok {
		return api.DecisionReject, true
	}
	return "", false
}

// DefaultVerdict is the fallback when no layer had an opinion.
func (p *Snapshot) DefaultVerdict() api.Decision {
	return p.defaultVerdict
}

// Config renders the snapshot back into its persisted form with
// deterministically ordered lists.
func (p *Snapshot) Config() api.PolicyConfig {
	return api.PolicyConfig{
		Whitelist:      sortedKeys(p.whitelist),
		Blacklist:      sortedKeys(p.blacklist),
		DefaultVerdict: p.defaultVerdict,
	}
}

// NormalizeExt lowercases an extension and strips a leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func compile(cfg api.PolicyConfig) (*Snapshot, error) {
	if _, err := api.ParseDecision(string(cfg.DefaultVerdict)); err != nil {
		return nil, errx.With(err, ": default verdict %q", cfg.DefaultVerdict)
	}

	snap := &Snapshot{
		whitelist:      make(map[string]struct{}, len(cfg.Whitelist)),
		blacklist:      make(map[string]struct{}, len(cfg.Blacklist)),
		defaultVerdict: cfg.DefaultVerdict,
	}
	for _, ext := range cfg.Whitelist {
		if ext = NormalizeExt(ext); ext != "" {
			snap.whitelist[ext] = struct{}{}
		}
	}

	var overlap []string
	for _, ext := range cfg.Blacklist {
		ext = NormalizeExt(ext)
		if ext == "" {
			continue
		}
		if _, ok := snap.whitelist[ext]; ok {
			overlap = append(overlap, ext)
			continue
		}
		snap.blacklist[ext] = struct{}{}
	}
	if len(overlap) > 0 {
		sort.Strings(overlap)
		return nil, errx.With(api.ErrPolicyConflict, ": %s", strings.Join(overlap, ", "))
	}

	return snap, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
