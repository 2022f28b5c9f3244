package policy

import (
	"fmt"
	"strings"
	"sync/atomic"

	"sentra/internal/domain"
)

// Bundle is the wire form of a rule set submitted to ReloadPolicy.
type Bundle struct {
	Version string `json:"version"`
	Rules   []Rule `json:"rules"`
}

// Store holds the active rule set behind an atomic pointer. Readers never
// observe a partially updated set; the previous set stays valid for
// evaluations that already grabbed it.
type Store struct {
	active atomic.Pointer[RuleSet]
	swaps  atomic.Uint64
}

// NewStore constructs a store with an initial, already-validated set.
func NewStore(initial *RuleSet) *Store {
	s := &Store{}
	s.active.Store(initial)
	return s
}

// Active returns the current rule set. The result is immutable; callers keep
// it for the duration of one evaluation.
func (s *Store) Active() *RuleSet {
	return s.active.Load()
}

// Swaps reports how many successful reloads have occurred.
func (s *Store) Swaps() uint64 {
	return s.swaps.Load()
}

// Reload validates the bundle and, only if fully valid, swaps it in
// atomically. A rejected bundle leaves the active set untouched.
func (s *Store) Reload(bundle Bundle) error {
	set, err := CompileBundle(bundle)
	if err != nil {
		return err
	}
	if set.Version == s.Active().Version {
		return fmt.Errorf("bundle version %q is already active", set.Version)
	}
	s.active.Store(set)
	s.swaps.Add(1)
	return nil
}

// CompileBundle validates a bundle and freezes it into a RuleSet.
func CompileBundle(bundle Bundle) (*RuleSet, error) {
	if bundle.Version == "" {
		return nil, fmt.Errorf("bundle missing version")
	}
	if len(bundle.Rules) == 0 {
		return nil, fmt.Errorf("bundle %q contains no rules", bundle.Version)
	}

	seen := make(map[string]struct{}, len(bundle.Rules))
	rules := make([]Rule, len(bundle.Rules))
	for i, rule := range bundle.Rules {
		if err := validateRule(rule); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule.ID, err)
		}
		if _, dup := seen[rule.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = struct{}{}
		rules[i] = rule
	}

	return &RuleSet{Version: bundle.Version, Rules: rules}, nil
}

func validateRule(rule Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("missing id")
	}
	if err := validatePattern(rule.Pattern); err != nil {
		return err
	}
	if rule.Effect != EffectAllow && rule.Effect != EffectDeny {
		return fmt.Errorf("unknown effect %q", rule.Effect)
	}
	if rule.RequiredTrust != "" {
		switch rule.RequiredTrust {
		case domain.TrustLevelTrusted, domain.TrustLevelPartiallyTrusted, domain.TrustLevelUntrusted:
		default:
			return fmt.Errorf("unknown trust level %q", rule.RequiredTrust)
		}
	}
	if rule.ChallengeThreshold < 0 || rule.ChallengeThreshold > 100 {
		return fmt.Errorf("challenge threshold %v out of range [0,100]", rule.ChallengeThreshold)
	}
	if rule.DenyThreshold < 0 || rule.DenyThreshold > 100 {
		return fmt.Errorf("deny threshold %v out of range [0,100]", rule.DenyThreshold)
	}
	if rule.ChallengeThreshold > 0 && rule.DenyThreshold > 0 &&
		rule.ChallengeThreshold > rule.DenyThreshold {
		return fmt.Errorf("challenge threshold %v above deny threshold %v",
			rule.ChallengeThreshold, rule.DenyThreshold)
	}
	return nil
}

func validatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("missing pattern")
	}
	segs := splitResource(pattern)
	if len(segs) == 0 {
		return fmt.Errorf("pattern %q has no segments", pattern)
	}
	for i, seg := range segs {
		if seg == "*" {
			continue
		}
		if seg == "**" {
			if i != len(segs)-1 {
				return fmt.Errorf("pattern %q: '**' only allowed as final segment", pattern)
			}
			continue
		}
		if strings.ContainsAny(seg, "*?[]{}") {
			return fmt.Errorf("pattern %q: unsupported syntax in segment %q", pattern, seg)
		}
	}
	return nil
}
