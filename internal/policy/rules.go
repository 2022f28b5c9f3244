// Package policy holds the data-driven rule engine. Rule sets are ordered,
// versioned, and immutable once loaded; reload replaces the active set
// atomically so in-flight evaluations keep the version they started with.
package policy

import (
	"strings"

	"sentra/internal/domain"
)

// Effect is a rule's configured verdict before risk refinement.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Rule matches a resource pattern plus a principal predicate and supplies the
// default verdict. Thresholds refine an ALLOW by risk: above Challenge the
// outcome becomes CHALLENGE, above Deny it becomes DENIED regardless of
// effect. A threshold <= 0 is disabled.
type Rule struct {
	ID       string `json:"id"`
	Pattern  string `json:"pattern"`
	Effect   Effect `json:"effect"`

	// Predicate: all configured parts must hold for the rule to match.
	AnyRole       []string          `json:"any_role,omitempty"`
	MatchAttrs    map[string]string `json:"match_attrs,omitempty"`
	RequiredTrust domain.TrustLevel `json:"required_trust,omitempty"`

	ChallengeThreshold float64 `json:"challenge_threshold,omitempty"`
	DenyThreshold      float64 `json:"deny_threshold,omitempty"`
}

// RuleSet is an immutable, versioned, ordered collection of rules.
type RuleSet struct {
	Version string
	Rules   []Rule
}

// Matches reports whether the rule applies to the given resource, principal,
// and device trust level.
func (r Rule) Matches(resource string, principal domain.Principal, trust domain.TrustLevel) bool {
	if !patternMatches(r.Pattern, resource) {
		return false
	}
	if len(r.AnyRole) > 0 {
		found := false
		for _, role := range r.AnyRole {
			if principal.HasRole(role) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for k, v := range r.MatchAttrs {
		if principal.Attribute(k) != v {
			return false
		}
	}
	if r.RequiredTrust != "" && trust.Rank() > r.RequiredTrust.Rank() {
		return false
	}
	return true
}

// Specificity orders rules for matching: more literal segments beat fewer;
// ties break on total segment count. Higher wins.
func (r Rule) Specificity() (literals, segments int) {
	for _, seg := range strings.Split(r.Pattern, "/") {
		if seg == "" {
			continue
		}
		segments++
		if seg != "*" && seg != "**" {
			literals++
		}
	}
	return literals, segments
}

// patternMatches implements the resource pattern syntax: '/'-separated
// segments where '*' matches exactly one segment and a trailing '**' matches
// any remainder, including none.
func patternMatches(pattern, resource string) bool {
	pSegs := splitResource(pattern)
	rSegs := splitResource(resource)

	for i, p := range pSegs {
		if p == "**" {
			return i == len(pSegs)-1
		}
		if i >= len(rSegs) {
			return false
		}
		if p != "*" && p != rSegs[i] {
			return false
		}
	}
	return len(pSegs) == len(rSegs)
}

func splitResource(s string) []string {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// moreAuthoritative reports whether rule a outranks rule b for the same
// resource: higher specificity first, DENY before ALLOW at equal specificity,
// earlier load order as the final tiebreak (indices ai, bi).
func moreAuthoritative(a Rule, ai int, b Rule, bi int) bool {
	aLit, aSeg := a.Specificity()
	bLit, bSeg := b.Specificity()
	if aLit != bLit {
		return aLit > bLit
	}
	if aSeg != bSeg {
		return aSeg > bSeg
	}
	if a.Effect != b.Effect {
		return a.Effect == EffectDeny
	}
	return ai < bi
}
