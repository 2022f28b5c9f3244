package policy

import "sentra/internal/domain"

// Outcome is the policy stage's contribution to a Decision.
type Outcome struct {
	Verdict       domain.Verdict
	Reason        domain.ReasonCode
	RuleID        string
	PolicyVersion string
}

// Evaluator matches computed signals against the active rule set. It reads
// the set once per call, so a concurrent reload never affects an evaluation
// already in progress.
type Evaluator struct {
	store *Store
}

// NewEvaluator constructs an Evaluator over the given store.
func NewEvaluator(store *Store) *Evaluator {
	return &Evaluator{store: store}
}

// Evaluate picks the most authoritative matching rule and refines its effect
// by risk. No matching rule means DENIED: absence of policy is never access.
func (e *Evaluator) Evaluate(principal domain.Principal, trust domain.TrustLevel, score domain.RiskScore, resource string) Outcome {
	set := e.store.Active()
	return EvaluateAgainst(set, principal, trust, score, resource)
}

// EvaluateAgainst evaluates using an explicit rule set. The re-validation
// loop uses this to re-check sessions against the set that replaced theirs.
func EvaluateAgainst(set *RuleSet, principal domain.Principal, trust domain.TrustLevel, score domain.RiskScore, resource string) Outcome {
	matched := false
	var best Rule
	var bestIdx int

	for i, rule := range set.Rules {
		if !rule.Matches(resource, principal, trust) {
			continue
		}
		if !matched || moreAuthoritative(rule, i, best, bestIdx) {
			matched = true
			best = rule
			bestIdx = i
		}
	}

	if !matched {
		return Outcome{
			Verdict:       domain.VerdictDenied,
			Reason:        domain.ReasonNoMatchingRule,
			PolicyVersion: set.Version,
		}
	}

	return refine(best, score, set.Version)
}

func refine(rule Rule, score domain.RiskScore, version string) Outcome {
	out := Outcome{RuleID: rule.ID, PolicyVersion: version}

	// Risk beyond the deny threshold denies regardless of the matched effect.
	if rule.DenyThreshold > 0 && score.Value > rule.DenyThreshold {
		out.Verdict = domain.VerdictDenied
		out.Reason = domain.ReasonRiskExceedsThreshold
		return out
	}

	if rule.Effect == EffectDeny {
		out.Verdict = domain.VerdictDenied
		out.Reason = domain.ReasonPolicyDenied
		return out
	}

	if rule.ChallengeThreshold > 0 && score.Value > rule.ChallengeThreshold {
		out.Verdict = domain.VerdictChallenge
		out.Reason = domain.ReasonRiskRequiresProof
		return out
	}

	out.Verdict = domain.VerdictAllowed
	out.Reason = domain.ReasonPolicyAllowed
	return out
}
