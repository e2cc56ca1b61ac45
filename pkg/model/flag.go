package model

import (
	"encoding/json"
	"time"
)

// RuleKind discriminates the targeting strategy a rule applies.
type RuleKind string

const (
	RuleKindUserInList   RuleKind = "userInList"
	RuleKindGroupInList  RuleKind = "groupInList"
	RuleKindTimeWindow   RuleKind = "timeWindow"
	RuleKindPercentageOf RuleKind = "percentageOf"
	RuleKindJSONLogic    RuleKind = "jsonLogic"
)

// Flag is a single feature-flag definition.
//
// Enabled is the base toggle and acts as a hard kill switch: when false the
// flag evaluates to false regardless of rules or rollout percentage. Rules
// are evaluated in order, first match wins. RolloutPercentage, when set,
// applies only after no rule has matched.
type Flag struct {
	Enabled           bool   `json:"enabled"`
	Rules             []Rule `json:"rules,omitempty"`
	RolloutPercentage *int   `json:"rolloutPercentage,omitempty"`

	Key string `json:"-"`
}

// Rule is one targeting rule. Kind selects which of the parameter fields are
// meaningful; the rest stay zero.
type Rule struct {
	Kind RuleKind `json:"kind"`

	// Effect is the boolean outcome returned when the rule matches.
	// Omitted means true.
	Effect *bool `json:"effect,omitempty"`

	// userInList / groupInList
	Users  []string `json:"users,omitempty"`
	Groups []string `json:"groups,omitempty"`

	// timeWindow; either bound may be absent for an open-ended window.
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`

	// percentageOf; SubjectKey names the context attribute used as the
	// bucketing subject, empty means the request subject itself.
	Percentage *int   `json:"percentage,omitempty"`
	SubjectKey string `json:"subjectKey,omitempty"`

	// jsonLogic
	Logic json.RawMessage `json:"logic,omitempty"`
}

// Outcome returns the boolean this rule yields on a match.
func (r Rule) Outcome() bool {
	if r.Effect == nil {
		return true
	}
	return *r.Effect
}

// Document is the raw definition payload shape a source adapter supplies:
// a single object with flag definitions nested under the "flags" key.
type Document struct {
	Flags map[string]Flag `json:"flags"`
}
