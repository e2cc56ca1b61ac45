package eval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/diegoholiveira/jsonlogic/v3"
	log "github.com/sirupsen/logrus"

	"github.com/flagward/flagward/pkg/model"
	"github.com/flagward/flagward/pkg/store"
)

// Context carries the per-request attributes a flag evaluation may consult.
// It is built once by the gate and read-only from the evaluator's point of
// view. Now is the only clock the evaluator sees, which keeps evaluation a
// pure function of its inputs.
type Context struct {
	SubjectKey string
	Groups     []string
	Now        time.Time
	Attributes map[string]interface{}
}

// IEvaluator is the capability a gate consumes. Alternative implementations
// (remote-config-backed, static fixtures in tests) satisfy the same contract.
type IEvaluator interface {
	IsEnabled(flagKey string, ctx Context) bool
	Generation() uint64
}

// StoreEvaluator evaluates against the snapshot manager's current store,
// re-fetched on every call so a reload takes effect on the next evaluation.
type StoreEvaluator struct {
	manager *store.Manager
}

func NewStoreEvaluator(manager *store.Manager) *StoreEvaluator {
	return &StoreEvaluator{manager: manager}
}

func (e *StoreEvaluator) IsEnabled(flagKey string, ctx Context) bool {
	return IsEnabled(e.manager.Current(), flagKey, ctx)
}

func (e *StoreEvaluator) Generation() uint64 {
	return e.manager.Current().Generation()
}

// IsEnabled decides whether flagKey is on for the given context. A missing
// flag is disabled, never an error. Order: kill switch, then rules (first
// match wins, yielding the rule's effect), then rollout percentage, then the
// base toggle.
func IsEnabled(s *store.Store, flagKey string, ctx Context) bool {
	flag, ok := s.Get(flagKey)
	if !ok {
		return false
	}
	if !flag.Enabled {
		return false
	}
	for _, rule := range flag.Rules {
		if ruleMatches(flagKey, rule, ctx) {
			return rule.Outcome()
		}
	}
	if p := flag.RolloutPercentage; p != nil {
		return Bucket(flagKey, ctx.SubjectKey) < uint64(*p)
	}
	return true
}

// Bucket assigns a subject a stable slot in [0,100) for a given flag. The
// same flag and subject always land in the same slot, so a subject enabled
// at percentage P stays enabled for every P' > P.
func Bucket(flagKey string, subject string) uint64 {
	return xxhash.Sum64String(flagKey+":"+subject) % 100
}

func ruleMatches(flagKey string, rule model.Rule, ctx Context) bool {
	switch rule.Kind {
	case model.RuleKindUserInList:
		return ctx.SubjectKey != "" && containsString(rule.Users, ctx.SubjectKey)

	case model.RuleKindGroupInList:
		for _, group := range ctx.Groups {
			if containsString(rule.Groups, group) {
				return true
			}
		}
		return false

	case model.RuleKindTimeWindow:
		// [start, end), either bound open.
		if rule.Start != nil && ctx.Now.Before(*rule.Start) {
			return false
		}
		if rule.End != nil && !ctx.Now.Before(*rule.End) {
			return false
		}
		return true

	case model.RuleKindPercentageOf:
		if rule.Percentage == nil {
			return false
		}
		subject := ctx.SubjectKey
		if rule.SubjectKey != "" {
			value, ok := ctx.Attributes[rule.SubjectKey]
			if !ok {
				return false
			}
			subject = fmt.Sprintf("%v", value)
		}
		if subject == "" {
			return false
		}
		return Bucket(flagKey, subject) < uint64(*rule.Percentage)

	case model.RuleKindJSONLogic:
		return jsonLogicMatches(rule.Logic, ctx)
	}
	return false
}

func jsonLogicMatches(logic json.RawMessage, ctx Context) bool {
	if len(logic) == 0 {
		return false
	}
	data := map[string]interface{}{
		"subject": ctx.SubjectKey,
		"groups":  ctx.Groups,
	}
	for k, v := range ctx.Attributes {
		data[k] = v
	}
	raw, err := json.Marshal(data)
	if err != nil {
		log.Errorf("marshalling jsonLogic data: %v", err)
		return false
	}
	result, err := jsonlogic.ApplyRaw(logic, raw)
	if err != nil {
		log.Errorf("applying jsonLogic rule: %v", err)
		return false
	}
	return bytes.Equal(bytes.TrimSpace(result), []byte("true"))
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
