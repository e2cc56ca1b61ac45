package store

import (
	"bytes"
	"encoding/json"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"

	"github.com/flagward/flagward/pkg/model"
)

// Manager owns the authoritative current snapshot. Reads go through an
// atomic pointer load so evaluations never wait on a reload in progress;
// the mutex serializes writers only.
type Manager struct {
	mu      sync.Mutex
	current atomic.Pointer[Store]
}

// NewManager returns a manager publishing the empty snapshot at generation 0.
func NewManager() *Manager {
	m := &Manager{}
	m.current.Store(Empty())
	return m
}

// Current returns the latest successfully loaded snapshot. It never fails
// and never blocks: a reload in progress is invisible until its swap lands.
func (m *Manager) Current() *Store {
	return m.current.Load()
}

// Reload parses and validates a raw definition payload and, on success,
// atomically replaces the published snapshot and returns the new generation.
// On failure the previously published snapshot stays untouched and the
// returned error carries a model.ReloadError code.
func (m *Manager) Reload(raw []byte) (uint64, error) {
	flags, err := parseDefinitions(raw)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	generation := m.current.Load().Generation() + 1
	m.current.Store(newStore(flags, generation))
	log.Debugf("published snapshot generation %d with %d flags", generation, len(flags))
	return generation, nil
}

func parseDefinitions(raw []byte) (map[string]model.Flag, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(definitionSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, model.NewReloadError(model.MalformedErrorCode, "%v", err)
	}
	if !result.Valid() {
		return nil, model.NewReloadError(model.MalformedErrorCode, "%s", result.Errors()[0])
	}

	// JSON objects silently collapse repeated keys, so duplicates have to be
	// caught on the raw token stream.
	if name, dup := findDuplicateName(raw); dup {
		return nil, model.NewReloadError(model.DuplicateNameErrorCode, "flag %q defined twice in payload", name)
	}

	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, model.NewReloadError(model.MalformedErrorCode, "%v", err)
	}

	flags := make(map[string]model.Flag, len(doc.Flags))
	for name, flag := range doc.Flags {
		if err := validateFlag(name, flag); err != nil {
			return nil, err
		}
		flag.Key = name
		flags[name] = flag
	}
	return flags, nil
}

func validateFlag(name string, flag model.Flag) error {
	if p := flag.RolloutPercentage; p != nil && (*p < 0 || *p > 100) {
		return model.NewReloadError(model.InvalidRangeErrorCode,
			"flag %q: rolloutPercentage %d outside [0,100]", name, *p)
	}
	for i, rule := range flag.Rules {
		switch rule.Kind {
		case model.RuleKindTimeWindow:
			if rule.Start != nil && rule.End != nil && rule.Start.After(*rule.End) {
				return model.NewReloadError(model.InvalidRangeErrorCode,
					"flag %q rule %d: time window start after end", name, i)
			}
		case model.RuleKindPercentageOf:
			if rule.Percentage == nil {
				return model.NewReloadError(model.MalformedErrorCode,
					"flag %q rule %d: percentageOf rule missing percentage", name, i)
			}
			if *rule.Percentage < 0 || *rule.Percentage > 100 {
				return model.NewReloadError(model.InvalidRangeErrorCode,
					"flag %q rule %d: percentage %d outside [0,100]", name, i, *rule.Percentage)
			}
		case model.RuleKindJSONLogic:
			if len(rule.Logic) == 0 {
				return model.NewReloadError(model.MalformedErrorCode,
					"flag %q rule %d: jsonLogic rule missing logic", name, i)
			}
		}
	}
	return nil
}

// findDuplicateName scans the raw payload's "flags" object for a repeated
// key, returning the first one found.
func findDuplicateName(raw []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return "", false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return "", false
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return "", false
		}
		key, _ := keyTok.(string)
		if key != "flags" {
			if err := skipValue(dec); err != nil {
				return "", false
			}
			continue
		}
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return "", false
		}
		seen := map[string]struct{}{}
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return "", false
			}
			name, _ := nameTok.(string)
			if _, dup := seen[name]; dup {
				return name, true
			}
			seen[name] = struct{}{}
			if err := skipValue(dec); err != nil {
				return "", false
			}
		}
		return "", false
	}
	return "", false
}

func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
