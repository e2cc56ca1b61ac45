package store

import (
	"sort"

	"github.com/flagward/flagward/pkg/model"
)

// Store is an immutable snapshot of all known flag definitions. It is never
// mutated after construction; a reload builds a whole new Store and publishes
// it through the Manager, so any goroutine holding a *Store can keep reading
// it without coordination.
type Store struct {
	flags      map[string]model.Flag
	generation uint64
}

// Empty returns the zero snapshot published before the first successful
// reload: no flags, generation 0.
func Empty() *Store {
	return &Store{flags: map[string]model.Flag{}}
}

func newStore(flags map[string]model.Flag, generation uint64) *Store {
	return &Store{flags: flags, generation: generation}
}

// Get looks up a flag definition by name.
func (s *Store) Get(key string) (model.Flag, bool) {
	flag, ok := s.flags[key]
	return flag, ok
}

// Generation is the monotonically increasing reload counter this snapshot
// was built at.
func (s *Store) Generation() uint64 {
	return s.generation
}

// Len reports the number of flags in the snapshot.
func (s *Store) Len() int {
	return len(s.flags)
}

// FlagInfo is the diagnostic view of one flag definition.
type FlagInfo struct {
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	RuleCount int    `json:"ruleCount"`
}

// Snapshot lists every flag in the store, sorted by name, for the
// introspection surface.
func (s *Store) Snapshot() []FlagInfo {
	infos := make([]FlagInfo, 0, len(s.flags))
	for name, flag := range s.flags {
		infos = append(infos, FlagInfo{
			Name:      name,
			Enabled:   flag.Enabled,
			RuleCount: len(flag.Rules),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
