// Package item holds the core altimpact document types: aliases, items,
// metrics and collections, along with their normalisation and merge rules.
package item

import (
	"sort"
	"strings"
)

// Alias is a (namespace, id) pair, e.g. (doi, "10.1371/...").
type Alias struct {
	Namespace string
	ID        string
}

// namespaceSynonyms maps non-canonical spellings onto the canonical namespace.
var namespaceSynonyms = map[string]string{
	"digital object identifier": "doi",
	"uri":                       "url",
	"iri":                       "url",
}

// CanonicalNamespace lower-cases ns and resolves known synonyms.
func CanonicalNamespace(ns string) string {
	lower := strings.ToLower(strings.TrimSpace(ns))
	if canon, ok := namespaceSynonyms[lower]; ok {
		return canon
	}
	return lower
}

// AliasSet is a normalised, order-preserving, deduplicated container of
// aliases grouped by canonical namespace.
type AliasSet struct {
	order map[string][]string // namespace -> ids, insertion order
	keys  []string            // namespace insertion order
}

// NewAliasSet returns an empty alias set.
func NewAliasSet() *AliasSet {
	return &AliasSet{order: make(map[string][]string)}
}

// Add inserts a single alias, deduplicating by exact-string equality within
// the canonical namespace: a new id is appended after the namespace's
// existing ids. The "scalar overwrite" rule lives in AddScalar.
func (a *AliasSet) Add(al Alias) {
	ns := CanonicalNamespace(al.Namespace)
	if _, seen := a.order[ns]; !seen {
		a.keys = append(a.keys, ns)
	}
	ids := a.order[ns]
	for _, id := range ids {
		if id == al.ID {
			return
		}
	}
	a.order[ns] = append(ids, al.ID)
}

// AddScalar enforces the "new scalar overwrites" rule: if ns currently holds
// exactly one id, it is replaced; otherwise this behaves like Add.
func (a *AliasSet) AddScalar(al Alias) {
	ns := CanonicalNamespace(al.Namespace)
	if ids, ok := a.order[ns]; ok && len(ids) == 1 {
		a.order[ns][0] = al.ID
		return
	}
	a.Add(al)
}

// AddAll inserts every alias, deduping as Add does.
func (a *AliasSet) AddAll(aliases []Alias) {
	for _, al := range aliases {
		a.Add(al)
	}
}

// IDsFor returns the ids currently stored for a namespace, in insertion order.
func (a *AliasSet) IDsFor(ns string) []string {
	ids := a.order[CanonicalNamespace(ns)]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Namespaces returns the set of namespaces present, in first-insertion order.
func (a *AliasSet) Namespaces() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Tuples flattens the set back into (namespace, id) pairs, namespace order
// first, then id insertion order within each namespace.
func (a *AliasSet) Tuples() []Alias {
	var out []Alias
	for _, ns := range a.keys {
		for _, id := range a.order[ns] {
			out = append(out, Alias{Namespace: ns, ID: id})
		}
	}
	return out
}

// Merge folds other into a. Commutative and idempotent modulo insertion
// order within a namespace, which stays stable relative to a's own history.
func (a *AliasSet) Merge(other *AliasSet) {
	if other == nil {
		return
	}
	for _, al := range other.Tuples() {
		a.Add(al)
	}
}

// Clone returns a deep copy.
func (a *AliasSet) Clone() *AliasSet {
	clone := NewAliasSet()
	for _, ns := range a.keys {
		ids := make([]string, len(a.order[ns]))
		copy(ids, a.order[ns])
		clone.order[ns] = ids
		clone.keys = append(clone.keys, ns)
	}
	return clone
}

// MarshalNamespaces returns a copy of the set as map[string][]string for
// JSON encoding. Ids keep their insertion order within each namespace; the
// returned map carries no namespace order of its own.
func (a *AliasSet) MarshalNamespaces() map[string][]string {
	out := make(map[string][]string, len(a.order))
	for ns, ids := range a.order {
		cp := make([]string, len(ids))
		copy(cp, ids)
		out[ns] = cp
	}
	return out
}

// SortedNamespaces returns namespaces in alphabetical order, useful for
// deterministic test assertions and CSV export column ordering.
func (a *AliasSet) SortedNamespaces() []string {
	out := a.Namespaces()
	sort.Strings(out)
	return out
}

// FromMap rebuilds an AliasSet from a decoded document's alias map. Insertion
// order follows Go's map iteration for the namespace list when loaded from
// storage, but within a namespace id order is preserved since it is a slice.
func FromMap(m map[string][]string) *AliasSet {
	a := NewAliasSet()
	for ns, ids := range m {
		for _, id := range ids {
			a.Add(Alias{Namespace: ns, ID: id})
		}
	}
	return a
}
