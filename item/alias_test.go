package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalNamespace(t *testing.T) {
	cases := map[string]string{
		"DOI":                       "doi",
		"digital object identifier": "doi",
		"URI":                       "url",
		"iri":                       "url",
		"  pmid ":                   "pmid",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalNamespace(in), "input %q", in)
	}
}

func TestAliasSetAddDedupesByExactString(t *testing.T) {
	a := NewAliasSet()
	a.Add(Alias{"doi", "10.1/a"})
	a.Add(Alias{"doi", "10.1/a"})
	a.Add(Alias{"doi", "10.1/b"})
	assert.Equal(t, []string{"10.1/a", "10.1/b"}, a.IDsFor("doi"))
}

func TestAliasSetAddPreservesInsertionOrder(t *testing.T) {
	a := NewAliasSet()
	a.Add(Alias{"url", "http://b"})
	a.Add(Alias{"url", "http://a"})
	assert.Equal(t, []string{"http://b", "http://a"}, a.IDsFor("url"))
}

func TestAliasSetMergeCommutativeAndIdempotent(t *testing.T) {
	left := NewAliasSet()
	left.Add(Alias{"doi", "10.1/a"})
	right := NewAliasSet()
	right.Add(Alias{"doi", "10.1/b"})

	ab := left.Clone()
	ab.Merge(right)
	ba := right.Clone()
	ba.Merge(left)

	require.ElementsMatch(t, ab.Tuples(), ba.Tuples())

	// idempotent: merging again changes nothing
	before := ab.Tuples()
	ab.Merge(right)
	assert.Equal(t, before, ab.Tuples())
}

func TestAliasSetAddScalarOverwritesSingleValue(t *testing.T) {
	a := NewAliasSet()
	a.Add(Alias{"year", "2009"})
	a.AddScalar(Alias{"year", "2010"})
	assert.Equal(t, []string{"2010"}, a.IDsFor("year"))
}

func TestFromMapRoundTrip(t *testing.T) {
	a := NewAliasSet()
	a.Add(Alias{"doi", "10.1/a"})
	a.Add(Alias{"pmid", "123"})

	rebuilt := FromMap(a.MarshalNamespaces())
	require.ElementsMatch(t, a.Tuples(), rebuilt.Tuples())
}
