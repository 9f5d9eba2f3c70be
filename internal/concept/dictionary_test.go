package concept

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestDictionary(t *testing.T) *Dictionary {
	t.Helper()
	dict, err := LoadEmbedded()
	require.NoError(t, err)
	return dict
}

func TestLoadEmbedded(t *testing.T) {
	dict := loadTestDictionary(t)
	assert.Greater(t, dict.Len(), 30)
	require.NotNil(t, dict.Get("patience"))
	assert.Equal(t, "virtues", dict.Get("patience").Category)
}

func TestLoadFileValidation(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "concepts.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("duplicate key rejected", func(t *testing.T) {
		_, err := LoadFile(write(t, `{"concepts":[
			{"key":"a","category":"virtues","ar":["x"],"en":["x"]},
			{"key":"a","category":"virtues","ar":["y"],"en":["y"]}
		]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("unknown relation target rejected", func(t *testing.T) {
		_, err := LoadFile(write(t, `{"concepts":[
			{"key":"a","category":"virtues","ar":["x"],"en":["x"],
			 "related":[{"key":"ghost","type":"theme","strength":0.5}]}
		]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown relation target")
	})

	t.Run("strength out of range rejected", func(t *testing.T) {
		_, err := LoadFile(write(t, `{"concepts":[
			{"key":"a","category":"virtues","ar":["x"],"en":["x"],
			 "related":[{"key":"a","type":"theme","strength":1.5}]}
		]}`))
		require.Error(t, err)
	})

	t.Run("missing key rejected", func(t *testing.T) {
		_, err := LoadFile(write(t, `{"concepts":[{"category":"virtues"}]}`))
		require.Error(t, err)
	})
}

func TestLookup(t *testing.T) {
	dict := loadTestDictionary(t)

	tests := []struct {
		term string
		want string // expected concept key, "" for no match
	}{
		{"Solomon", "sulayman"},
		{"SULAYMAN", "sulayman"},
		{"سليمان", "sulayman"},
		{"الصبر", "patience"},
		{"صَبْر", "patience"}, // diacritics fold away
		{"patience", "patience"},
		{"Queen of Sheba", "queen_of_sheba"},
		{"ملكة سبأ", "queen_of_sheba"},
		{"بلقيس", "queen_of_sheba"},
		{"tawakkul", "trust_in_god"},
		{"nonexistent", ""},
		{"", ""},
	}
	for _, tt := range tests {
		c := dict.Lookup(tt.term)
		if tt.want == "" {
			assert.Nil(t, c, "term %q", tt.term)
			continue
		}
		require.NotNil(t, c, "term %q", tt.term)
		assert.Equal(t, tt.want, c.Key, "term %q", tt.term)
	}
}

func TestRelationsOf(t *testing.T) {
	dict := loadTestDictionary(t)

	rels := dict.RelationsOf("sulayman")
	require.Len(t, rels, 4)

	// Strength descending
	keys := make([]string, len(rels))
	for i, r := range rels {
		keys[i] = r.Key
		if i > 0 {
			assert.LessOrEqual(t, rels[i].Strength, rels[i-1].Strength)
		}
	}
	assert.Equal(t, []string{"queen_of_sheba", "dawud", "sheba", "justice"}, keys)

	assert.Empty(t, dict.RelationsOf("unknown"))
}

func TestCategories(t *testing.T) {
	dict := loadTestDictionary(t)

	cats := dict.Categories()
	assert.Contains(t, cats, "prophets")
	assert.Contains(t, cats, "virtues")
	assert.Contains(t, cats, "places_events")

	total := 0
	for _, summaries := range cats {
		total += len(summaries)
	}
	assert.Equal(t, dict.Len(), total)
}

func TestSuggest(t *testing.T) {
	dict := loadTestDictionary(t)

	t.Run("prefix match ranks first", func(t *testing.T) {
		suggestions := dict.Suggest("sol", 5)
		require.NotEmpty(t, suggestions)
		assert.Equal(t, "sulayman", suggestions[0].Key)
		assert.InDelta(t, 0.9, suggestions[0].MatchScore, 1e-9)
	})

	t.Run("exact match outranks prefix", func(t *testing.T) {
		suggestions := dict.Suggest("patience", 5)
		require.NotEmpty(t, suggestions)
		assert.Equal(t, "patience", suggestions[0].Key)
		assert.InDelta(t, 1.0, suggestions[0].MatchScore, 1e-9)
	})

	t.Run("arabic partial", func(t *testing.T) {
		suggestions := dict.Suggest("صب", 5)
		require.NotEmpty(t, suggestions)
		assert.Equal(t, "patience", suggestions[0].Key)
	})

	t.Run("limit respected", func(t *testing.T) {
		assert.LessOrEqual(t, len(dict.Suggest("a", 3)), 3)
	})

	t.Run("deterministic ordering on ties", func(t *testing.T) {
		first := dict.Suggest("a", 10)
		second := dict.Suggest("a", 10)
		assert.Equal(t, first, second)
	})

	t.Run("empty query", func(t *testing.T) {
		assert.Empty(t, dict.Suggest("", 5))
		assert.Empty(t, dict.Suggest("patience", 0))
	})
}
