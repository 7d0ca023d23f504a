package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorePersonas(t *testing.T) {
	tests := []struct {
		sex      string
		persona  string
		product  string
		products []string
	}{
		{"female", "elise", "vitamin-c-moisturizer", []string{"vitamin-c-moisturizer", "bha-exfoliant"}},
		{"male", "marc", "repairing-serum", []string{"repairing-serum", "rescue-repair-moisturizer"}},
	}

	for _, tt := range tests {
		t.Run(tt.sex, func(t *testing.T) {
			res, err := Score(Answers{Sex: tt.sex})
			require.NoError(t, err)
			assert.Equal(t, tt.persona, res.Persona)
			assert.Equal(t, tt.product, res.ProductKey)
			assert.Equal(t, tt.products, res.RecommendedProducts)
			assert.NotEmpty(t, res.Routine)
			assert.NotEmpty(t, res.Ingredients)
			assert.NotEmpty(t, res.Cautions)
		})
	}
}

func TestScoreIngredientsAreUnique(t *testing.T) {
	res, err := Score(Answers{Sex: "male"})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, card := range res.Ingredients {
		assert.False(t, seen[card.Key], "duplicate %s", card.Key)
		seen[card.Key] = true
	}
	assert.True(t, seen["panthenol"])
	assert.True(t, seen["ceramides"])
}

func TestScoreCautions(t *testing.T) {
	base, err := Score(Answers{Sex: "female"})
	require.NoError(t, err)

	res, err := Score(Answers{Sex: "female", Sensitivity: "high", Concerns: []string{"acne", "redness"}, AgeRange: "under-25"})
	require.NoError(t, err)
	assert.Len(t, res.Cautions, len(base.Cautions)+4)
	assert.Contains(t, res.Cautions, "Patch test on the inner arm for 48 hours before first use.")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		answers Answers
		field   string
		rule    string
	}{
		{"missing sex", Answers{}, "Answers.Sex", "required"},
		{"unknown sex", Answers{Sex: "other"}, "Answers.Sex", "oneof"},
		{"bad age", Answers{Sex: "male", AgeRange: "ancient"}, "Answers.AgeRange", "oneof"},
		{"bad concern", Answers{Sex: "female", Concerns: []string{"acne", "freckles"}}, "Answers.Concerns[1]", "concern"},
		{"bad sensitivity", Answers{Sex: "female", Sensitivity: "extreme"}, "Answers.Sensitivity", "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Score(tt.answers)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Fields)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Equal(t, tt.rule, verr.Fields[0].Rule)
		})
	}

	assert.NoError(t, Validate(Answers{Sex: "male", SkinType: "oily", Concerns: []string{"pores"}, Sensitivity: "low", AgeRange: "55+"}))
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, []string{"bha-exfoliant", "repairing-serum", "rescue-repair-moisturizer", "vitamin-c-moisturizer"}, c.Keys())

	p, ok := c.Product("repairing-serum")
	require.True(t, ok)
	assert.Equal(t, "repairing-serum", p.ID)
	assert.NotEmpty(t, p.Traceability.Manufacturer)

	p.Ingredients[0] = "mutated"
	again, _ := c.Product("repairing-serum")
	assert.Equal(t, "centella", again.Ingredients[0], "lookups return copies")

	_, ok = c.Product("missing")
	assert.False(t, ok)

	for _, r := range []string{"female", "male"} {
		res, err := Score(Answers{Sex: r})
		require.NoError(t, err)
		for _, key := range res.RecommendedProducts {
			_, ok := c.Product(key)
			assert.True(t, ok, key)
		}
	}
}
