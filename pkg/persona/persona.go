// Package persona maps quiz answers to a persona and its product bundle.
package persona

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Answers are the categorical quiz answers
type Answers struct {
	Sex         string   `json:"sex" validate:"required,oneof=female male"`
	AgeRange    string   `json:"ageRange,omitempty" validate:"omitempty,oneof=under-25 25-34 35-44 45-54 55+"`
	SkinType    string   `json:"skinType,omitempty" validate:"omitempty,oneof=normal oily dry combination sensitive"`
	Concerns    []string `json:"concerns,omitempty" validate:"omitempty,max=7,dive,concern"`
	Sensitivity string   `json:"sensitivity,omitempty" validate:"omitempty,oneof=low medium high"`
}

// Result is the scoring outcome for one quiz submission
type Result struct {
	Persona             string           `json:"persona"`
	ProductKey          string           `json:"productKey"`
	RecommendedProducts []string         `json:"recommendedProducts"`
	Ingredients         []IngredientCard `json:"ingredients"`
	Routine             []string         `json:"routine"`
	Cautions            []string         `json:"cautions"`
}

// FieldError describes one rejected answer
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Value any    `json:"value,omitempty"`
}

// ValidationError is returned when answers fail validation
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid quiz answers"
	}
	return fmt.Sprintf("invalid quiz answers: %s failed %q", e.Fields[0].Field, e.Fields[0].Rule)
}

var concerns = map[string]bool{
	"acne":         true,
	"wrinkles":     true,
	"dark_circles": true,
	"pores":        true,
	"dark_spots":   true,
	"redness":      true,
	"dullness":     true,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("concern", func(fl validator.FieldLevel) bool {
		return concerns[fl.Field().String()]
	})
	return v
}

// Validate checks answers against the quiz rules
func Validate(a Answers) error {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Namespace(), Rule: fe.Tag(), Value: fe.Value()})
	}
	return out
}

type profile struct {
	persona  string
	primary  string
	bundle   [2]string
	routine  []string
	cautions []string
}

var profiles = map[string]profile{
	"female": {
		persona: "elise",
		primary: "vitamin-c-moisturizer",
		bundle:  [2]string{"vitamin-c-moisturizer", "bha-exfoliant"},
		routine: []string{
			"Morning: cleanse, apply Vitamin C Brightening Moisturizer, finish with SPF 30+.",
			"Evening: cleanse, use the BHA exfoliant 2-3 times a week, then moisturize.",
		},
		cautions: []string{"Introduce BHA gradually: start with two evenings a week."},
	},
	"male": {
		persona: "marc",
		primary: "repairing-serum",
		bundle:  [2]string{"repairing-serum", "rescue-repair-moisturizer"},
		routine: []string{
			"Morning: rinse, apply Barrier Repairing Serum after shaving, finish with SPF 30+.",
			"Evening: cleanse, then apply Rescue Repair Moisturizer.",
		},
		cautions: []string{"Apply the serum to dry skin a few minutes after shaving."},
	},
}

// Score maps quiz answers to a persona, a primary product, and its fixed two-product bundle
func Score(a Answers) (*Result, error) {
	if err := Validate(a); err != nil {
		return nil, err
	}

	p := profiles[a.Sex]
	res := &Result{
		Persona:             p.persona,
		ProductKey:          p.primary,
		RecommendedProducts: []string{p.bundle[0], p.bundle[1]},
		Routine:             append([]string(nil), p.routine...),
		Ingredients:         ingredientCards(p.bundle[:]),
		Cautions:            append(append([]string(nil), p.cautions...), cautions(a)...),
	}
	return res, nil
}

// ingredientCards lists each ingredient of the bundle once, in product order
func ingredientCards(keys []string) []IngredientCard {
	c := DefaultCatalog()
	seen := make(map[string]bool)
	var cards []IngredientCard
	for _, key := range keys {
		prod, ok := c.Product(key)
		if !ok {
			continue
		}
		for _, ing := range prod.Ingredients {
			if seen[ing] {
				continue
			}
			seen[ing] = true
			if card, ok := c.Ingredient(ing); ok {
				cards = append(cards, card)
			}
		}
	}
	return cards
}

func cautions(a Answers) []string {
	var out []string
	if a.Sensitivity == "high" || a.SkinType == "sensitive" {
		out = append(out, "Patch test on the inner arm for 48 hours before first use.")
	}
	for _, c := range a.Concerns {
		switch c {
		case "acne":
			out = append(out, "Do not combine the exfoliant with other acids or retinoids on the same evening.")
		case "redness":
			out = append(out, "Avoid hot water and fragrance while redness persists.")
		case "dark_spots":
			out = append(out, "Daily sunscreen is required for brightening actives to work.")
		}
	}
	if a.AgeRange == "under-25" {
		out = append(out, "Keep the routine simple; add actives one at a time.")
	}
	return out
}
