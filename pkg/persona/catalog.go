package persona

import "sort"

// Traceability describes where a product comes from
type Traceability struct {
	Origin         string   `json:"origin"`
	Manufacturer   string   `json:"manufacturer"`
	BatchPrefix    string   `json:"batchPrefix"`
	Certifications []string `json:"certifications,omitempty"`
}

// Product is one catalog entry
type Product struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Price        float64      `json:"price"`
	Currency     string       `json:"currency"`
	Description  string       `json:"description"`
	Ingredients  []string     `json:"ingredients"`
	Traceability Traceability `json:"traceability"`
}

// IngredientCard explains one active ingredient
type IngredientCard struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Benefit string `json:"benefit"`
}

var catalog = map[string]Product{
	"vitamin-c-moisturizer": {
		ID:          "vitamin-c-moisturizer",
		Name:        "Vitamin C Brightening Moisturizer",
		Price:       34,
		Currency:    "EUR",
		Description: "Daily moisturizer that evens tone and restores radiance.",
		Ingredients: []string{"vitamin-c", "hyaluronic-acid", "niacinamide"},
		Traceability: Traceability{
			Origin:         "France",
			Manufacturer:   "Laboratoire Lumiere",
			BatchPrefix:    "VCM",
			Certifications: []string{"cruelty-free", "vegan"},
		},
	},
	"bha-exfoliant": {
		ID:          "bha-exfoliant",
		Name:        "2% BHA Liquid Exfoliant",
		Price:       29,
		Currency:    "EUR",
		Description: "Leave-on exfoliant that clears pores and smooths texture.",
		Ingredients: []string{"salicylic-acid", "green-tea"},
		Traceability: Traceability{
			Origin:         "Belgium",
			Manufacturer:   "Clarity Labs",
			BatchPrefix:    "BHA",
			Certifications: []string{"cruelty-free"},
		},
	},
	"repairing-serum": {
		ID:          "repairing-serum",
		Name:        "Barrier Repairing Serum",
		Price:       39,
		Currency:    "EUR",
		Description: "Lightweight serum that calms irritation after shaving.",
		Ingredients: []string{"centella", "panthenol", "niacinamide"},
		Traceability: Traceability{
			Origin:         "Germany",
			Manufacturer:   "Nordhaut GmbH",
			BatchPrefix:    "RPS",
			Certifications: []string{"dermatologically-tested"},
		},
	},
	"rescue-repair-moisturizer": {
		ID:          "rescue-repair-moisturizer",
		Name:        "Rescue Repair Moisturizer",
		Price:       31,
		Currency:    "EUR",
		Description: "Rich cream that rebuilds the moisture barrier overnight.",
		Ingredients: []string{"ceramides", "panthenol", "squalane"},
		Traceability: Traceability{
			Origin:         "Germany",
			Manufacturer:   "Nordhaut GmbH",
			BatchPrefix:    "RRM",
			Certifications: []string{"dermatologically-tested", "fragrance-free"},
		},
	},
}

var ingredients = map[string]IngredientCard{
	"vitamin-c":       {Key: "vitamin-c", Name: "Vitamin C", Benefit: "Antioxidant that fades dark spots and brightens dull skin."},
	"hyaluronic-acid": {Key: "hyaluronic-acid", Name: "Hyaluronic acid", Benefit: "Draws water into the skin for lasting hydration."},
	"niacinamide":     {Key: "niacinamide", Name: "Niacinamide", Benefit: "Refines pores and strengthens the skin barrier."},
	"salicylic-acid":  {Key: "salicylic-acid", Name: "Salicylic acid (BHA)", Benefit: "Oil-soluble exfoliant that unclogs pores."},
	"green-tea":       {Key: "green-tea", Name: "Green tea extract", Benefit: "Soothes and protects against environmental stress."},
	"centella":        {Key: "centella", Name: "Centella asiatica", Benefit: "Calms redness and supports healing."},
	"panthenol":       {Key: "panthenol", Name: "Panthenol (B5)", Benefit: "Softens and repairs irritated skin."},
	"ceramides":       {Key: "ceramides", Name: "Ceramides", Benefit: "Rebuild the lipid barrier and lock in moisture."},
	"squalane":        {Key: "squalane", Name: "Squalane", Benefit: "Lightweight emollient that prevents moisture loss."},
}

// Catalog is read-only access to the static product table
type Catalog struct{}

// DefaultCatalog returns the built-in catalog
func DefaultCatalog() Catalog {
	return Catalog{}
}

// Product looks up a product by key
func (Catalog) Product(key string) (Product, bool) {
	p, ok := catalog[key]
	if !ok {
		return Product{}, false
	}
	p.Ingredients = append([]string(nil), p.Ingredients...)
	p.Traceability.Certifications = append([]string(nil), p.Traceability.Certifications...)
	return p, true
}

// Keys lists all product keys in sorted order
func (Catalog) Keys() []string {
	keys := make([]string, 0, len(catalog))
	for k := range catalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ingredient looks up an ingredient card
func (Catalog) Ingredient(key string) (IngredientCard, bool) {
	c, ok := ingredients[key]
	return c, ok
}
