package branch

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
)

// Registry is the immutable set of branches known to the service.
// It is built once at startup and passed to every component that needs it.
type Registry struct {
	order    []string
	branches map[string]Branch
}

// NewRegistry validates the branches and indexes them by id, keeping their order.
func NewRegistry(branches ...Branch) (*Registry, error) {
	r := &Registry{branches: make(map[string]Branch, len(branches))}
	for _, b := range branches {
		if err := b.validate(); err != nil {
			return nil, err
		}
		if _, exists := r.branches[b.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBranch, b.ID)
		}
		b.Revenue.AllowedVATRates = append([]int(nil), b.Revenue.AllowedVATRates...)
		b.Revenue.VATCategories = maps.Clone(b.Revenue.VATCategories)
		if b.Revenue.Surcharge != nil {
			rule := *b.Revenue.Surcharge
			b.Revenue.Surcharge = &rule
		}
		r.order = append(r.order, b.ID)
		r.branches[b.ID] = b
	}
	return r, nil
}

// Get returns the branch with the given id.
func (r *Registry) Get(id string) (Branch, bool) {
	b, ok := r.branches[id]
	return b, ok
}

// Lookup is Get returning ErrUnknownBranch for unknown ids.
func (r *Registry) Lookup(id string) (Branch, error) {
	b, ok := r.branches[id]
	if !ok {
		return Branch{}, fmt.Errorf("%w: %q", ErrUnknownBranch, id)
	}
	return b, nil
}

// All returns the branches in registration order.
func (r *Registry) All() []Branch {
	out := make([]Branch, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.branches[id])
	}
	return out
}

// IDs returns the branch ids in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Decode reads a JSON array of branches and builds a registry from it.
func Decode(rd io.Reader) (*Registry, error) {
	var branches []Branch
	if err := json.NewDecoder(rd).Decode(&branches); err != nil {
		return nil, fmt.Errorf("decode branches: %w", err)
	}
	return NewRegistry(branches...)
}

func standardVATCategories() map[int]string {
	return map[int]string{13: "VAT_13", 24: "VAT_24", 0: "VAT_0"}
}

func seasonalLevy() *SurchargeRule {
	return &SurchargeRule{Mode: SurchargeSeasonalPerNight, SummerRate: 8, WinterRate: 2}
}

// Defaults returns the restaurant and the two villas.
func Defaults() []Branch {
	return []Branch{
		{
			ID:     "central",
			Label:  "Italian Corner - Meeting Point",
			Series: "I-REST",
			Kind:   KindRestaurant,
			Issuer: Issuer{
				Name:       "ITALIAN CORNER 'meeting point'",
				VAT:        "099999999",
				Address:    "Μάρκου Πορτάλιου 25",
				City:       "Ρέθυμνο",
				PostalCode: "74100",
				Phone:      "+302831020010",
			},
			Revenue: RevenueMapping{
				DocumentType:    "1.1",
				RevenueCategory: "RESTAURANT_SERVICES",
				DefaultVAT:      13,
				AllowedVATRates: []int{13, 24},
				VATCategories:   standardVATCategories(),
				E3Code:          "E3_RESTAURANT",
				E3SurchargeCode: "E3_SURCHARGE",
			},
		},
		{
			ID:     "villa1",
			Label:  "Villa Alexandros",
			Series: "I-VILLA1",
			Kind:   KindAccommodation,
			Issuer: Issuer{
				Name:       "Villa Alexandros OE",
				VAT:        "088888888",
				Address:    "Eparchiaki Odos Viran Episkopis-Monis Arkadiou 35",
				City:       "Σκουλούφια",
				PostalCode: "74052",
			},
			Revenue: RevenueMapping{
				DocumentType:    "1.1",
				RevenueCategory: "ACCOMMODATION",
				DefaultVAT:      13,
				AllowedVATRates: []int{13, 24},
				VATCategories:   standardVATCategories(),
				E3Code:          "E3_ACCOMMODATION",
				E3SurchargeCode: "E3_SURCHARGE",
				Surcharge:       seasonalLevy(),
			},
		},
		{
			ID:     "villa2",
			Label:  "3A's Family Luxury Villa",
			Series: "I-VILLA2",
			Kind:   KindAccommodation,
			Issuer: Issuer{
				Name:       "3A's Family Luxury Villa OE",
				VAT:        "077777777",
				Address:    "Akadimias Vivi, 39",
				City:       "Ρέθυμνο Πόλη",
				PostalCode: "74150",
			},
			Revenue: RevenueMapping{
				DocumentType:    "1.1",
				RevenueCategory: "ACCOMMODATION",
				DefaultVAT:      13,
				AllowedVATRates: []int{13, 24},
				VATCategories:   standardVATCategories(),
				E3Code:          "E3_ACCOMMODATION",
				E3SurchargeCode: "E3_SURCHARGE",
				Surcharge:       seasonalLevy(),
			},
		},
	}
}

// DefaultRegistry builds the registry of Defaults.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Defaults()...)
	if err != nil {
		panic(fmt.Sprintf("default branches are invalid: %v", err))
	}
	return r
}
