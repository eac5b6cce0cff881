package branch

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Kind distinguishes the business type of a branch.
type Kind string

const (
	KindRestaurant    Kind = "restaurant"
	KindAccommodation Kind = "accommodation"
)

// SurchargeMode selects how the accommodation levy is computed.
type SurchargeMode string

const (
	// SurchargePerNight charges Rate for every night (sum of item quantities).
	SurchargePerNight SurchargeMode = "perNight"
	// SurchargeSeasonalPerNight charges SummerRate in months 4-10 and WinterRate otherwise.
	SurchargeSeasonalPerNight SurchargeMode = "seasonalPerNight"
	// SurchargePercentNet charges Percent of sum(qty*unitPrice).
	// The unit prices are VAT-inclusive, so this is a share of the gross amount.
	SurchargePercentNet SurchargeMode = "percentNet"
	// SurchargeFlatPerInvoice charges Amount once per invoice.
	SurchargeFlatPerInvoice SurchargeMode = "flatPerInvoice"
)

// DateLayout is the calendar date format used for invoice dates and rule bounds.
const DateLayout = "2006-01-02"

// SurchargeRule describes the levy of an accommodation branch.
// Only the fields relevant to Mode are read.
type SurchargeRule struct {
	Mode          SurchargeMode `json:"mode"`
	Rate          float64       `json:"rate,omitempty"`
	SummerRate    float64       `json:"summerRate,omitempty"`
	WinterRate    float64       `json:"winterRate,omitempty"`
	Percent       float64       `json:"percent,omitempty"`
	Amount        float64       `json:"amount,omitempty"`
	EffectiveFrom string        `json:"effectiveFrom,omitempty"`
	EffectiveTo   string        `json:"effectiveTo,omitempty"`
}

// InEffect reports whether date falls within the rule's optional bounds.
// Bounds or dates that cannot be parsed do not exclude the date.
func (r SurchargeRule) InEffect(date string) bool {
	if r.EffectiveFrom == "" && r.EffectiveTo == "" {
		return true
	}
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return true
	}
	if r.EffectiveFrom != "" {
		if from, err := time.Parse(DateLayout, r.EffectiveFrom); err == nil && d.Before(from) {
			return false
		}
	}
	if r.EffectiveTo != "" {
		if to, err := time.Parse(DateLayout, r.EffectiveTo); err == nil && d.After(to) {
			return false
		}
	}
	return true
}

// Issuer is the legal identity printed on every document of a branch.
type Issuer struct {
	Name       string `json:"name"`
	VAT        string `json:"vat"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"zip"`
	Phone      string `json:"phone,omitempty"`
}

// RevenueMapping holds the myDATA classification data of a branch.
type RevenueMapping struct {
	DocumentType    string         `json:"documentType"`
	RevenueCategory string         `json:"revenueCategory"`
	DefaultVAT      int            `json:"defaultVat"`
	AllowedVATRates []int          `json:"allowedVatRates"`
	VATCategories   map[int]string `json:"vatMap"`
	E3Code          string         `json:"e3Code"`
	E3SurchargeCode string         `json:"e3SurchargeCode"`
	Surcharge       *SurchargeRule `json:"surchargeRule,omitempty"`
}

// Branch is one billing entity with its own series and tax profile.
type Branch struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Series  string         `json:"series"`
	Kind    Kind           `json:"kind"`
	Issuer  Issuer         `json:"issuer"`
	Revenue RevenueMapping `json:"revenueMapping"`
}

// AllowsVATRate reports whether rate is one of the branch's allowed VAT rates.
func (b Branch) AllowsVATRate(rate int) bool {
	return slices.Contains(b.Revenue.AllowedVATRates, rate)
}

// VATCategory returns the myDATA VAT category for rate.
func (b Branch) VATCategory(rate int) string {
	if code, ok := b.Revenue.VATCategories[rate]; ok && code != "" {
		return code
	}
	if rate == 0 {
		return "VAT_0"
	}
	return fmt.Sprintf("%d%%", rate)
}

// SurchargeEligible reports whether the branch charges the accommodation levy.
func (b Branch) SurchargeEligible() bool {
	return b.Kind == KindAccommodation && b.Revenue.Surcharge != nil
}

// E3Surcharge returns the classification code used for levy lines.
func (b Branch) E3Surcharge() string {
	if b.Revenue.E3SurchargeCode != "" {
		return b.Revenue.E3SurchargeCode
	}
	return "E3_SURCHARGE"
}

// E3 returns the classification code used for regular lines.
func (b Branch) E3() string {
	if b.Revenue.E3Code != "" {
		return b.Revenue.E3Code
	}
	return b.Revenue.RevenueCategory
}

var (
	ErrDuplicateBranch = errors.New("duplicate branch id")
	ErrInvalidBranch   = errors.New("invalid branch")
	ErrUnknownBranch   = errors.New("unknown branch")
)

func (b Branch) validate() error {
	if b.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidBranch)
	}
	if b.Series == "" {
		return fmt.Errorf("%w: %s: series is required", ErrInvalidBranch, b.ID)
	}
	if len(b.Revenue.AllowedVATRates) == 0 {
		return fmt.Errorf("%w: %s: at least one allowed VAT rate is required", ErrInvalidBranch, b.ID)
	}
	if r := b.Revenue.Surcharge; r != nil {
		switch r.Mode {
		case SurchargePerNight, SurchargeSeasonalPerNight, SurchargePercentNet, SurchargeFlatPerInvoice:
		default:
			return fmt.Errorf("%w: %s: unknown surcharge mode %q", ErrInvalidBranch, b.ID, r.Mode)
		}
	}
	return nil
}
