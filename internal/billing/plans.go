package billing

import "github.com/hearthhub/hearthd/internal/models"

// PriceKey identifies a purchasable price in the payment provider.
type PriceKey string

const (
	PriceBasicMonthly PriceKey = "BASIC_MONTHLY"
	PriceBasicYearly  PriceKey = "BASIC_YEARLY"
	PricePlusMonthly  PriceKey = "PLUS_MONTHLY"
	PricePlusYearly   PriceKey = "PLUS_YEARLY"
	PriceProMonthly   PriceKey = "PRO_MONTHLY"
	PriceProYearly    PriceKey = "PRO_YEARLY"
)

// PlanMeta describes one plan tier for display and checkout.
type PlanMeta struct {
	Tier         models.PlanTier `json:"tier"`
	Label        string          `json:"label"`
	Description  string          `json:"description"`
	MonthlyPrice float64         `json:"monthly_price"`
	YearlyPrice  float64         `json:"yearly_price"`
}

// Plans is the plan catalogue, ordered cheapest first. The internal tier
// is a tester plan and never purchasable.
var Plans = []PlanMeta{
	{
		Tier:        models.PlanTierFree,
		Label:       "Free",
		Description: "One calendar, core features to get started.",
	},
	{
		Tier:         models.PlanTierBasic,
		Label:        "Basic",
		Description:  "Up to 3 calendars and 5 members.",
		MonthlyPrice: 4.99,
		YearlyPrice:  49,
	},
	{
		Tier:         models.PlanTierPlus,
		Label:        "Plus",
		Description:  "Unlimited members and calendars.",
		MonthlyPrice: 8.99,
		YearlyPrice:  89,
	},
	{
		Tier:         models.PlanTierPro,
		Label:        "Pro",
		Description:  "Multi-home support and advanced features.",
		MonthlyPrice: 14.99,
		YearlyPrice:  149,
	},
	{
		Tier:        models.PlanTierInternal,
		Label:       "Internal",
		Description: "Tester plan, unlimited everything, no billing.",
	},
}

// TierForPriceKey maps purchasable price keys to the tier they buy.
var TierForPriceKey = map[PriceKey]models.PlanTier{
	PriceBasicMonthly: models.PlanTierBasic,
	PriceBasicYearly:  models.PlanTierBasic,
	PricePlusMonthly:  models.PlanTierPlus,
	PricePlusYearly:   models.PlanTierPlus,
	PriceProMonthly:   models.PlanTierPro,
	PriceProYearly:    models.PlanTierPro,
}

// ValidPriceKey reports whether key can be checked out.
func ValidPriceKey(key PriceKey) bool {
	_, ok := TierForPriceKey[key]
	return ok
}
