package service

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"wrenchbid/internal/models"
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameters, fmt.Sprintf(format, args...))
}

// ValidateBidPayload checks a submission before it touches storage.
// All checks are stateless; gates that need the RFQ row (deadline,
// capacity, duplicates) are enforced transactionally in the database.
func ValidateBidPayload(p *models.BidPayload) error {
	if p.QuoteAmount <= 0 {
		return invalidf("quote_amount must be positive")
	}
	if p.QuoteAmount > models.MaxQuoteAmount {
		return invalidf("quote_amount exceeds %.2f", float64(models.MaxQuoteAmount))
	}

	for name, v := range map[string]float64{
		"parts_cost":        p.PartsCost,
		"labor_cost":        p.LaborCost,
		"shop_supplies_fee": p.ShopSuppliesFee,
		"environmental_fee": p.EnvironmentalFee,
		"tax_amount":        p.TaxAmount,
	} {
		if v < 0 {
			return invalidf("%s must not be negative", name)
		}
		if v > models.MaxQuoteAmount {
			return invalidf("%s exceeds %.2f", name, float64(models.MaxQuoteAmount))
		}
	}

	// Every quote carries an itemized breakdown: at least one of the
	// component costs, and a pre-tax subtotal landing near the
	// headline number. Mismatches beyond the tolerance are either
	// typos or bait pricing.
	if p.PartsCost <= 0 && p.LaborCost <= 0 {
		return invalidf("at least one of parts_cost or labor_cost is required")
	}
	subtotal := p.PartsCost + p.LaborCost + p.ShopSuppliesFee + p.EnvironmentalFee
	preTax := p.QuoteAmount - p.TaxAmount
	if preTax <= 0 {
		return invalidf("tax_amount exceeds quote_amount")
	}
	if math.Abs(subtotal-preTax) > preTax*models.BreakdownTolerance {
		return invalidf("cost breakdown does not match quote_amount")
	}

	descLen := utf8.RuneCountInString(p.Description)
	if descLen < models.MinBidDescriptionLen {
		return invalidf("description must be at least %d characters", models.MinBidDescriptionLen)
	}
	if descLen > models.MaxBidDescriptionLen {
		return invalidf("description must be at most %d characters", models.MaxBidDescriptionLen)
	}

	if p.EstimatedCompletionDays < 0 || p.EstimatedCompletionDays > models.MaxCompletionDays {
		return invalidf("estimated_completion_days must be between 0 and %d", models.MaxCompletionDays)
	}
	if p.EstimatedLaborHours < 0 || p.EstimatedLaborHours > models.MaxLaborHours {
		return invalidf("estimated_labor_hours must be between 0 and %.2f", float64(models.MaxLaborHours))
	}
	if p.PartsWarrantyMonths < 0 || p.PartsWarrantyMonths > models.MaxWarrantyMonths {
		return invalidf("parts_warranty_months must be between 0 and %d", models.MaxWarrantyMonths)
	}
	if p.LaborWarrantyMonths < 0 || p.LaborWarrantyMonths > models.MaxWarrantyMonths {
		return invalidf("labor_warranty_months must be between 0 and %d", models.MaxWarrantyMonths)
	}

	if p.EarliestAvailability != nil && p.EarliestAvailability.Before(time.Now().Add(-24*time.Hour)) {
		return invalidf("earliest_availability is in the past")
	}

	return nil
}

// ValidateRfqParams checks an RFQ before it opens.
func ValidateRfqParams(rfq *models.Rfq, now time.Time) error {
	if rfq.Title == "" {
		return invalidf("title is required")
	}
	if rfq.CustomerID == "" || rfq.MechanicID == "" {
		return invalidf("customer_id and mechanic_id are required")
	}
	if rfq.MaxBids < 1 || rfq.MaxBids > models.MaxMaxBids {
		return invalidf("max_bids must be between 1 and %d", models.MaxMaxBids)
	}

	window := rfq.BidDeadline.Sub(now)
	if window < models.MinBidWindow {
		return invalidf("bid_deadline must be at least %s away", models.MinBidWindow)
	}
	if window > models.MaxBidWindow {
		return invalidf("bid_deadline must be at most %s away", models.MaxBidWindow)
	}

	if rfq.BudgetMin != nil && *rfq.BudgetMin < 0 {
		return invalidf("budget_min must not be negative")
	}
	if rfq.BudgetMax != nil && *rfq.BudgetMax <= 0 {
		return invalidf("budget_max must be positive")
	}
	if rfq.BudgetMin != nil && rfq.BudgetMax != nil && *rfq.BudgetMin > *rfq.BudgetMax {
		return invalidf("budget_min exceeds budget_max")
	}

	if rfq.MinWorkshopRating != nil && (*rfq.MinWorkshopRating < 0 || *rfq.MinWorkshopRating > 5) {
		return invalidf("min_workshop_rating must be between 0 and 5")
	}

	if rfq.Urgency != "" {
		switch rfq.Urgency {
		case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh, models.UrgencyCritical:
		default:
			return invalidf("unknown urgency %q", rfq.Urgency)
		}
	}

	return nil
}
