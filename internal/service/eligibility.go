package service

import (
	"fmt"

	"wrenchbid/internal/models"
)

// CheckEligibility decides whether a workshop may bid on an RFQ,
// judged against the live profile at this moment. The later snapshot
// written into the bid row freezes whatever passed here.
func CheckEligibility(rfq *models.Rfq, workshop *models.Workshop) error {
	if !workshop.Active {
		return fmt.Errorf("%w: workshop is deactivated", ErrNotEligible)
	}

	if rfq.MinWorkshopRating != nil {
		// Unrated shops (zero reviews) are not excluded by a rating
		// floor; a floor compares ratings, not their absence.
		if workshop.ReviewCount > 0 && workshop.Rating < *rfq.MinWorkshopRating {
			return fmt.Errorf("%w: rating %.1f below required %.1f",
				ErrNotEligible, workshop.Rating, *rfq.MinWorkshopRating)
		}
	}

	if len(rfq.RequiredCertifications) > 0 {
		if !workshop.Certifications.ContainsAll(rfq.RequiredCertifications) {
			return fmt.Errorf("%w: missing required certifications", ErrNotEligible)
		}
	}

	return nil
}
