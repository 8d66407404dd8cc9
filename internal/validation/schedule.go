package validation

import (
	"github.com/laurensOost/925r/internal/models"
)

// ValidateEmploymentContract checks a candidate employment contract against
// the existing contracts of the same user and company. At most one contract
// per (user, company) may be active on any given day.
func ValidateEmploymentContract(candidate *models.EmploymentContract, company *models.Company, existing []models.EmploymentContract) error {
	if candidate.EndedAt != nil && candidate.EndedAt.Before(candidate.StartedAt) {
		return Conflict("ended_at", "the end date should come after the start date")
	}

	if company != nil && !company.Internal {
		return Conflict("company", "employment contracts can only be created for internal companies")
	}

	for i := range existing {
		other := &existing[i]
		if other.ID == candidate.ID {
			continue
		}
		if other.UserID != candidate.UserID || other.CompanyID != candidate.CompanyID {
			continue
		}
		if intervalsOverlap(candidate.StartedAt, candidate.EndedAt, other.StartedAt, other.EndedAt) {
			return Conflict("user", "the selected user already has an active employment contract for this period")
		}
	}

	return nil
}

// ValidateContractUserWorkSchedule checks a candidate schedule override
// against the existing overrides of the same contract user. Overrides for one
// contract assignment may not overlap.
func ValidateContractUserWorkSchedule(candidate *models.ContractUserWorkSchedule, existing []models.ContractUserWorkSchedule) error {
	if candidate.EndsAt != nil && candidate.EndsAt.Before(candidate.StartsAt) {
		return Conflict("ends_at", "the end date should come after the start date")
	}

	for i := range existing {
		other := &existing[i]
		if other.ID == candidate.ID || other.ContractUserID != candidate.ContractUserID {
			continue
		}
		if intervalsOverlap(candidate.StartsAt, candidate.EndsAt, other.StartsAt, other.EndsAt) {
			return Conflict("starts_at", "the given contract user already has a work schedule for this period")
		}
	}

	return nil
}

// ValidateContract checks the validity window of a contract.
func ValidateContract(candidate *models.Contract) error {
	if candidate.EndsAt != nil && !candidate.StartsAt.Before(*candidate.EndsAt) {
		return Conflict("ends_at", "the start date should be set before the end date")
	}

	if candidate.Kind == models.ContractKindSupport && candidate.FixedFeePeriod != nil && candidate.FixedFee == nil {
		return Conflict("fixed_fee", "a contract with a fixed fee period requires a fixed fee")
	}

	return nil
}
