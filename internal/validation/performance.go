package validation

import (
	"github.com/laurensOost/925r/internal/models"
)

// ValidatePerformance checks the invariants shared by all performance kinds.
func ValidatePerformance(candidate *models.Performance, timesheet *models.Timesheet) error {
	if timesheet.Status != models.TimesheetStatusActive {
		return Conflict("timesheet", "performances can only be attached to active timesheets")
	}
	if !timesheet.ContainsDate(candidate.Date) {
		return Conflict("date", "this date is not part of the given timesheet")
	}
	return nil
}

// ValidateActivityPerformance checks an activity performance against its
// contract. `roleAllowed` reports whether the (contract, user, role) triple
// exists; `allowedTypes` is the contract's performance type whitelist (empty
// means any type is allowed).
func ValidateActivityPerformance(candidate *models.Performance, timesheet *models.Timesheet, contract *models.Contract, roleAllowed bool, allowedTypes []models.PerformanceType) error {
	if err := ValidatePerformance(candidate, timesheet); err != nil {
		return err
	}

	if candidate.Duration == nil || !candidate.Duration.IsPositive() {
		return Conflict("duration", "the duration should be a positive number of hours")
	}

	if contract == nil {
		return nil
	}

	if candidate.ContractRoleID != nil && !roleAllowed {
		return Conflict("contract_role", "the selected contract role is not valid for that user on that contract")
	}

	if len(allowedTypes) > 0 && candidate.PerformanceTypeID != nil {
		found := false
		for i := range allowedTypes {
			if allowedTypes[i].ID == *candidate.PerformanceTypeID {
				found = true
				break
			}
		}
		if !found {
			return Conflict("performance_type", "the selected performance type is not valid for the selected contract")
		}
	}

	if !contract.Active {
		return Conflict("contract", "contract is not active")
	}

	return nil
}

// ValidateStandbyPerformance checks a standby performance: unique per
// (contract, timesheet, date) and only legal on support contracts.
func ValidateStandbyPerformance(candidate *models.Performance, timesheet *models.Timesheet, contract *models.Contract, existing []models.Performance) error {
	if err := ValidatePerformance(candidate, timesheet); err != nil {
		return err
	}

	for i := range existing {
		other := &existing[i]
		if other.ID == candidate.ID || other.Kind != models.PerformanceKindStandby {
			continue
		}
		sameContract := (other.ContractID == nil && candidate.ContractID == nil) ||
			(other.ContractID != nil && candidate.ContractID != nil && *other.ContractID == *candidate.ContractID)
		if sameContract && other.TimesheetID == candidate.TimesheetID && models.SameDate(other.Date, candidate.Date) {
			return Conflict("date", "the standby performance is already linked to that contract for that date")
		}
	}

	if contract != nil && !contract.IsSupport() {
		return Conflict("contract", "standby performances can only be created for support contracts")
	}

	return nil
}
