package services

import "bicho/domain/entities"

// ResolveMultiplier derives the effective payout multiplier of a bet type at a placement:
// floor(baseMultiplier / factor). The result is always a whole number so it applies to a
// cent amount without fractional drift.
func ResolveMultiplier(betType *entities.BetType, placement *entities.Placement) (int64, error) {
	if betType == nil || placement == nil {
		return 0, &entities.ConfigurationError{Reason: "bet type and placement are required"}
	}
	if betType.BaseMultiplier <= 0 {
		return 0, &entities.ConfigurationError{BetType: betType.Code, Placement: placement.Code, Reason: "base multiplier must be positive"}
	}
	if placement.Factor <= 0 {
		return 0, &entities.ConfigurationError{BetType: betType.Code, Placement: placement.Code, Reason: "placement factor must be positive"}
	}
	return betType.BaseMultiplier / placement.Factor, nil
}
