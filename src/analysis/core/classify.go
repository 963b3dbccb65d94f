package core

import "nday-analyzer/src/models"

// ClassifyPrices labels a signal from its two prices. Win means selling at
// the signal price beat waiting; the comparison is strict with no epsilon.
// Equal prices are a named edge case: tie reports it and the policy picks
// the label (TieBreakLose reproduces the historical strict comparison).
func ClassifyPrices(priceAtSignal, resolvedPrice float64, policy models.ETieBreak) (result models.EResult, pctForward float64, tie bool) {
	pctForward = CalculateChangePercent(resolvedPrice, priceAtSignal)

	switch {
	case priceAtSignal > resolvedPrice:
		return models.ResultWin, pctForward, false
	case priceAtSignal == resolvedPrice:
		if policy == models.TieBreakWin {
			return models.ResultWin, pctForward, true
		}
		return models.ResultLose, pctForward, true
	default:
		return models.ResultLose, pctForward, false
	}
}

// -----------------------------------------------------------------------------

// ClassifyOutcome labels a resolved forward outcome. ok is false for an
// unresolved outcome, which has nothing to classify.
func ClassifyOutcome(outcome models.MForwardOutcome, policy models.ETieBreak) (models.MClassifiedOutcome, bool) {
	if !outcome.Resolved || outcome.ResolvedPrice == nil || outcome.ResolvedTradingDate == nil || outcome.ActualCalendarDaysElapsed == nil {
		return models.MClassifiedOutcome{}, false
	}

	result, pctForward, tie := ClassifyPrices(outcome.Signal.PriceAtSignal, *outcome.ResolvedPrice, policy)

	return models.MClassifiedOutcome{
		SignalDate:                outcome.Signal.SignalDate,
		PriceAtSignal:             outcome.Signal.PriceAtSignal,
		PctChange:                 outcome.Signal.PctChange,
		TargetCalendarDate:        outcome.TargetCalendarDate,
		ResolvedTradingDate:       *outcome.ResolvedTradingDate,
		ResolvedPrice:             *outcome.ResolvedPrice,
		ActualCalendarDaysElapsed: *outcome.ActualCalendarDaysElapsed,
		Result:                    result,
		PctChangeForward:          pctForward,
		Tie:                       tie,
	}, true
}

// -----------------------------------------------------------------------------

// ClassifyOutcomes classifies every resolved outcome, keeping input order.
func ClassifyOutcomes(outcomes []models.MForwardOutcome, policy models.ETieBreak) []models.MClassifiedOutcome {
	classified := make([]models.MClassifiedOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if c, ok := ClassifyOutcome(o, policy); ok {
			classified = append(classified, c)
		}
	}
	return classified
}
