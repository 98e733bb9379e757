package orders

import "influencer-hub-backend/internal/models"

// transitions lists the statuses reachable from each status. Completed has no
// entry, so nothing leaves it.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusRemaining},
	models.StatusRemaining: {models.StatusRevise, models.StatusCompleted},
	models.StatusRevise:    {models.StatusRevise, models.StatusCompleted},
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesFor returns every status from which to is reachable, in a stable
// order. Stores use it as the guard set of a compare-and-set update.
func SourcesFor(to models.OrderStatus) []models.OrderStatus {
	order := []models.OrderStatus{
		models.StatusPending,
		models.StatusRemaining,
		models.StatusRevise,
		models.StatusCompleted,
	}
	var sources []models.OrderStatus
	for _, from := range order {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

func IsTerminal(s models.OrderStatus) bool {
	return len(transitions[s]) == 0
}
