// Package booking owns the reservation state machine and the create/update
// flow that must hold the double-booking invariant.
package booking

import "github.com/floorops/restaurant-reservation/internal/model"

// transitions lists the legal edges of the reservation state machine.  The
// legacy behavior of overwriting any status with any other is deliberately
// not kept: Canceled, No-show and Finished are terminal and everything else
// moves forward only.
var transitions = map[string][]string{
	model.ResPending:   {model.ResConfirmed, model.ResCanceled},
	model.ResConfirmed: {model.ResSeated, model.ResCanceled, model.ResNoShow},
	model.ResSeated:    {model.ResFinished},
}

// KnownStatus reports whether s is one of the six reservation statuses.
func KnownStatus(s string) bool {
	switch s {
	case model.ResPending, model.ResConfirmed, model.ResSeated,
		model.ResCanceled, model.ResNoShow, model.ResFinished:
		return true
	}
	return false
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TableStatusFor returns the table status side-effect of a reservation
// entering the given status, and whether the table should change at all.
// Confirming marks the table Reserved, seating marks it Seated, and every
// terminal status releases it back to Available.
func TableStatusFor(status string) (string, bool) {
	switch status {
	case model.ResConfirmed:
		return model.TableReserved, true
	case model.ResSeated:
		return model.TableSeated, true
	case model.ResCanceled, model.ResNoShow, model.ResFinished:
		return model.TableAvailable, true
	}
	return "", false
}
