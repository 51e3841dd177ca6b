package services

import "brosolve-backend-go/internal/models"

// Route identifies which endpoint requested a transition; the close and solve
// routes are narrower than the generic status route.
type Route int

const (
	RouteStatus Route = iota
	RouteClose
	RouteSolve
)

// Transition decides whether a caller with role may move a complaint from
// one status to another. It returns nil when allowed and a 400/403
// ServiceError otherwise. It has no side effects.
func Transition(role models.Role, isOwner bool, from, to models.Status, route Route) error {
	if !to.Valid() {
		return ErrBadRequest("Invalid status")
	}
	staff := role.IsStaff()

	switch route {
	case RouteClose:
		if staff {
			return ErrForbidden("Only students can close complaints")
		}
		if !isOwner {
			return ErrForbidden("You can only close your own complaints")
		}
		if to != models.StatusClosed || from != models.StatusResolved {
			return ErrBadRequest("Can only close resolved complaints")
		}
		return nil
	case RouteSolve:
		if !staff {
			return ErrForbidden("Only admins can resolve complaints")
		}
		if to != models.StatusResolved || (from != models.StatusOpen && from != models.StatusInReview) {
			return ErrBadRequest("Only open or in-review complaints can be resolved")
		}
		return nil
	}

	if !staff {
		if !isOwner {
			return ErrForbidden("You can only update your own complaints")
		}
		if to != models.StatusClosed {
			return ErrForbidden("Students can only close resolved complaints")
		}
		if from != models.StatusResolved {
			return ErrBadRequest("Can only close resolved complaints")
		}
		return nil
	}

	switch to {
	case models.StatusInReview:
		if from == models.StatusOpen {
			return nil
		}
	case models.StatusResolved:
		if from == models.StatusOpen || from == models.StatusInReview {
			return nil
		}
	case models.StatusClosed:
		if from == models.StatusInReview || from == models.StatusResolved {
			return nil
		}
	default:
		return ErrForbidden("Admins can only set status to in_review, resolved or closed")
	}
	return ErrBadRequest("Cannot move a complaint from " + string(from) + " to " + string(to))
}
