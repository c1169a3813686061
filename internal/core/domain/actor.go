package domain

import "time"

// Actor identifies who performs an operation. It is passed explicitly into
// every mutating use case and stamped on the audit fields.
type Actor struct {
	UserID   string
	Username string
	Role     Role
}

// SystemActor is used for writes that are not triggered by a request, such as
// the admin bootstrap at startup.
var SystemActor = Actor{Username: "system", Role: RoleAdmin}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Audit carries creation and modification metadata for persisted entities.
type Audit struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
}

// Stamp records a write by actor at now. The creation fields are set only on
// the first stamp.
func (a *Audit) Stamp(actor Actor, now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
		a.CreatedBy = actor.Username
	}
	a.UpdatedAt = now
	a.UpdatedBy = actor.Username
}
