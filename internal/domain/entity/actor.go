package entity

import "github.com/google/uuid"

// ActorRole discriminates who is performing an appointment operation.
type ActorRole string

const (
	ActorRoleDoctor  ActorRole = "doctor"
	ActorRolePatient ActorRole = "patient"
)

// Actor is the explicit identity+role of the caller of a lifecycle or
// booking operation. Authorization decisions switch on Role instead of
// inspecting concrete user types at run time.
type Actor struct {
	Role ActorRole
	ID   uuid.UUID
}

func DoctorActor(id uuid.UUID) Actor {
	return Actor{Role: ActorRoleDoctor, ID: id}
}

func PatientActor(id uuid.UUID) Actor {
	return Actor{Role: ActorRolePatient, ID: id}
}

func (a Actor) IsDoctor() bool {
	return a.Role == ActorRoleDoctor
}

func (a Actor) IsPatient() bool {
	return a.Role == ActorRolePatient
}
