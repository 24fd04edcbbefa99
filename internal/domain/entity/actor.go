package entity

import "github.com/google/uuid"

// Actor is the authenticated caller of a usecase.
type Actor struct {
	UserID uuid.UUID
	RoleID int
}

// SystemActor is used for transitions the orchestrator performs on its own (sweeper, video callbacks).
var SystemActor = Actor{}

func (a Actor) IsSystem() bool  { return a.UserID == uuid.Nil }
func (a Actor) IsAdmin() bool   { return a.RoleID == RoleIDAdmin }
func (a Actor) IsDoctor() bool  { return a.RoleID == RoleIDDoctor }
func (a Actor) IsPatient() bool { return a.RoleID == RoleIDPatient }
func (a Actor) IsStaff() bool   { return a.RoleID == RoleIDStaff }

// IsOperator reports whether the actor runs the clinic desk (staff or admin).
func (a Actor) IsOperator() bool {
	return a.IsStaff() || a.IsAdmin() || a.IsSystem()
}

// Ref returns the actor id for audit records, nil for the system.
func (a Actor) Ref() *uuid.UUID {
	if a.IsSystem() {
		return nil
	}
	id := a.UserID
	return &id
}
