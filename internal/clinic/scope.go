package clinic

import (
	"github.com/google/uuid"

	"github.com/hackgods/clinic-records/internal/apperr"
)

// Identity is the authenticated requester. It is passed explicitly to every
// operation; nothing in this package reads a current user from context.
type Identity struct {
	UserID uuid.UUID
}

type Entity string

const (
	EntityPatient    Entity = "patient"
	EntityDoctor     Entity = "doctor"
	EntityAssignment Entity = "assignment"
)

// Field names a filterable attribute. Repositories map each field to their
// own column or attribute and reject fields they do not know.
type Field string

const (
	FieldID           Field = "id"
	FieldOwner        Field = "owner"
	FieldPatientID    Field = "patient_id"
	FieldPatientOwner Field = "patient.owner"
	FieldStatus       Field = "status"
)

// Condition is an equality predicate.
type Condition struct {
	Field Field
	Value any
}

// Filter is a conjunction of conditions. The zero Filter matches everything.
type Filter struct {
	Conditions []Condition
}

func Where(field Field, value any) Filter {
	return Filter{Conditions: []Condition{{Field: field, Value: value}}}
}

// And returns a new filter matching f and every one of others.
func (f Filter) And(others ...Filter) Filter {
	out := Filter{Conditions: make([]Condition, 0, len(f.Conditions))}
	out.Conditions = append(out.Conditions, f.Conditions...)
	for _, o := range others {
		out.Conditions = append(out.Conditions, o.Conditions...)
	}
	return out
}

func (f Filter) IsEmpty() bool { return len(f.Conditions) == 0 }

// ScopeForList returns the predicate bounding what identity may list.
//
//	patient:    owner == identity
//	doctor:     no restriction
//	assignment: patient.owner == identity AND status == active
func ScopeForList(id Identity, entity Entity) Filter {
	switch entity {
	case EntityPatient:
		return Where(FieldOwner, id.UserID)
	case EntityAssignment:
		return Where(FieldPatientOwner, id.UserID).And(Where(FieldStatus, StatusActive))
	default:
		return Filter{}
	}
}

// ScopeForRecord returns the predicate for looking up a single record. An
// assignment lookup is bounded by patient ownership only, not by status, so
// inactive assignments stay reachable by their owner.
func ScopeForRecord(id Identity, entity Entity, recordID uuid.UUID) Filter {
	byID := Where(FieldID, recordID)
	switch entity {
	case EntityPatient:
		return byID.And(Where(FieldOwner, id.UserID))
	case EntityAssignment:
		return byID.And(Where(FieldPatientOwner, id.UserID))
	default:
		return byID
	}
}

// AuthorizeRecordAccess decides whether identity may touch a record owned by
// owner. Denial is reported as not found so that other users' records cannot
// be probed for existence. Doctors are always accessible.
func AuthorizeRecordAccess(id Identity, entity Entity, owner uuid.UUID) error {
	if entity == EntityDoctor {
		return nil
	}
	if owner != id.UserID {
		return apperr.NotFound(string(entity))
	}
	return nil
}

// AuthorizeCreate decides whether identity may create a record of entity.
// For an assignment, patient is the referenced patient as visible to the
// requester; nil means it does not exist or is not theirs, and both cases
// get the same answer.
func AuthorizeCreate(id Identity, entity Entity, patient *Patient) error {
	if entity != EntityAssignment {
		return nil
	}
	if patient == nil || patient.OwnerID != id.UserID {
		return apperr.Validation("patient", "you may only assign doctors to your own patients")
	}
	return nil
}
