package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Typed identifiers keep student, profile, and document references from being
// mixed up at call sites. They wrap uuid.UUID and enforce validity at parse
// time.

type StudentID uuid.UUID

func NewStudentID() StudentID {
	return StudentID(uuid.New())
}

func ParseStudentID(s string) (StudentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return StudentID{}, fmt.Errorf("invalid student id: %w", err)
	}
	return StudentID(u), nil
}

func (id StudentID) String() string {
	return uuid.UUID(id).String()
}

func (id StudentID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

type ProfileID uuid.UUID

func NewProfileID() ProfileID {
	return ProfileID(uuid.New())
}

func ParseProfileID(s string) (ProfileID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ProfileID{}, fmt.Errorf("invalid profile id: %w", err)
	}
	return ProfileID(u), nil
}

func (id ProfileID) String() string {
	return uuid.UUID(id).String()
}

func (id ProfileID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

type DocumentID uuid.UUID

func NewDocumentID() DocumentID {
	return DocumentID(uuid.New())
}

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DocumentID{}, fmt.Errorf("invalid document id: %w", err)
	}
	return DocumentID(u), nil
}

func (id DocumentID) String() string {
	return uuid.UUID(id).String()
}

func (id DocumentID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}
