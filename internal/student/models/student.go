package models

import (
	"fmt"
	"strings"
	"time"

	"stepway/pkg/domain"
)

// Student is the applicant record. The pipeline references students by ID;
// counseling details beyond contact identity live elsewhere.
type Student struct {
	ID        domain.StudentID
	FullName  string
	Email     string
	CreatedAt time.Time
}

// Validate checks the fields required at creation time.
func (s *Student) Validate() error {
	if strings.TrimSpace(s.FullName) == "" {
		return fmt.Errorf("full name is required")
	}
	if !strings.Contains(s.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	return nil
}
