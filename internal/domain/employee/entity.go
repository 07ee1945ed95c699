package employee

import "time"

type Employee struct {
	ID               string
	CompanyID        string
	FullName         string
	EmploymentStatus string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
