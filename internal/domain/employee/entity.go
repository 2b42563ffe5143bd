package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID                string
	CompanyID         string
	DepartmentID      *string
	OutletID          *string
	EmployeeCode      string
	FullName          string
	ICNumber          string
	DOB               *time.Time
	IsCitizen         bool
	BankName          string
	BankAccountNumber string
	HireDate          time.Time
	Status            Status
	ResignationDate   *time.Time

	// Pay parameters
	BasicSalary    decimal.Decimal
	FixedAllowance decimal.Decimal
	OTEligible     bool

	// Statutory parameters
	EPFVoluntaryRate *decimal.Decimal
	SocsoCategory    SocsoCategory
	PCBMaritalStatus MaritalStatus
	PCBSpouseWorking bool
	PCBDependents    int

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type Status string

const (
	StatusActive   Status = "active"
	StatusResigned Status = "resigned"
)

type SocsoCategory string

const (
	// SocsoCategoryFirst covers both employment injury and invalidity.
	SocsoCategoryFirst SocsoCategory = "first"
	// SocsoCategorySecond is employment injury only (age 60 and above).
	SocsoCategorySecond SocsoCategory = "second"
	SocsoCategoryExempt SocsoCategory = "exempt"
)

type MaritalStatus string

const (
	MaritalSingle  MaritalStatus = "single"
	MaritalMarried MaritalStatus = "married"
)

// AgeAt returns the employee's age in whole years at the given date, or
// 0 when the date of birth is unknown.
func (e Employee) AgeAt(at time.Time) int {
	if e.DOB == nil {
		return 0
	}
	age := at.Year() - e.DOB.Year()
	if at.Month() < e.DOB.Month() || (at.Month() == e.DOB.Month() && at.Day() < e.DOB.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
