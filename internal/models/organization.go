package models

import (
	"errors"
	"sort"
	"strings"
)

// ErrInvalidOrganization is matched by every *ValidationError.
var ErrInvalidOrganization = errors.New("invalid organization")

// Organization is the registry's only record type. It is written once and never mutated.
type Organization struct {
	ID                    int64  `json:"id"`
	CompanyRegistrationID string `json:"companyRegistrationId"`
	Name                  string `json:"name"`
	Address               string `json:"address"`
}

// OrganizationInput carries the caller supplied fields of a new organization.
// The ID is always assigned by the registry.
type OrganizationInput struct {
	CompanyRegistrationID string `json:"companyRegistrationId"`
	Name                  string `json:"name"`
	Address               string `json:"address"`
}

// Validate reports every missing field at once.
func (in OrganizationInput) Validate() error {
	fields := map[string]string{}

	if strings.TrimSpace(in.CompanyRegistrationID) == "" {
		fields["companyRegistrationId"] = "is required"
	}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}
	if strings.TrimSpace(in.Address) == "" {
		fields["address"] = "is required"
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Organization builds the record stored under id.
func (in OrganizationInput) Organization(id int64) *Organization {
	return &Organization{
		ID:                    id,
		CompanyRegistrationID: in.CompanyRegistrationID,
		Name:                  in.Name,
		Address:               in.Address,
	}
}

// ValidationError lists the problems found per JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	problems := make([]string, 0, len(names))
	for _, name := range names {
		problems = append(problems, name+" "+e.Fields[name])
	}
	return ErrInvalidOrganization.Error() + ": " + strings.Join(problems, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidOrganization
}
