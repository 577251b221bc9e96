package validation

import (
	"strings"
	"unicode/utf8"

	"assetflow/models"
)

type DepartmentInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func ValidateDepartment(in DepartmentInput) (*models.Department, error) {
	var errs Errors
	name := strings.TrimSpace(in.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 200 {
		errs.add("name", "name must be between 2 and 200 characters")
	}
	if !oneOf(in.Type, models.DepartmentTypes) {
		errs.add("type", "type must be one of [%s]", quoteList(models.DepartmentTypes))
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return &models.Department{Name: name, Type: in.Type}, nil
}

type VendorInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	ContactNumber string `json:"contactNumber"`
	Address       string `json:"address"`
}

func ValidateVendor(in VendorInput) (*models.Vendor, error) {
	var errs Errors
	v := &models.Vendor{
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		Address:       strings.TrimSpace(in.Address),
	}
	if v.Name == "" {
		errs.add("name", "name is required")
	}
	if v.Email == "" {
		errs.add("email", "email is required")
	} else if !validEmail(v.Email) {
		errs.add("email", "email must be a valid email")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return v, nil
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ValidateRegister returns the normalized registration; Role defaults to officer.
func ValidateRegister(in RegisterInput) (RegisterInput, error) {
	var errs Errors
	out := RegisterInput{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: in.Password,
		Role:     in.Role,
	}
	if n := utf8.RuneCountInString(out.Name); n < 2 || n > 50 {
		errs.add("name", "name must be between 2 and 50 characters")
	}
	if !validEmail(out.Email) {
		errs.add("email", "email must be a valid email")
	}
	if len(out.Password) < 6 {
		errs.add("password", "password must be at least 6 characters long")
	}
	if out.Role == "" {
		out.Role = models.RoleOfficer
	} else if !oneOf(out.Role, []string{models.RoleOfficer, models.RoleAdmin}) {
		errs.add("role", "role must be one of [officer, admin]")
	}
	if err := errs.err(); err != nil {
		return RegisterInput{}, err
	}
	return out, nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func ValidateLogin(in LoginInput) (LoginInput, error) {
	var errs Errors
	out := LoginInput{Email: strings.ToLower(strings.TrimSpace(in.Email)), Password: in.Password}
	if !validEmail(out.Email) {
		errs.add("email", "email must be a valid email")
	}
	if out.Password == "" {
		errs.add("password", "password is required")
	}
	if err := errs.err(); err != nil {
		return LoginInput{}, err
	}
	return out, nil
}
