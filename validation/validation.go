// Package validation checks request payloads before anything reaches the store.
// Every Validate function returns either a clean value or Errors.
package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var academicYearPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// FieldError describes one offending field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the list of field errors found in one payload.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Message
}

// Fail returns a single field error.
func Fail(field, format string, args ...interface{}) error {
	return Errors{{Field: field, Message: fmt.Sprintf(format, args...)}}
}

func (e *Errors) add(field, format string, args ...interface{}) {
	*e = append(*e, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e Errors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func checkAcademicYear(errs *Errors, field, v string) {
	if !academicYearPattern.MatchString(v) {
		errs.add(field, "%s must be in format YYYY-YY", field)
	}
}

func parseObjectID(errs *Errors, field, v string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		errs.add(field, "%s must be a valid 24 character hex id", field)
	}
	return id
}

func validEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	return err == nil && addr.Address == v && strings.Contains(v, "@")
}

func validURL(v string) bool {
	u, err := url.Parse(v)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func quoteList(values []string) string {
	return strings.Join(values, ", ")
}
