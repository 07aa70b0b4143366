package validation

import (
	"errors"
	"fmt"
	"strings"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors is every failed rule of a single validation pass, in the order the
// rules were checked.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.String()
	}
	return strings.Join(msgs, "; ")
}

func (e Errors) Fields() []string {
	fields := make([]string, len(e))
	for i, fe := range e {
		fields[i] = fe.Field
	}
	return fields
}

// Collector runs every check it is given and keeps all failures. It never
// stops at the first failed field.
type Collector struct {
	errs Errors
}

func (c *Collector) Add(field, message string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: message})
}

func (c *Collector) Check(ok bool, field, message string) bool {
	if !ok {
		c.Add(field, message)
	}
	return ok
}

func (c *Collector) Require(field, value string) bool {
	return c.Check(strings.TrimSpace(value) != "", field, "is required")
}

func (c *Collector) Email(field, value string) bool {
	if !c.Require(field, value) {
		return false
	}
	return c.Check(IsValidEmail(value), field, "must be a valid email address")
}

func (c *Collector) Phone(field, value string) bool {
	if !c.Require(field, value) {
		return false
	}
	return c.Check(IsValidPhone(value), field, "must contain between 7 and 15 digits")
}

func (c *Collector) StrictPhone(field, value string) bool {
	if !c.Require(field, value) {
		return false
	}
	return c.Check(IsValidStrictPhone(value), field, "must be in the format +254XXXXXXXXX")
}

func (c *Collector) Range(field string, n, min, max int) bool {
	return c.Check(n >= min && n <= max, field, fmt.Sprintf("must be between %d and %d", min, max))
}

func (c *Collector) AgeInBracket(field string, age int, bracket string) bool {
	r, ok := BracketRange(bracket)
	if !c.Check(ok, field, fmt.Sprintf("unknown age group %q", bracket)) {
		return false
	}
	return c.Check(r.Contains(age), field, fmt.Sprintf("age %d is outside %s (%d-%d)", age, bracket, r.Min, r.Max))
}

// Merge adds errs to the collector with every field prefixed by prefix.
func (c *Collector) Merge(prefix string, err error) {
	if err == nil {
		return
	}
	var errs Errors
	if !errors.As(err, &errs) {
		c.Add(prefix, err.Error())
		return
	}
	for _, fe := range errs {
		c.Add(prefix+"."+fe.Field, fe.Message)
	}
}

func (c *Collector) Errors() Errors {
	return c.errs
}

// Err returns nil when no check failed.
func (c *Collector) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}
