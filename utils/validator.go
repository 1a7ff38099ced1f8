package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
)

// Minimal internal validator for ledger inputs. Supports:
// - required
// - mobile (Indian mobile number, 10 digits starting 6-9)
// - email
// - nameok (letters, numbers, space, dot, hyphen, apostrophe, 2-100 chars after trim)
// - username (letters, numbers, underscore, dot, 3-80 chars)
// - pwdmin (min length 6)
// - upi (handle@provider)
// - eqfield=OtherField (field equals another field)
// Rules other than required skip empty values.

var (
	reMobile   = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	reEmail    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	reNameOK   = regexp.MustCompile(`^[A-Za-z0-9 .\-']{2,100}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.]{3,80}$`)
)

// ValidateStruct inspects struct tags `validate:"..."` and returns the first error encountered.
func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("ValidateStruct expects a struct or pointer to struct")
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		name := field.Name
		if j := field.Tag.Get("json"); j != "" && j != "-" {
			name = strings.Split(j, ",")[0]
		}
		fv := v.Field(i)
		var sval string
		if fv.IsValid() && fv.Kind() == reflect.String {
			sval = fv.String()
		}
		for _, p := range strings.Split(tag, ",") {
			p = strings.TrimSpace(p)
			if p == "required" {
				if strings.TrimSpace(sval) == "" {
					return errors.New(name + " is required")
				}
				continue
			}
			if sval == "" {
				continue
			}
			switch {
			case p == "mobile":
				if !reMobile.MatchString(sval) {
					return errors.New(name + " must be a 10 digit mobile number")
				}
			case p == "email":
				if !reEmail.MatchString(sval) {
					return errors.New(name + " must be a valid email address")
				}
			case p == "nameok":
				if !reNameOK.MatchString(strings.TrimSpace(sval)) {
					return errors.New(name + " must be 2-100 letters, digits or spaces")
				}
			case p == "username":
				if !reUsername.MatchString(sval) {
					return errors.New(name + " must be 3-80 letters, digits, dots or underscores")
				}
			case p == "pwdmin":
				if len(sval) < 6 {
					return errors.New(name + " must be at least 6 characters")
				}
			case p == "upi":
				if !ValidUPI(sval) {
					return errors.New(name + " must be a valid UPI ID")
				}
			case strings.HasPrefix(p, "eqfield="):
				other := strings.TrimPrefix(p, "eqfield=")
				of := v.FieldByName(other)
				if of.IsValid() && of.Kind() == reflect.String && sval != of.String() {
					return errors.New(name + " must equal " + other)
				}
			}
		}
	}
	return nil
}

// ValidUPI accepts anything shaped like handle@provider.
func ValidUPI(id string) bool {
	id = strings.TrimSpace(id)
	at := strings.IndexByte(id, '@')
	return at > 0 && at < len(id)-1 && strings.Count(id, "@") == 1
}
