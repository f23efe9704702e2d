package utils

import (
	"fmt"
	"regexp"

	"github.com/ttacon/libphonenumber"
)

var CountryCode = "SA"

func IsValidEmail(email string) bool {
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}
	return nil
}

// NormalizePhoneNumber returns the E.164 form, or the input unchanged when it
// cannot be parsed (legacy rows carry free-form numbers).
func NormalizePhoneNumber(phoneNumber, countryCode string) string {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return phoneNumber
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}

func UniqueSlice[T comparable](input []T) []T {
	seen := make(map[T]struct{}, len(input))
	out := make([]T, 0, len(input))
	for _, v := range input {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}
