// Package app is the root package of all domain related packages.
//
// All entity types are defined in this package.
package app

import (
	"errors"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Default formats
const (
	DateTimeFormat = "2006.01.02 15:04"
)

var (
	ErrInvalid        = errors.New("invalid operation")
	ErrNotAuthorized  = errors.New("not authorized")
	ErrNotClaimable   = errors.New("not claimable")
	ErrNotFound       = errors.New("object not found")
	ErrReauthenticate = errors.New("please log in again")
	ErrWrongAlliance  = errors.New("character is not a member of the alliance")
)

// Titler returns a caser which converts a string into a title for english language.
// Casers are stateful, so each goroutine needs its own.
func Titler() cases.Caser {
	return cases.Title(language.English)
}

// EntityShort is a short representation of an entity.
type EntityShort[T comparable] struct {
	ID   T
	Name string
}

// VariableDateFormat returns a variable dateformat.
func VariableDateFormat(t time.Time) string {
	var dateFormat string
	if isToday(t) {
		dateFormat = "15:04"
	} else if t.Year() == time.Now().UTC().Year() {
		dateFormat = "Jan 2 15:04"
	} else {
		dateFormat = DateTimeFormat
	}
	return dateFormat
}

func isToday(t time.Time) bool {
	n := time.Now().UTC()
	return t.Day() == n.Day() && t.Month() == n.Month() && t.Year() == n.Year()
}
