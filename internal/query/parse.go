// Package query the select statements understood by the clinic shell:
//
//	select * | doctorname from doctors | appointments where doctorid | doctorname | appointmentid = 'value'
//
// Keywords are case-insensitive and whitespace outside the quoted literal is ignored.
package query

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
)

const (
	ProjectAll        = "*"
	ProjectDoctorName = "doctorname"

	TableDoctors      = "doctors"
	TableAppointments = "appointments"

	FieldDoctorID      = "doctorid"
	FieldDoctorName    = "doctorname"
	FieldAppointmentID = "appointmentid"
)

var grammar = regexp.MustCompile(`^select(\*|doctorname)from(doctors|appointments)where(doctorid|doctorname|appointmentid)=$`)

// Query a parsed select statement
type Query struct {
	Projection string
	Table      string
	Field      string
	Value      string
}

func (q Query) String() string {
	return "select " + q.Projection + " from " + q.Table + " where " + q.Field + "='" + q.Value + "'"
}

// Parse checks text against the grammar. The literal keeps its case and spaces.
func Parse(text string) (Query, error) {
	open := strings.IndexByte(text, '\'')
	closing := strings.LastIndexByte(text, '\'')
	if open < 0 || closing == open {
		return Query{}, dberr.Validation("query %q: missing quoted value", text)
	}
	if strings.TrimSpace(text[closing+1:]) != "" {
		return Query{}, dberr.Validation("query %q: text after quoted value", text)
	}
	value := text[open+1 : closing]
	if strings.ContainsRune(value, '\'') {
		return Query{}, dberr.Validation("query %q: quote inside value", text)
	}

	m := grammar.FindStringSubmatch(normalize(text[:open]))
	if m == nil {
		return Query{}, dberr.Validation("query %q: expected select <*|doctorname> from <table> where <field>='<value>'", text)
	}
	return Query{Projection: m[1], Table: m[2], Field: m[3], Value: value}, nil
}

// normalize drops whitespace and lower-cases the rest
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
