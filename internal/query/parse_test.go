package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Query
	}{
		{
			name: "plain",
			text: "select * from doctors where doctorid='D2'",
			want: Query{Projection: "*", Table: "doctors", Field: "doctorid", Value: "D2"},
		},
		{
			name: "case and spacing",
			text: "  SELECT   DoctorName\tFROM Appointments WHERE doctorId = 'A 1'  ",
			want: Query{Projection: "doctorname", Table: "appointments", Field: "doctorid", Value: "A 1"},
		},
		{
			name: "no spaces",
			text: "select*fromdoctorswheredoctorname='Bob'",
			want: Query{Projection: "*", Table: "doctors", Field: "doctorname", Value: "Bob"},
		},
		{
			name: "literal keeps case",
			text: "select * from doctors where doctorname='Mc Donald'",
			want: Query{Projection: "*", Table: "doctors", Field: "doctorname", Value: "Mc Donald"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []string{
		"",
		"select * from doctors where doctorid=D2",
		"select * from doctors where doctorid='D2",
		"select * from doctors where doctorid='D2' and",
		"select name from doctors where doctorid='D2'",
		"select * from patients where doctorid='D2'",
		"select * from doctors where address='x'",
		"select * from doctors doctorid='D2'",
		"delete * from doctors where doctorid='D2'",
		"select * from doctors where doctorid='D'2'",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			require.ErrorIs(t, err, dberr.ErrValidation)
		})
	}
}
