package query

import (
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/S0me0neR0man/clinicstash/internal/clinic"
	"github.com/S0me0neR0man/clinicstash/internal/config"
	"github.com/S0me0neR0man/clinicstash/internal/dberr"
	"github.com/S0me0neR0man/clinicstash/internal/stashdb"
)

var (
	once   sync.Once
	logger *zap.Logger
)

func getTestLogger() *zap.Logger {
	once.Do(func() {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatal(err)
		}
	})

	return logger
}

func newTestInterpreter(t *testing.T) (*Interpreter, *clinic.Clinic) {
	t.Helper()
	c, err := clinic.Open(&config.Config{DataDir: t.TempDir(), FreePolicy: "lifo"}, getTestLogger())
	require.NoError(t, err)

	require.NoError(t, c.AddDoctor(clinic.Doctor{ID: "D1", Name: "Alice", Address: "1 Main St"}))
	require.NoError(t, c.AddDoctor(clinic.Doctor{ID: "D2", Name: "Bob", Address: "2 Oak Ave"}))
	require.NoError(t, c.AddDoctor(clinic.Doctor{ID: "D3", Name: "Bob", Address: "3 Elm"}))
	require.NoError(t, c.AddAppointment(clinic.Appointment{ID: "A1", Date: "2024-05-01", DoctorID: "D2"}))
	require.NoError(t, c.AddAppointment(clinic.Appointment{ID: "A2", Date: "2024-05-02", DoctorID: "D2"}))
	require.NoError(t, c.AddAppointment(clinic.Appointment{ID: "A3", Date: "2024-05-03", DoctorID: "D1"}))

	return NewInterpreter(c, getTestLogger()), c
}

func TestInterpreter_Exec(t *testing.T) {
	in, _ := newTestInterpreter(t)

	tests := []struct {
		name string
		text string
		want Result
	}{
		{
			name: "doctor by id",
			text: "select * from doctors where doctorid='D2'",
			want: Result{Table: "doctors", Keys: []string{"D2"}, Records: []stashdb.Record{{"D2", "Bob", "2 Oak Ave"}}},
		},
		{
			name: "doctor name by id",
			text: "select doctorname from doctors where doctorid='D2'",
			want: Result{Table: "doctors", Keys: []string{"D2"}, Values: []string{"Bob"}},
		},
		{
			name: "doctors by name",
			text: "select * from doctors where doctorname='Bob'",
			want: Result{Table: "doctors", Keys: []string{"D2", "D3"}, Records: []stashdb.Record{{"D2", "Bob", "2 Oak Ave"}, {"D3", "Bob", "3 Elm"}}},
		},
		{
			name: "appointment by id",
			text: "select * from appointments where appointmentid='A3'",
			want: Result{Table: "appointments", Keys: []string{"A3"}, Records: []stashdb.Record{{"A3", "2024-05-03", "D1"}}},
		},
		{
			name: "appointments by doctor",
			text: "select * from appointments where doctorid='D2'",
			want: Result{Table: "appointments", Keys: []string{"A1", "A2"}, Records: []stashdb.Record{{"A1", "2024-05-01", "D2"}, {"A2", "2024-05-02", "D2"}}},
		},
		{
			name: "doctor name of appointments",
			text: "select doctorname from appointments where doctorid='D1'",
			want: Result{Table: "appointments", Keys: []string{"A3"}, Values: []string{"Alice"}},
		},
		{
			name: "no match",
			text: "select * from doctors where doctorname='Nobody'",
			want: Result{Table: "doctors", Keys: []string{}, Records: []stashdb.Record{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := in.Exec(tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestInterpreter_Errors(t *testing.T) {
	in, _ := newTestInterpreter(t)

	_, err := in.Exec("select * from doctors where doctorid='D9'")
	require.ErrorIs(t, err, dberr.ErrNotFound)

	_, err = in.Exec("select * from doctors where appointmentid='A1'")
	require.ErrorIs(t, err, dberr.ErrValidation)

	_, err = in.Exec("select * from appointments where doctorname='Bob'")
	require.ErrorIs(t, err, dberr.ErrValidation)

	_, err = in.Exec("select * form doctors where doctorid='D1'")
	require.ErrorIs(t, err, dberr.ErrValidation)
}

func TestInterpreter_DanglingDoctor(t *testing.T) {
	in, c := newTestInterpreter(t)
	require.NoError(t, c.DeleteDoctor("D1"))

	got, err := in.Exec("select doctorname from appointments where doctorid='D1'")
	require.NoError(t, err)
	require.Empty(t, got.Values)
	require.Empty(t, got.Keys)
}
