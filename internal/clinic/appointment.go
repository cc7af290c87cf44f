package clinic

import (
	"github.com/S0me0neR0man/clinicstash/internal/stashdb"
)

type Appointment struct {
	ID       string
	Date     string
	DoctorID string
}

// AppointmentPatch fields to change, empty ones keep the stored value.
// A new DoctorID must name an existing doctor.
type AppointmentPatch struct {
	Date     string
	DoctorID string
}

func (a Appointment) record() stashdb.Record {
	return stashdb.Record{a.ID, a.Date, a.DoctorID}
}

func appointmentFrom(rec stashdb.Record) Appointment {
	return Appointment{ID: rec[0], Date: rec[appointmentDate], DoctorID: rec[appointmentDoctor]}
}

func (c *Clinic) AddAppointment(a Appointment) error {
	return c.commit(c.appointments, c.appointments.Add(a.record()))
}

func (c *Clinic) UpdateAppointment(id string, p AppointmentPatch) error {
	rec, err := c.appointments.FindByKey(id)
	if err != nil {
		return err
	}
	a := appointmentFrom(rec)
	if p.Date != "" {
		a.Date = p.Date
	}
	if p.DoctorID != "" {
		a.DoctorID = p.DoctorID
	}
	return c.commit(c.appointments, c.appointments.Update(id, a.record()))
}

func (c *Clinic) DeleteAppointment(id string) error {
	return c.commit(c.appointments, c.appointments.Delete(id))
}

func (c *Clinic) Appointment(id string) (Appointment, error) {
	rec, err := c.appointments.FindByKey(id)
	if err != nil {
		return Appointment{}, err
	}
	return appointmentFrom(rec), nil
}

func (c *Clinic) AppointmentsByDoctor(doctorID string) ([]Appointment, error) {
	recs, err := c.appointments.FindByAttribute(doctorID)
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0, len(recs))
	for _, rec := range recs {
		out = append(out, appointmentFrom(rec))
	}
	return out, nil
}
