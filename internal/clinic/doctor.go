package clinic

import (
	"github.com/S0me0neR0man/clinicstash/internal/stashdb"
)

type Doctor struct {
	ID      string
	Name    string
	Address string
}

// DoctorPatch fields to change, empty ones keep the stored value
type DoctorPatch struct {
	Name    string
	Address string
}

func (d Doctor) record() stashdb.Record {
	return stashdb.Record{d.ID, d.Name, d.Address}
}

func doctorFrom(rec stashdb.Record) Doctor {
	return Doctor{ID: rec[0], Name: rec[doctorName], Address: rec[doctorAddress]}
}

func (c *Clinic) AddDoctor(d Doctor) error {
	return c.commit(c.doctors, c.doctors.Add(d.record()))
}

func (c *Clinic) UpdateDoctor(id string, p DoctorPatch) error {
	rec, err := c.doctors.FindByKey(id)
	if err != nil {
		return err
	}
	d := doctorFrom(rec)
	if p.Name != "" {
		d.Name = p.Name
	}
	if p.Address != "" {
		d.Address = p.Address
	}
	return c.commit(c.doctors, c.doctors.Update(id, d.record()))
}

// DeleteDoctor removes the doctor, appointments referring to it are kept
func (c *Clinic) DeleteDoctor(id string) error {
	return c.commit(c.doctors, c.doctors.Delete(id))
}

func (c *Clinic) Doctor(id string) (Doctor, error) {
	rec, err := c.doctors.FindByKey(id)
	if err != nil {
		return Doctor{}, err
	}
	return doctorFrom(rec), nil
}

func (c *Clinic) DoctorsByName(name string) ([]Doctor, error) {
	recs, err := c.doctors.FindByAttribute(name)
	if err != nil {
		return nil, err
	}
	out := make([]Doctor, 0, len(recs))
	for _, rec := range recs {
		out = append(out, doctorFrom(rec))
	}
	return out, nil
}
