// Package clinic the doctor and appointment collections built on stashdb
package clinic

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/S0me0neR0man/clinicstash/internal/config"
	"github.com/S0me0neR0man/clinicstash/internal/dberr"
	"github.com/S0me0neR0man/clinicstash/internal/stashdb"
)

const (
	DoctorsName      = "doctors"
	AppointmentsName = "appointments"
)

// Doctor record layout: id, name, address. Indexed by name.
var DoctorSchema = stashdb.Schema{
	Name: DoctorsName,
	Fields: []stashdb.Field{
		{Name: "id", MaxLen: 15},
		{Name: "name", MaxLen: 30},
		{Name: "address", MaxLen: 30},
	},
	Secondary: doctorName,
}

// Appointment record layout: id, date, doctor id. Indexed by doctor id.
var AppointmentSchema = stashdb.Schema{
	Name: AppointmentsName,
	Fields: []stashdb.Field{
		{Name: "id", MaxLen: 15},
		{Name: "date", MaxLen: 30},
		{Name: "doctorid", MaxLen: 15},
	},
	Secondary: appointmentDoctor,
}

const (
	doctorName    = 1
	doctorAddress = 2

	appointmentDate   = 1
	appointmentDoctor = 2
)

// Clinic owns both collections
//
// IMPORTANT: does not provide thread safety
type Clinic struct {
	doctors      *stashdb.Stash
	appointments *stashdb.Stash
	autoSave     bool
	sugar        *zap.SugaredLogger
}

// Open prepares cfg.DataDir and both stores, loads them when cfg.Restore is set
func Open(cfg *config.Config, logger *zap.Logger) (*Clinic, error) {
	const msg = "open:"

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("%s %w", msg, dberr.IO("mkdir", cfg.DataDir, err))
	}

	c := &Clinic{
		doctors:      stashdb.NewStash(DoctorSchema, stashdb.FilesIn(cfg.DataDir, DoctorsName), cfg.Policy(), logger),
		appointments: stashdb.NewStash(AppointmentSchema, stashdb.FilesIn(cfg.DataDir, AppointmentsName), cfg.Policy(), logger),
		autoSave:     cfg.AutoSave,
		sugar:        logger.Sugar(),
	}
	c.appointments.Attach(stashdb.ReferenceCheck(appointmentDoctor, c.doctors))

	if cfg.Restore {
		if err := c.Load(); err != nil {
			return nil, fmt.Errorf("%s %w", msg, err)
		}
	}
	c.sugar.Infow("clinic opened", "dir", cfg.DataDir, "policy", cfg.Policy().String(),
		"doctors", c.doctors.Len(), "appointments", c.appointments.Len())
	return c, nil
}

func (c *Clinic) Doctors() *stashdb.Stash {
	return c.doctors
}

func (c *Clinic) Appointments() *stashdb.Stash {
	return c.appointments
}

// Stashes both stores, doctors first
func (c *Clinic) Stashes() []*stashdb.Stash {
	return []*stashdb.Stash{c.doctors, c.appointments}
}

// Load reads the index files of both stores. The stores share nothing so
// they are loaded side by side.
func (c *Clinic) Load() error {
	var g errgroup.Group
	g.Go(c.doctors.Load)
	g.Go(c.appointments.Load)
	return g.Wait()
}

// Save writes the index files of both stores
func (c *Clinic) Save() error {
	return multierr.Combine(c.doctors.Save(), c.appointments.Save())
}

// commit saves s after a successful change when auto save is on
func (c *Clinic) commit(s *stashdb.Stash, err error) error {
	if err != nil || !c.autoSave {
		return err
	}
	return s.Save()
}
