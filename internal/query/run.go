package query

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/S0me0neR0man/clinicstash/internal/dberr"
	"github.com/S0me0neR0man/clinicstash/internal/stashdb"
)

// Source the collections a query can read
type Source interface {
	Doctors() *stashdb.Stash
	Appointments() *stashdb.Stash
}

// Result rows matched by a query. Records is filled for `select *`,
// Values for `select doctorname`. Keys lists the primary keys of the matched rows.
type Result struct {
	Table   string
	Keys    []string
	Records []stashdb.Record
	Values  []string
}

// Interpreter parses and runs query strings against a Source
type Interpreter struct {
	src   Source
	sugar *zap.SugaredLogger
}

func NewInterpreter(src Source, logger *zap.Logger) *Interpreter {
	return &Interpreter{src: src, sugar: logger.Sugar()}
}

// Exec parses text and runs it
func (in *Interpreter) Exec(text string) (Result, error) {
	q, err := Parse(text)
	if err != nil {
		return Result{}, err
	}
	return in.Run(q)
}

// Run looks the records up through the index matching the where field
func (in *Interpreter) Run(q Query) (Result, error) {
	const msg = "query:"

	var (
		store *stashdb.Stash
		byKey bool
	)
	switch {
	case q.Table == TableDoctors && q.Field == FieldDoctorID:
		store, byKey = in.src.Doctors(), true
	case q.Table == TableDoctors && q.Field == FieldDoctorName:
		store = in.src.Doctors()
	case q.Table == TableAppointments && q.Field == FieldAppointmentID:
		store, byKey = in.src.Appointments(), true
	case q.Table == TableAppointments && q.Field == FieldDoctorID:
		store = in.src.Appointments()
	default:
		return Result{}, fmt.Errorf("%s %w", msg, dberr.Validation("%s cannot be filtered by %s", q.Table, q.Field))
	}

	var recs []stashdb.Record
	if byKey {
		rec, err := store.FindByKey(q.Value)
		if err != nil {
			return Result{}, fmt.Errorf("%s %w", msg, err)
		}
		recs = []stashdb.Record{rec}
	} else {
		var err error
		if recs, err = store.FindByAttribute(q.Value); err != nil {
			return Result{}, fmt.Errorf("%s %w", msg, err)
		}
	}

	res := Result{Table: q.Table, Keys: make([]string, 0, len(recs))}
	if q.Projection == ProjectAll {
		for _, rec := range recs {
			res.Keys = append(res.Keys, rec.Key())
		}
		res.Records = recs
		in.sugar.Debugw("query", "query", q.String(), "rows", len(recs))
		return res, nil
	}

	res.Values = make([]string, 0, len(recs))
	for _, rec := range recs {
		name := rec[store.Schema().Secondary]
		if q.Table == TableAppointments {
			doctorID := name
			var err error
			name, err = in.doctorName(doctorID)
			if errors.Is(err, dberr.ErrNotFound) {
				in.sugar.Warnw("appointment refers to a missing doctor", "appointment", rec.Key(), "doctor", doctorID)
				continue
			}
			if err != nil {
				return Result{}, fmt.Errorf("%s %w", msg, err)
			}
		}
		res.Keys = append(res.Keys, rec.Key())
		res.Values = append(res.Values, name)
	}
	in.sugar.Debugw("query", "query", q.String(), "rows", len(res.Values))
	return res, nil
}

func (in *Interpreter) doctorName(id string) (string, error) {
	doctors := in.src.Doctors()
	rec, err := doctors.FindByKey(id)
	if err != nil {
		return "", err
	}
	return rec[doctors.Schema().Secondary], nil
}
