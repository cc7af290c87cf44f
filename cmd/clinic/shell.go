package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/S0me0neR0man/clinicstash/internal/clinic"
	"github.com/S0me0neR0man/clinicstash/internal/dberr"
	"github.com/S0me0neR0man/clinicstash/internal/query"
)

const usage = `commands (fields separated by ';', a blank field keeps the stored value on update):
  add-doctor ID; NAME; ADDRESS
  update-doctor ID; NAME; ADDRESS
  delete-doctor ID
  doctor ID
  add-appointment ID; DATE; DOCTOR_ID
  update-appointment ID; DATE; DOCTOR_ID
  delete-appointment ID
  appointment ID
  select ... from ... where ...='...'
  save
  help
  exit`

// shell reads one command per line and prints the outcome
type shell struct {
	clinic *clinic.Clinic
	query  *query.Interpreter
	out    io.Writer
	prompt bool
	sugar  *zap.SugaredLogger
}

func newShell(c *clinic.Clinic, out io.Writer, logger *zap.Logger) *shell {
	return &shell{
		clinic: c,
		query:  query.NewInterpreter(c, logger),
		out:    out,
		sugar:  logger.Sugar(),
	}
}

// run executes lines from in until exit, end of input or ctx is done
func (s *shell) run(ctx context.Context, in io.Reader) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.sugar.Errorw("read input", "error", err)
		}
	}()

	for {
		if s.prompt {
			fmt.Fprint(s.out, "> ")
		}
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok || !s.exec(strings.TrimSpace(line)) {
				return
			}
		}
	}
}

// exec runs one command line, false means stop
func (s *shell) exec(line string) bool {
	if line == "" {
		return true
	}
	cmd, rest, _ := strings.Cut(line, " ")
	args := splitArgs(rest)

	var err error
	switch strings.ToLower(cmd) {
	case "exit", "quit":
		return false
	case "help":
		fmt.Fprintln(s.out, usage)
	case "save":
		err = s.clinic.Save()
	case "add-doctor":
		err = s.withArgs(args, 3, func() error {
			return s.clinic.AddDoctor(clinic.Doctor{ID: args[0], Name: args[1], Address: args[2]})
		})
	case "update-doctor":
		err = s.withArgs(args, 3, func() error {
			return s.clinic.UpdateDoctor(args[0], clinic.DoctorPatch{Name: args[1], Address: args[2]})
		})
	case "delete-doctor":
		err = s.withArgs(args, 1, func() error { return s.clinic.DeleteDoctor(args[0]) })
	case "doctor":
		err = s.withArgs(args, 1, func() error {
			d, err := s.clinic.Doctor(args[0])
			if err == nil {
				fmt.Fprintf(s.out, "%s | %s | %s\n", d.ID, d.Name, d.Address)
			}
			return err
		})
	case "add-appointment":
		err = s.withArgs(args, 3, func() error {
			return s.clinic.AddAppointment(clinic.Appointment{ID: args[0], Date: args[1], DoctorID: args[2]})
		})
	case "update-appointment":
		err = s.withArgs(args, 3, func() error {
			return s.clinic.UpdateAppointment(args[0], clinic.AppointmentPatch{Date: args[1], DoctorID: args[2]})
		})
	case "delete-appointment":
		err = s.withArgs(args, 1, func() error { return s.clinic.DeleteAppointment(args[0]) })
	case "appointment":
		err = s.withArgs(args, 1, func() error {
			a, err := s.clinic.Appointment(args[0])
			if err == nil {
				fmt.Fprintf(s.out, "%s | %s | %s\n", a.ID, a.Date, a.DoctorID)
			}
			return err
		})
	case "select":
		err = s.runQuery(line)
	default:
		err = dberr.Validation("unknown command %q, try help", cmd)
	}

	if err != nil {
		fmt.Fprintf(s.out, "%s: %v\n", dberr.Kind(err), err)
		s.sugar.Debugw("command failed", "line", line, "error", err)
	}
	return true
}

func (s *shell) runQuery(line string) error {
	res, err := s.query.Exec(line)
	if err != nil {
		return err
	}
	if res.Values != nil {
		for _, v := range res.Values {
			fmt.Fprintln(s.out, v)
		}
	} else {
		for _, rec := range res.Records {
			fmt.Fprintln(s.out, strings.Join(rec, " | "))
		}
	}
	fmt.Fprintf(s.out, "(%d rows)\n", len(res.Keys))
	return nil
}

func (s *shell) withArgs(args []string, n int, fn func() error) error {
	if len(args) != n || args[0] == "" {
		return dberr.Validation("expected %d fields separated by ';'", n)
	}
	return fn()
}

func splitArgs(rest string) []string {
	if strings.TrimSpace(rest) == "" {
		return nil
	}
	args := strings.Split(rest, ";")
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return args
}
