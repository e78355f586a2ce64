package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/achu-1612/offcache"
	"github.com/achu-1612/offcache/client"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Read and change students through the offline cache",
}

// source reports on stderr where a read was served from when it was not the network.
func source(cmd *cobra.Command, res *offcache.FetchResult) {
	switch res.Source {
	case offcache.SourceCache:
		cmd.PrintErrln("offline: served from cache")
	case offcache.SourceStaleCache:
		cmd.PrintErrf("backend error (%v): served from cache\n", res.Err)
	}
}

var studentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active students",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		list, res, err := e.students().List(cmd.Context())
		if err != nil {
			return err
		}

		source(cmd, res)

		rows := make([][]string, 0, len(list))

		for _, s := range list {
			rows = append(rows, []string{
				strconv.FormatInt(s.ID, 10),
				s.StudentID,
				s.FullName(),
				s.ParentName,
				strconv.FormatBool(s.IsActive),
			})
		}

		printTable(cmd.OutOrStdout(), []string{"ID", "Student ID", "Name", "Parent", "Active"}, rows)

		return nil
	},
}

var studentsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid student id %q", args[0])
		}

		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		s, res, err := e.students().Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		source(cmd, res)

		return printJSON(cmd.OutOrStdout(), s)
	},
}

var studentsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of active students",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		n, res, err := e.students().Count(cmd.Context())
		if err != nil {
			return err
		}

		source(cmd, res)
		fmt.Fprintln(cmd.OutOrStdout(), n)

		return nil
	},
}

var registration client.Registration

var studentsRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a student, queueing the request when offline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := e.students().Register(cmd.Context(), &registration)

		return report(cmd, s, err)
	},
}

var studentsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Deactivate a student, queueing the request when offline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid student id %q", args[0])
		}

		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		return report(cmd, nil, e.students().Delete(cmd.Context(), id))
	},
}

var studentsReactivateCmd = &cobra.Command{
	Use:   "reactivate ID",
	Short: "Reactivate a student, queueing the request when offline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid student id %q", args[0])
		}

		e, err := newEnv(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := e.students().Reactivate(cmd.Context(), id)

		return report(cmd, s, err)
	},
}

// report prints the outcome of a mutation. A queued mutation is not an error.
func report(cmd *cobra.Command, s *client.Student, err error) error {
	if errors.Is(err, client.ErrQueued) {
		fmt.Fprintln(cmd.OutOrStdout(), err)

		return nil
	}

	if err != nil {
		return err
	}

	if s == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "ok")

		return nil
	}

	return printJSON(cmd.OutOrStdout(), s)
}

func init() {
	f := studentsRegisterCmd.Flags()
	f.StringVar(&registration.FirstName, "first-name", "", "First name")
	f.StringVar(&registration.LastName, "last-name", "", "Last name")
	f.StringVar(&registration.DateOfBirth, "dob", "", "Date of birth (YYYY-MM-DD)")
	f.StringVar(&registration.Gender, "gender", "OTHER", "MALE, FEMALE or OTHER")
	f.StringVar(&registration.Address, "address", "", "Address")
	f.StringVar(&registration.ParentName, "parent-name", "", "Parent name")
	f.StringVar(&registration.ParentPhone, "parent-phone", "", "Parent phone")
	f.StringVar(&registration.ParentEmail, "parent-email", "", "Parent email")
	f.StringVar(&registration.EmergencyContact, "emergency-contact", "", "Emergency contact")
	f.StringVar(&registration.EmergencyPhone, "emergency-phone", "", "Emergency phone")
	f.StringVar(&registration.EnrollmentDate, "enrolled", "", "Enrollment date (YYYY-MM-DD)")

	_ = studentsRegisterCmd.MarkFlagRequired("first-name")
	_ = studentsRegisterCmd.MarkFlagRequired("last-name")

	studentsCmd.AddCommand(studentsListCmd, studentsGetCmd, studentsCountCmd, studentsRegisterCmd, studentsDeleteCmd, studentsReactivateCmd)
}
