package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/schoolrecords/schoolrecords/internal/database"
)

func newMarkCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Record and list exam marks",
	}

	var (
		studentID int64
		limit     int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List marks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := database.MarkFilter{StudentID: optionalID(cmd, "student-id", studentID), Limit: limit}
			return deps.withStore(cmd, func(s *session) error {
				marks, err := s.repo.ListMarks(cmd.Context(), filter)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(marks))
				for _, m := range marks {
					rows = append(rows, []string{
						formatInt(m.ID), m.StudentName, m.ClassLabel, m.SubjectName, m.ExamType,
						formatInt(m.Obtained) + "/" + formatInt(m.Max),
					})
				}
				return deps.render(orEmpty(marks), []string{"ID", "STUDENT", "CLASS", "SUBJECT", "EXAM", "MARKS"}, rows)
			})
		},
	}
	list.Flags().Int64Var(&studentID, "student-id", 0, "Only list this student's marks")
	list.Flags().IntVar(&limit, "limit", 0, "Maximum rows to list (0 lists all)")
	cmd.AddCommand(list)

	var in database.NewMark
	add := &cobra.Command{
		Use:     "add",
		Short:   "Record a mark",
		Example: "  schoolrecords mark add --student-id 1 --subject-id 2 --exam Final --obtained 88 --max 100",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				id, err := s.repo.AddMark(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(deps.out, "Added mark %d\n", id)
				return err
			})
		},
	}
	add.Flags().Int64Var(&in.StudentID, "student-id", 0, "Student the mark belongs to")
	add.Flags().Int64Var(&in.SubjectID, "subject-id", 0, "Subject examined")
	add.Flags().StringVar(&in.ExamType, "exam", "", "Exam type, e.g. Midterm")
	add.Flags().Int64Var(&in.Obtained, "obtained", 0, "Marks obtained")
	add.Flags().Int64Var(&in.Max, "max", 0, "Maximum marks")
	cmd.AddCommand(add)
	return cmd
}

func newAttendanceCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Record and view attendance",
	}
	cmd.AddCommand(newAttendanceMarkCommand(deps))
	cmd.AddCommand(newAttendanceStudentCommand(deps))
	cmd.AddCommand(newAttendanceDateCommand(deps))
	return cmd
}

func newAttendanceMarkCommand(deps commandDeps) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "mark <student-id>=<P|A>...",
		Short: "Record attendance for one date",
		Example: "  schoolrecords attendance mark --date 2024-01-10 1=P 2=A\n" +
			"  schoolrecords attendance mark 3=Present",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageErrorf("usage: attendance mark <student-id>=<P|A>...")
			}
			day := database.DateOf(time.Now())
			if date != "" {
				var err error
				if day, err = database.ParseDate(date); err != nil {
					return usageErrorf("%v", err)
				}
			}
			entries, err := parseAttendanceEntries(args)
			if err != nil {
				return err
			}

			return deps.withStore(cmd, func(s *session) error {
				if err := s.repo.MarkAttendance(cmd.Context(), day, entries); err != nil {
					return err
				}
				_, err := fmt.Fprintf(deps.out, "Recorded attendance for %d students on %s\n", len(entries), day)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Attendance date (YYYY-MM-DD, default today)")
	return cmd
}

func parseAttendanceEntries(args []string) ([]database.AttendanceEntry, error) {
	entries := make([]database.AttendanceEntry, 0, len(args))
	for _, arg := range args {
		rawID, rawStatus, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, usageErrorf("attendance entry %q must look like <student-id>=<P|A>", arg)
		}
		id, err := parseID("student id", rawID)
		if err != nil {
			return nil, err
		}
		status, err := database.ParseAttendanceStatus(rawStatus)
		if err != nil {
			return nil, usageErrorf("%v", err)
		}
		entries = append(entries, database.AttendanceEntry{StudentID: id, Status: status})
	}
	return entries, nil
}

func newAttendanceStudentCommand(deps commandDeps) *cobra.Command {
	var studentID int64

	cmd := &cobra.Command{
		Use:   "student",
		Short: "Show recent attendance for one student, or everyone",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := optionalID(cmd, "student-id", studentID)
			return deps.withStore(cmd, func(s *session) error {
				records, err := s.repo.AttendanceByStudent(cmd.Context(), id)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					rows = append(rows, []string{r.Date.String(), formatInt(r.StudentID), r.StudentName, string(r.Status)})
				}
				return deps.render(orEmpty(records), []string{"DATE", "STUDENT ID", "STUDENT", "STATUS"}, rows)
			})
		},
	}
	cmd.Flags().Int64Var(&studentID, "student-id", 0, "Student to show (default everyone)")
	return cmd
}

func newAttendanceDateCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "date <YYYY-MM-DD>",
		Short: "Show every student's attendance on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 1, "attendance date <YYYY-MM-DD>"); err != nil {
				return err
			}
			day, err := database.ParseDate(args[0])
			if err != nil {
				return usageErrorf("%v", err)
			}

			return deps.withStore(cmd, func(s *session) error {
				daily, err := s.repo.AttendanceByDate(cmd.Context(), day)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(daily))
				for _, d := range daily {
					rows = append(rows, []string{formatInt(d.StudentID), d.StudentName, d.ClassLabel, string(d.Status)})
				}
				return deps.render(orEmpty(daily), []string{"STUDENT ID", "STUDENT", "CLASS", "STATUS"}, rows)
			})
		},
	}
}
