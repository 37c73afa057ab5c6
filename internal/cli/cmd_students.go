package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schoolrecords/schoolrecords/internal/database"
	"github.com/schoolrecords/schoolrecords/internal/export"
)

func newStudentCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Manage students",
	}
	cmd.AddCommand(newStudentListCommand(deps))
	cmd.AddCommand(newStudentAddCommand(deps))
	cmd.AddCommand(newStudentDeleteCommand(deps))
	cmd.AddCommand(newStudentImportCommand(deps))
	return cmd
}

func newStudentListCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List students with their class",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				students, err := s.repo.ListStudents(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(students))
				for _, st := range students {
					rows = append(rows, []string{
						formatInt(st.ID), st.Name, string(st.Gender), formatDate(st.DOB),
						formatDate(st.AdmissionDate), st.ClassName, st.Section, st.Stream,
					})
				}
				return deps.render(orEmpty(students),
					[]string{"ID", "NAME", "GENDER", "DOB", "ADMITTED", "CLASS", "SECTION", "STREAM"}, rows)
			})
		},
	}
}

func newStudentAddCommand(deps commandDeps) *cobra.Command {
	var (
		name    string
		gender  string
		dob     string
		classID int64
	)

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a student",
		Example: "  schoolrecords student add --name Asha --gender Female --dob 2010-04-01 --class-id 1",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := database.ParseGender(gender)
			if err != nil {
				return usageErrorf("%v", err)
			}
			in := database.NewStudent{
				Name:    name,
				Gender:  g,
				ClassID: optionalID(cmd, "class-id", classID),
			}
			if dob != "" {
				if in.DOB, err = database.ParseDate(dob); err != nil {
					return usageErrorf("%v", err)
				}
			}

			return deps.withStore(cmd, func(s *session) error {
				id, err := s.repo.AddStudent(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(deps.out, "Added student %d\n", id)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Student name")
	cmd.Flags().StringVar(&gender, "gender", "", "Male, Female or Other")
	cmd.Flags().StringVar(&dob, "dob", "", "Date of birth (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&classID, "class-id", 0, "Class the student is enrolled in")
	return cmd
}

func newStudentDeleteCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <student-id>",
		Short: "Delete a student with their marks, attendance and fees",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 1, "student delete <student-id>"); err != nil {
				return err
			}
			id, err := parseID("student id", args[0])
			if err != nil {
				return err
			}

			return deps.withStore(cmd, func(s *session) error {
				if err := s.repo.DeleteStudent(cmd.Context(), id); err != nil {
					return err
				}
				_, err := fmt.Fprintf(deps.out, "Deleted student %d\n", id)
				return err
			})
		},
	}
}

func newStudentImportCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Add students from a spreadsheet with Name, Gender, DOB and Class ID columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 1, "student import <file.xlsx>"); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return mapCommandError(err)
			}
			defer f.Close()

			students, err := export.ReadStudents(f)
			if err != nil {
				return usageErrorf("%v", err)
			}

			return deps.withStore(cmd, func(s *session) error {
				for i, in := range students {
					if _, err := s.repo.AddStudent(cmd.Context(), in); err != nil {
						return fmt.Errorf("imported %d of %d students: %w", i, len(students), err)
					}
				}
				_, err := fmt.Fprintf(deps.out, "Imported %d students\n", len(students))
				return err
			})
		},
	}
}

func newClassCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "class",
		Short: "Manage classes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List classes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				classes, err := s.repo.ListClasses(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(classes))
				for _, c := range classes {
					rows = append(rows, []string{formatInt(c.ID), c.Name, c.Section, c.Stream})
				}
				return deps.render(orEmpty(classes), []string{"ID", "NAME", "SECTION", "STREAM"}, rows)
			})
		},
	})

	var in database.NewClass
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a class",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				id, err := s.repo.AddClass(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(deps.out, "Added class %d\n", id)
				return err
			})
		},
	}
	add.Flags().StringVar(&in.Name, "name", "", "Class name, e.g. 10")
	add.Flags().StringVar(&in.Section, "section", "", "Section, e.g. A")
	add.Flags().StringVar(&in.Stream, "stream", "", "Stream, e.g. Science")
	cmd.AddCommand(add)
	return cmd
}

func newTeacherCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teacher",
		Short: "Manage teachers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List teachers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				teachers, err := s.repo.ListTeachers(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(teachers))
				for _, t := range teachers {
					rows = append(rows, []string{formatInt(t.ID), t.Name, t.Specialization, t.Email})
				}
				return deps.render(orEmpty(teachers), []string{"ID", "NAME", "SPECIALIZATION", "EMAIL"}, rows)
			})
		},
	})

	var in database.NewTeacher
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a teacher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				id, err := s.repo.AddTeacher(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(deps.out, "Added teacher %d\n", id)
				return err
			})
		},
	}
	add.Flags().StringVar(&in.Name, "name", "", "Teacher name")
	add.Flags().StringVar(&in.Specialization, "specialization", "", "Subject specialization")
	add.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.AddCommand(add)
	return cmd
}

func newSubjectCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subject",
		Short: "Manage subjects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List subjects with their teacher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				subjects, err := s.repo.ListSubjects(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(subjects))
				for _, sub := range subjects {
					rows = append(rows, []string{formatInt(sub.ID), sub.Name, formatOptionalID(sub.TeacherID), sub.TeacherName})
				}
				return deps.render(orEmpty(subjects), []string{"ID", "NAME", "TEACHER ID", "TEACHER"}, rows)
			})
		},
	})

	var (
		name      string
		teacherID int64
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := database.NewSubject{Name: name, TeacherID: optionalID(cmd, "teacher-id", teacherID)}
			return deps.withStore(cmd, func(s *session) error {
				id, err := s.repo.AddSubject(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(deps.out, "Added subject %d\n", id)
				return err
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "Subject name")
	add.Flags().Int64Var(&teacherID, "teacher-id", 0, "Teacher who takes the subject")
	cmd.AddCommand(add)
	return cmd
}

// orEmpty keeps JSON output a list when there are no rows.
func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
