package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/schoolrecords/schoolrecords/internal/database"
	"github.com/schoolrecords/schoolrecords/internal/export"
)

var feeHeader = []string{"ID", "STUDENT ID", "STUDENT", "TOTAL", "PAID", "DUE", "LAST PAYMENT"}

func feeRow(f database.Fee) []string {
	return []string{
		formatInt(f.ID), formatInt(f.StudentID), f.StudentName,
		formatInt(f.Total), formatInt(f.Paid), formatInt(f.Due), formatDate(f.LastPaymentDate),
	}
}

func newFeeCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee",
		Short: "Manage fee accounts and payments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List fee accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				fees, err := s.repo.ListFees(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(fees))
				for _, f := range fees {
					rows = append(rows, feeRow(f))
				}
				return deps.render(orEmpty(fees), feeHeader, rows)
			})
		},
	})

	var in database.NewFee
	create := &cobra.Command{
		Use:   "create",
		Short: "Open a fee account for a student",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				id, err := s.repo.CreateFee(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(deps.out, "Created fee %d\n", id)
				return err
			})
		},
	}
	create.Flags().Int64Var(&in.StudentID, "student-id", 0, "Student the account belongs to")
	create.Flags().Int64Var(&in.Total, "total", 0, "Total fee")
	create.Flags().Int64Var(&in.Paid, "paid", 0, "Amount already paid")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <fee-id>",
		Short: "Show one fee account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 1, "fee show <fee-id>"); err != nil {
				return err
			}
			id, err := parseID("fee id", args[0])
			if err != nil {
				return err
			}
			return deps.withStore(cmd, func(s *session) error {
				fee, err := s.repo.GetFee(cmd.Context(), id)
				if err != nil {
					return err
				}
				return deps.render(fee, feeHeader, [][]string{feeRow(*fee)})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "pay <fee-id> <amount>",
		Short:   "Record a payment against a fee account",
		Example: "  schoolrecords fee pay 1 300",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 2, "fee pay <fee-id> <amount>"); err != nil {
				return err
			}
			id, err := parseID("fee id", args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return usageErrorf("amount must be an integer, got %q", args[1])
			}
			return deps.withStore(cmd, func(s *session) error {
				fee, err := s.repo.RecordPayment(cmd.Context(), id, amount)
				if err != nil {
					return err
				}
				return deps.render(fee, feeHeader, [][]string{feeRow(*fee)})
			})
		},
	})
	return cmd
}

func newStatsCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts and the outstanding fee total",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withStore(cmd, func(s *session) error {
				stats, err := s.repo.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return deps.render(stats, []string{"STUDENTS", "TEACHERS", "CLASSES", "SUBJECTS", "OUTSTANDING DUE"}, [][]string{{
					formatInt(stats.Students), formatInt(stats.Teachers), formatInt(stats.Classes),
					formatInt(stats.Subjects), formatInt(stats.OutstandingDue),
				}})
			})
		},
	}
}

func newExportCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write every table to a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArgs(args, 1, "export <file.xlsx>"); err != nil {
				return err
			}
			path := args[0]
			return deps.withStore(cmd, func(s *session) error {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := export.Write(cmd.Context(), s.repo, f); err != nil {
					_ = f.Close()
					_ = os.Remove(path)
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				_, err = fmt.Fprintf(deps.out, "Exported workbook to %s\n", path)
				return err
			})
		},
	}
}
