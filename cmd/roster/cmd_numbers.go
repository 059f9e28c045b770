package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/core"
)

func newNumberCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "number",
		Aliases: []string{"numbers"},
		Short:   "Add, edit, delete and list numbers",
	}
	cmd.AddCommand(
		newNumberListCmd(a),
		newNumberAddCmd(a),
		newNumberEditCmd(a),
		newNumberDeleteCmd(a),
	)
	return cmd
}

// numberFlags are the editable number fields shared by add and edit.
type numberFlags struct {
	phone    string
	name     string
	age      string
	assignee string
	note     string
}

func (f *numberFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.name, "name", "", "contact name")
	cmd.Flags().StringVar(&f.age, "age", "", "age; empty clears it")
	cmd.Flags().StringVar(&f.assignee, "assignee", "", "person display name; empty unassigns")
	cmd.Flags().StringVar(&f.note, "note", "", "free-form note")
}

// apply overlays the flags set on cmd onto in.
func (f *numberFlags) apply(cmd *cobra.Command, in core.NumberInput) (core.NumberInput, error) {
	changed := cmd.Flags().Changed
	if changed("phone") {
		in.PhoneNumber = f.phone
	}
	if changed("name") {
		in.Name = f.name
	}
	if changed("assignee") {
		in.Assignee = f.assignee
	}
	if changed("note") {
		in.Note = f.note
	}
	if changed("age") {
		age, err := parseAgeFlag(f.age)
		if err != nil {
			return in, err
		}
		in.Age = age
	}
	return in, nil
}

func parseAgeFlag(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	age, err := strconv.Atoi(s)
	if err != nil {
		return nil, core.ValidationError{Field: "age", Value: s, Message: "age must be a whole number"}
	}
	return &age, nil
}

func newNumberListCmd(a *app) *cobra.Command {
	var (
		unassigned bool
		assignee   string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List numbers in store order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var records []core.NumberRecord
			for _, n := range a.svc.Store().Numbers() {
				if unassigned && !n.Unassigned() {
					continue
				}
				if assignee != "" && n.Assignee != assignee {
					continue
				}
				records = append(records, n)
			}

			out := cmd.OutOrStdout()
			if format != "" {
				return writeNumbers(out, format, records)
			}
			for _, n := range records {
				printNumber(out, n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unassigned, "unassigned", false, "only numbers without an assignee")
	cmd.Flags().StringVar(&assignee, "assignee", "", "only numbers assigned to this person")
	cmd.Flags().StringVar(&format, "format", "", "csv or json instead of the plain listing")
	return cmd
}

func newNumberAddCmd(a *app) *cobra.Command {
	var f numberFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add one number manually",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.apply(cmd, core.NumberInput{})
			if err != nil {
				return err
			}
			rec, err := a.svc.AddNumber(cmd.Context(), in)
			if err != nil {
				return err
			}
			printNumber(cmd.OutOrStdout(), rec)
			return nil
		},
	}

	f.register(cmd)
	cmd.MarkFlagRequired("phone")
	return cmd
}

func newNumberEditCmd(a *app) *cobra.Command {
	var f numberFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a number; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cur, err := a.svc.Number(id)
			if err != nil {
				return err
			}

			in, err := f.apply(cmd, core.NumberInput{
				PhoneNumber: cur.PhoneNumber,
				Name:        cur.Name,
				Age:         cur.Age,
				Assignee:    cur.Assignee,
				Note:        cur.Note,
			})
			if err != nil {
				return err
			}

			rec, err := a.svc.UpdateNumber(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			printNumber(cmd.OutOrStdout(), rec)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newNumberDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := a.svc.DeleteNumber(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已删除号码 %s（ID %d）\n", rec.PhoneNumber, rec.ID)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ValidationError{Field: "id", Value: s, Message: "id must be a positive integer"}
	}
	return id, nil
}
