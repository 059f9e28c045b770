package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/core"
)

func newPersonCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "person",
		Aliases: []string{"persons"},
		Short:   "Add, edit, delete and list the people numbers are assigned to",
		Long: `People (or teams) are the owners numbers can be assigned to.

A person is shown as "name-purpose", or just "name" without a purpose. That
display name is what --assign and the assignee field refer to.`,
	}
	cmd.AddCommand(
		newPersonListCmd(a),
		newPersonAddCmd(a),
		newPersonEditCmd(a),
		newPersonDeleteCmd(a),
	)
	return cmd
}

// personFlags are the editable person fields shared by add and edit.
type personFlags struct {
	name    string
	purpose string
	remark  string
}

func (f *personFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "person or team name")
	cmd.Flags().StringVar(&f.purpose, "purpose", "", "purpose, appended to the display name")
	cmd.Flags().StringVar(&f.remark, "remark", "", "free-form remark")
}

func (f *personFlags) apply(cmd *cobra.Command, in core.PersonInput) core.PersonInput {
	changed := cmd.Flags().Changed
	if changed("name") {
		in.Name = f.name
	}
	if changed("purpose") {
		in.Purpose = f.purpose
	}
	if changed("remark") {
		in.Remark = f.remark
	}
	return in
}

func newPersonListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List people",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			persons := a.svc.Store().Persons()
			if asJSON {
				return writeJSON(out, persons)
			}
			for _, p := range persons {
				printPerson(out, p)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newPersonAddCmd(a *app) *cobra.Command {
	var f personFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.svc.AddPerson(cmd.Context(), f.apply(cmd, core.PersonInput{}))
			if err != nil {
				return err
			}
			printPerson(cmd.OutOrStdout(), p)
			return nil
		},
	}

	f.register(cmd)
	cmd.MarkFlagRequired("name")
	return cmd
}

func newPersonEditCmd(a *app) *cobra.Command {
	var f personFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a person; a new display name moves their numbers with them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cur, err := a.svc.Person(id)
			if err != nil {
				return err
			}

			in := f.apply(cmd, core.PersonInput{Name: cur.Name, Purpose: cur.Purpose, Remark: cur.Remark})
			p, migrated, err := a.svc.UpdatePerson(cmd.Context(), id, in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPerson(out, p)
			if migrated > 0 {
				fmt.Fprintf(out, "迁移 %d 条号码到 %s\n", migrated, p.DisplayName)
			}
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newPersonDeleteCmd(a *app) *cobra.Command {
	var release bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a person",
		Long: `Delete a person. A person who still has numbers assigned can only be
deleted with --release, which makes those numbers unassigned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, released, err := a.svc.DeletePerson(cmd.Context(), id, release)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "已删除人员 %s\n", p.DisplayName)
			if released > 0 {
				fmt.Fprintf(out, "释放 %d 条号码\n", released)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&release, "release", false, "unassign the person's numbers instead of failing")
	return cmd
}
