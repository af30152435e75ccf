package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphummel/lab_templates/internal/dialog"
	"github.com/tphummel/lab_templates/internal/filter"
	"github.com/tphummel/lab_templates/internal/models"
)

func newLabCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lab",
		Short: "List, create and edit labs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newLabListCommand(e))
	cmd.AddCommand(newLabShowCommand(e))
	cmd.AddCommand(newLabCreateCommand(e))
	cmd.AddCommand(newLabUpdateCommand(e))
	cmd.AddCommand(newLabDeleteCommand(e))
	cmd.AddCommand(newLabToggleCommand(e))
	return cmd
}

func newLabListCommand(e *env) *cobra.Command {
	var (
		search   string
		status   string
		sortBy   string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List labs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := filter.ParseStatus(status)
			if err != nil {
				return err
			}
			sb, err := filter.ParseSortBy(sortBy)
			if err != nil {
				return err
			}

			list := e.labList()
			if err := list.Refresh(cmd.Context(), false); err != nil {
				return err
			}
			f := list.Filters()
			f.Search, f.Status, f.SortBy = search, st, sb
			list.SetFilters(f)

			visible := list.Visible()
			rows, totalPages := filter.Page(visible, page, pageSize)
			e.render.Labs(rows, list.HasFilters())
			e.render.Pager(min(max(page, 1), totalPages), totalPages, len(visible))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Match name, description or base image")
	cmd.Flags().StringVar(&status, "status", "all", "all, active or inactive")
	cmd.Flags().StringVar(&sortBy, "sort", "newest", "newest, oldest, name or estimatedTime")
	cmd.Flags().IntVar(&page, "page", 1, "Page to show")
	cmd.Flags().IntVar(&pageSize, "page-size", filter.PageSizes[0], "Labs per page")
	return cmd
}

func newLabShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <lab-id>",
		Short: "Show a lab and its setup steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := e.loadLab(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			lab, _ := d.Lab()
			e.render.Lab(lab, d.Steps().Steps())
			return nil
		},
	}
}

// labFlags binds the lab form fields.
type labFlags struct {
	name          string
	description   string
	baseImage     string
	estimatedTime int
}

func (f *labFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Lab name")
	cmd.Flags().StringVar(&f.description, "description", "", "Lab description")
	cmd.Flags().StringVar(&f.baseImage, "base-image", "", "Container image the lab starts from")
	cmd.Flags().IntVar(&f.estimatedTime, "estimated-time", 0, "Estimated duration in minutes (1-600)")
}

// apply overwrites the fields of req whose flags were given.
func (f *labFlags) apply(cmd *cobra.Command, req models.CreateLabRequest) models.CreateLabRequest {
	if cmd.Flags().Changed("name") {
		req.Name = f.name
	}
	if cmd.Flags().Changed("description") {
		req.Description = f.description
	}
	if cmd.Flags().Changed("base-image") {
		req.BaseImage = f.baseImage
	}
	if cmd.Flags().Changed("estimated-time") {
		req.EstimatedTime = f.estimatedTime
	}
	return req
}

func newLabCreateCommand(e *env) *cobra.Command {
	var f labFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a lab",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := f.apply(cmd, models.CreateLabRequest{})
			if err := req.Validate(); err != nil {
				return err
			}

			var m dialog.Machine[models.Lab]
			if err := m.OpenCreate(); err != nil {
				return err
			}
			return m.Submit(func(dialog.Mode, models.Lab) error {
				lab, err := e.labList().Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				e.render.Lab(lab, nil)
				return nil
			})
		},
	}

	f.bind(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("base-image")
	_ = cmd.MarkFlagRequired("estimated-time")
	return cmd
}

func newLabUpdateCommand(e *env) *cobra.Command {
	var f labFlags

	cmd := &cobra.Command{
		Use:   "update <lab-id>",
		Short: "Change a lab's fields; omitted flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := e.loadLab(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			lab, _ := d.Lab()
			req := f.apply(cmd, lab.ToRequest())
			if err := req.Validate(); err != nil {
				return err
			}

			var m dialog.Machine[models.Lab]
			if err := m.OpenEdit(lab); err != nil {
				return err
			}
			return m.Submit(func(dialog.Mode, models.Lab) error {
				updated, err := d.UpdateLab(cmd.Context(), req)
				if err != nil {
					return err
				}
				e.render.Lab(updated, d.Steps().Steps())
				return nil
			})
		},
	}

	f.bind(cmd)
	return cmd
}

func newLabDeleteCommand(e *env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <lab-id>",
		Short: "Delete a lab and all of its setup steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := e.loadLab(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			lab, _ := d.Lab()

			var m dialog.Machine[models.Lab]
			if err := m.OpenDelete(lab); err != nil {
				return err
			}
			if !yes && !e.confirm(e.app.T("labs.confirmDelete", map[string]string{"name": lab.Name})) {
				e.render.Message("common.cancelled", nil)
				return m.Close()
			}
			return m.Submit(func(dialog.Mode, models.Lab) error {
				return d.DeleteLab(cmd.Context())
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newLabToggleCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <lab-id>",
		Short: "Activate or deactivate a lab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !e.labList().ToggleStatus(cmd.Context(), args[0]) {
				return fmt.Errorf("lab %s: status unchanged", args[0])
			}
			return nil
		},
	}
}

// confirm asks a yes/no question on the command's input. Anything but y or
// yes declines.
func (e *env) confirm(question string) bool {
	fmt.Fprintf(e.errOut, "%s [y/N] ", question)
	line, err := bufio.NewReader(e.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "c", "có":
		return true
	default:
		return false
	}
}
