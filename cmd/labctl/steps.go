package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tphummel/lab_templates/internal/controller"
	"github.com/tphummel/lab_templates/internal/dialog"
	"github.com/tphummel/lab_templates/internal/models"
)

func newStepCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "step",
		Aliases: []string{"steps"},
		Short:   "Add, edit and reorder a lab's setup steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newStepAddCommand(e))
	cmd.AddCommand(newStepEditCommand(e))
	cmd.AddCommand(newStepRemoveCommand(e))
	cmd.AddCommand(newStepMoveCommand(e, "up"))
	cmd.AddCommand(newStepMoveCommand(e, "down"))
	cmd.AddCommand(newStepImportCommand(e))
	cmd.AddCommand(newStepPruneCommand(e))
	cmd.AddCommand(newStepRenumberCommand(e))
	return cmd
}

// stepFlags binds the setup step form fields.
type stepFlags struct {
	order             int
	title             string
	description       string
	command           string
	exitCode          int
	retries           int
	timeout           int
	continueOnFailure bool
}

func (f *stepFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.order, "order", 0, "Position of the step (default: after the last step)")
	cmd.Flags().StringVar(&f.title, "title", "", "Step title")
	cmd.Flags().StringVar(&f.description, "description", "", "Step description")
	cmd.Flags().StringVar(&f.command, "command", "", "Shell command to run")
	cmd.Flags().IntVar(&f.exitCode, "exit-code", models.DefaultExitCode, "Expected exit code (0-255)")
	cmd.Flags().IntVar(&f.retries, "retries", models.DefaultRetries, "Attempts before the step fails (1-10)")
	cmd.Flags().IntVar(&f.timeout, "timeout", models.DefaultTimeout, "Timeout in seconds (1-3600)")
	cmd.Flags().BoolVar(&f.continueOnFailure, "continue-on-failure", false, "Keep provisioning when the step fails")
}

// apply overwrites the fields of req whose flags were given.
func (f *stepFlags) apply(cmd *cobra.Command, req models.CreateSetupStepRequest) models.CreateSetupStepRequest {
	flags := cmd.Flags()
	if flags.Changed("order") {
		req.StepOrder = &f.order
	}
	if flags.Changed("title") {
		req.Title = f.title
	}
	if flags.Changed("description") {
		req.Description = f.description
	}
	if flags.Changed("command") {
		req.SetupCommand = f.command
	}
	if flags.Changed("exit-code") {
		req.ExpectedExitCode = &f.exitCode
	}
	if flags.Changed("retries") {
		req.RetryCount = &f.retries
	}
	if flags.Changed("timeout") {
		req.TimeoutSeconds = &f.timeout
	}
	if flags.Changed("continue-on-failure") {
		req.ContinueOnFailure = &f.continueOnFailure
	}
	return req
}

// loadSteps loads lab id and returns its step controller.
func (e *env) loadSteps(cmd *cobra.Command, labID string) (*controller.StepController, error) {
	d, err := e.loadLab(cmd.Context(), labID)
	if err != nil {
		return nil, err
	}
	return d.Steps(), nil
}

// findStep resolves ref as a step id or, failing that, as a step order.
func findStep(steps []models.SetupStep, ref string) (models.SetupStep, error) {
	if i := models.IndexOf(steps, ref); i >= 0 {
		return steps[i], nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		for _, s := range steps {
			if s.StepOrder == n {
				return s, nil
			}
		}
	}
	return models.SetupStep{}, fmt.Errorf("setup step %q not found", ref)
}

func newStepAddCommand(e *env) *cobra.Command {
	var f stepFlags

	cmd := &cobra.Command{
		Use:   "add <lab-id>",
		Short: "Append a setup step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.loadSteps(cmd, args[0])
			if err != nil {
				return err
			}
			req := f.apply(cmd, models.CreateSetupStepRequest{})
			if err := req.Validate(); err != nil {
				return err
			}

			var m dialog.Machine[models.SetupStep]
			if err := m.OpenCreate(); err != nil {
				return err
			}
			return m.Submit(func(dialog.Mode, models.SetupStep) error {
				if _, err := c.Create(cmd.Context(), req); err != nil {
					return err
				}
				e.render.Steps(c.Steps())
				return nil
			})
		},
	}

	f.bind(cmd)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("command")
	return cmd
}

func newStepEditCommand(e *env) *cobra.Command {
	var f stepFlags

	cmd := &cobra.Command{
		Use:   "edit <lab-id> <step-id|order>",
		Short: "Change a setup step; omitted flags keep their value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.loadSteps(cmd, args[0])
			if err != nil {
				return err
			}
			step, err := findStep(c.Steps(), args[1])
			if err != nil {
				return err
			}
			req := step.UpdateRequest()
			req.CreateSetupStepRequest = f.apply(cmd, req.CreateSetupStepRequest)
			if err := req.Validate(); err != nil {
				return err
			}

			var m dialog.Machine[models.SetupStep]
			if err := m.OpenEdit(step); err != nil {
				return err
			}
			return m.Submit(func(dialog.Mode, models.SetupStep) error {
				if _, err := c.Update(cmd.Context(), req); err != nil {
					return err
				}
				e.render.Steps(c.Steps())
				return nil
			})
		},
	}

	f.bind(cmd)
	return cmd
}

func newStepRemoveCommand(e *env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <lab-id> <step-id|order>",
		Aliases: []string{"delete"},
		Short:   "Delete a setup step",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.loadSteps(cmd, args[0])
			if err != nil {
				return err
			}
			step, err := findStep(c.Steps(), args[1])
			if err != nil {
				return err
			}

			var m dialog.Machine[models.SetupStep]
			if err := m.OpenDelete(step); err != nil {
				return err
			}
			if !yes && !e.confirm(e.app.T("steps.confirmDelete", map[string]string{"title": step.Title})) {
				e.render.Message("common.cancelled", nil)
				return m.Close()
			}
			return m.Submit(func(_ dialog.Mode, s models.SetupStep) error {
				if !c.Delete(cmd.Context(), s) {
					return fmt.Errorf("setup step %s was not deleted", s.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newStepMoveCommand(e *env, dir string) *cobra.Command {
	return &cobra.Command{
		Use:   dir + " <lab-id> <step-id|order>",
		Short: "Move a setup step one position " + dir,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.loadSteps(cmd, args[0])
			if err != nil {
				return err
			}
			step, err := findStep(c.Steps(), args[1])
			if err != nil {
				return err
			}

			move := c.MoveDown
			if dir == "up" {
				move = c.MoveUp
			}
			if !move(cmd.Context(), step) {
				return fmt.Errorf("setup step %s was not moved %s", step.ID, dir)
			}
			e.render.Steps(c.Steps())
			return nil
		},
	}
}

func newStepImportCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <lab-id> <file|->",
		Short: "Append setup steps from a YAML list",
		Long: `Append setup steps from a YAML list. Every step is created or none is.

  - title: install postgres
    setupCommand: apt-get install -y postgresql
    timeoutSeconds: 600
  - title: seed
    setupCommand: psql -f /lab/seed.sql
    retryCount: 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			drafts, err := readDrafts(e.in, args[1])
			if err != nil {
				return err
			}
			for i, d := range drafts {
				if err := d.Validate(); err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
			}

			c, err := e.loadSteps(cmd, args[0])
			if err != nil {
				return err
			}
			if _, err := c.Import(cmd.Context(), drafts); err != nil {
				return err
			}
			e.render.Steps(c.Steps())
			return nil
		},
	}
}

// readDrafts decodes a YAML list of setup steps from path, or from stdin
// when path is "-".
func readDrafts(stdin io.Reader, path string) ([]models.CreateSetupStepRequest, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var drafts []models.CreateSetupStepRequest
	if err := yaml.NewDecoder(r).Decode(&drafts); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%s: no setup steps", path)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%s: no setup steps", path)
	}
	return drafts, nil
}

func newStepPruneCommand(e *env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "prune <lab-id> <step-id|order>...",
		Short: "Delete several setup steps in one request",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.loadSteps(cmd, args[0])
			if err != nil {
				return err
			}
			steps := c.Steps()
			ids := make([]string, 0, len(args)-1)
			for _, ref := range args[1:] {
				s, err := findStep(steps, ref)
				if err != nil {
					return err
				}
				ids = append(ids, s.ID)
			}

			if !yes && !e.confirm(e.app.T("steps.confirmPrune", map[string]string{"count": strconv.Itoa(len(ids))})) {
				e.render.Message("common.cancelled", nil)
				return nil
			}
			if _, err := c.Prune(cmd.Context(), ids); err != nil {
				return err
			}
			e.render.Steps(c.Steps())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newStepRenumberCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "renumber <lab-id>",
		Short: "Rewrite step orders to 1..n in their current order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.loadSteps(cmd, args[0])
			if err != nil {
				return err
			}
			if !c.Renumber(cmd.Context()) {
				return fmt.Errorf("setup steps of lab %s were not renumbered", args[0])
			}
			e.render.Steps(c.Steps())
			return nil
		},
	}
}
