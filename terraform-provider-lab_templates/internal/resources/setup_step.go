package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/booldefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/int64default"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/int64planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringdefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/tphummel/lab_templates/terraform-provider-lab_templates/internal/apiclient"
)

var (
	_ resource.ResourceWithConfigure   = &setupStepResource{}
	_ resource.ResourceWithImportState = &setupStepResource{}
)

type setupStepResource struct {
	client *apiclient.Client
}

type setupStepModel struct {
	ID                types.String `tfsdk:"id"`
	LabID             types.String `tfsdk:"lab_id"`
	StepOrder         types.Int64  `tfsdk:"step_order"`
	Title             types.String `tfsdk:"title"`
	Description       types.String `tfsdk:"description"`
	SetupCommand      types.String `tfsdk:"setup_command"`
	ExpectedExitCode  types.Int64  `tfsdk:"expected_exit_code"`
	RetryCount        types.Int64  `tfsdk:"retry_count"`
	TimeoutSeconds    types.Int64  `tfsdk:"timeout_seconds"`
	ContinueOnFailure types.Bool   `tfsdk:"continue_on_failure"`
}

// NewSetupStepResource is the factory function registered with the provider.
func NewSetupStepResource() resource.Resource {
	return &setupStepResource{}
}

func (r *setupStepResource) Metadata(_ context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_setup_step"
}

func (r *setupStepResource) Schema(_ context.Context, _ resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "Manages one ordered setup step of a lab. Steps run by ascending step_order.",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Description: "Server-generated UUID.",
				Computed:    true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"lab_id": schema.StringAttribute{
				Description: "Lab the step belongs to. Changing it replaces the step.",
				Required:    true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"step_order": schema.Int64Attribute{
				Description: "Position of the step. Defaults to after the lab's last step.",
				Optional:    true,
				Computed:    true,
				Validators:  []validator.Int64{int64validator.AtLeast(1)},
				PlanModifiers: []planmodifier.Int64{
					int64planmodifier.UseStateForUnknown(),
				},
			},
			"title": schema.StringAttribute{
				Description: "Short title.",
				Required:    true,
				Validators:  notBlank(),
			},
			"setup_command": schema.StringAttribute{
				Description: "Shell command to run.",
				Required:    true,
				Validators:  notBlank(),
			},
			"description": schema.StringAttribute{
				Description: "Free-form description.",
				Optional:    true,
				Computed:    true,
				Default:     stringdefault.StaticString(""),
			},
			"expected_exit_code": schema.Int64Attribute{
				Description: "Exit code that counts as success, 0 to 255.",
				Optional:    true,
				Computed:    true,
				Default:     int64default.StaticInt64(0),
				Validators:  []validator.Int64{int64validator.Between(0, 255)},
			},
			"retry_count": schema.Int64Attribute{
				Description: "Attempts before the step fails, 1 to 10.",
				Optional:    true,
				Computed:    true,
				Default:     int64default.StaticInt64(1),
				Validators:  []validator.Int64{int64validator.Between(1, 10)},
			},
			"timeout_seconds": schema.Int64Attribute{
				Description: "Timeout per attempt in seconds, 1 to 3600.",
				Optional:    true,
				Computed:    true,
				Default:     int64default.StaticInt64(300),
				Validators:  []validator.Int64{int64validator.Between(1, 3600)},
			},
			"continue_on_failure": schema.BoolAttribute{
				Description: "Keep provisioning when the step fails.",
				Optional:    true,
				Computed:    true,
				Default:     booldefault.StaticBool(false),
			},
		},
	}
}

func (r *setupStepResource) Configure(_ context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}
	client, ok := req.ProviderData.(*apiclient.Client)
	if !ok {
		resp.Diagnostics.AddError(
			"Unexpected provider data type",
			fmt.Sprintf("Expected *apiclient.Client, got %T", req.ProviderData),
		)
		return
	}
	r.client = client
}

func (r *setupStepResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var plan setupStepModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	if resp.Diagnostics.HasError() {
		return
	}

	created, err := r.client.CreateSetupStep(ctx, plan.LabID.ValueString(), planToStep(plan))
	if err != nil {
		resp.Diagnostics.AddError("Error creating lab_templates_setup_step", err.Error())
		return
	}

	stepToState(created, &plan)
	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *setupStepResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var state setupStepModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	s, err := r.client.GetSetupStep(ctx, state.LabID.ValueString(), state.ID.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error reading lab_templates_setup_step", err.Error())
		return
	}
	if s == nil {
		// The step or its lab was removed outside Terraform.
		resp.State.RemoveResource(ctx)
		return
	}

	stepToState(s, &state)
	resp.Diagnostics.Append(resp.State.Set(ctx, &state)...)
}

func (r *setupStepResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan setupStepModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	var state setupStepModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	s := planToStep(plan)
	s.ID = state.ID.ValueString()
	if s.StepOrder == 0 {
		s.StepOrder = state.StepOrder.ValueInt64()
	}
	updated, err := r.client.UpdateSetupStep(ctx, s)
	if err != nil {
		resp.Diagnostics.AddError("Error updating lab_templates_setup_step", err.Error())
		return
	}

	stepToState(updated, &plan)
	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *setupStepResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var state setupStepModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}
	if err := r.client.DeleteSetupStep(ctx, state.ID.ValueString()); err != nil {
		resp.Diagnostics.AddError("Error deleting lab_templates_setup_step", err.Error())
	}
}

// ImportState enables: terraform import lab_templates_setup_step.seed <lab-uuid>/<step-uuid>
func (r *setupStepResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	labID, stepID, ok := strings.Cut(req.ID, "/")
	if !ok || labID == "" || stepID == "" {
		resp.Diagnostics.AddError("Invalid import ID",
			fmt.Sprintf("Expected <lab_id>/<step_id>, got %q.", req.ID))
		return
	}

	s, err := r.client.GetSetupStep(ctx, labID, stepID)
	if err != nil {
		resp.Diagnostics.AddError("Error importing lab_templates_setup_step", err.Error())
		return
	}
	if s == nil {
		resp.Diagnostics.AddError("Setup step not found",
			fmt.Sprintf("Lab %q has no setup step with ID %q.", labID, stepID))
		return
	}

	var state setupStepModel
	state.LabID = types.StringValue(labID)
	stepToState(s, &state)
	resp.Diagnostics.Append(resp.State.Set(ctx, &state)...)
}

// planToStep builds the request body. An unknown step_order stays zero so
// the server appends the step.
func planToStep(plan setupStepModel) apiclient.SetupStep {
	return apiclient.SetupStep{
		StepOrder:         plan.StepOrder.ValueInt64(),
		Title:             plan.Title.ValueString(),
		Description:       plan.Description.ValueString(),
		SetupCommand:      plan.SetupCommand.ValueString(),
		ExpectedExitCode:  plan.ExpectedExitCode.ValueInt64(),
		RetryCount:        plan.RetryCount.ValueInt64(),
		TimeoutSeconds:    plan.TimeoutSeconds.ValueInt64(),
		ContinueOnFailure: plan.ContinueOnFailure.ValueBool(),
	}
}

func stepToState(s *apiclient.SetupStep, m *setupStepModel) {
	m.ID = types.StringValue(s.ID)
	if s.LabID != "" {
		m.LabID = types.StringValue(s.LabID)
	}
	m.StepOrder = types.Int64Value(s.StepOrder)
	m.Title = types.StringValue(s.Title)
	m.Description = types.StringValue(s.Description)
	m.SetupCommand = types.StringValue(s.SetupCommand)
	m.ExpectedExitCode = types.Int64Value(s.ExpectedExitCode)
	m.RetryCount = types.Int64Value(s.RetryCount)
	m.TimeoutSeconds = types.Int64Value(s.TimeoutSeconds)
	m.ContinueOnFailure = types.BoolValue(s.ContinueOnFailure)
}
