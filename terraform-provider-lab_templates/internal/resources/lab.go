package resources

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/booldefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringdefault"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/tphummel/lab_templates/terraform-provider-lab_templates/internal/apiclient"
)

var (
	_ resource.ResourceWithConfigure   = &labResource{}
	_ resource.ResourceWithImportState = &labResource{}
)

type labResource struct {
	client *apiclient.Client
}

// labModel maps the Terraform schema attributes to Go values.
type labModel struct {
	ID            types.String `tfsdk:"id"`
	Name          types.String `tfsdk:"name"`
	Description   types.String `tfsdk:"description"`
	BaseImage     types.String `tfsdk:"base_image"`
	EstimatedTime types.Int64  `tfsdk:"estimated_time"`
	IsActive      types.Bool   `tfsdk:"is_active"`
	CreatedAt     types.String `tfsdk:"created_at"`
}

// NewLabResource is the factory function registered with the provider.
func NewLabResource() resource.Resource {
	return &labResource{}
}

func (r *labResource) Metadata(_ context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_lab"
}

func (r *labResource) Schema(_ context.Context, _ resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "Manages a lab template. Deleting a lab also deletes its setup steps.",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				Description: "Server-generated UUID.",
				Computed:    true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"name": schema.StringAttribute{
				Description: "Display name.",
				Required:    true,
				Validators:  notBlank(),
			},
			"base_image": schema.StringAttribute{
				Description: "Container image the lab starts from (e.g. ubuntu:22.04).",
				Required:    true,
				Validators:  notBlank(),
			},
			"estimated_time": schema.Int64Attribute{
				Description: "Estimated duration in minutes, 1 to 600.",
				Required:    true,
				Validators:  []validator.Int64{int64validator.Between(1, 600)},
			},
			"description": schema.StringAttribute{
				Description: "Free-form description.",
				Optional:    true,
				Computed:    true,
				Default:     stringdefault.StaticString(""),
			},
			"is_active": schema.BoolAttribute{
				Description: "Whether learners can start the lab.",
				Optional:    true,
				Computed:    true,
				Default:     booldefault.StaticBool(true),
			},
			"created_at": schema.StringAttribute{
				Description: "Creation time, RFC 3339.",
				Computed:    true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
		},
	}
}

func (r *labResource) Configure(_ context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
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

func (r *labResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var plan labModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	if resp.Diagnostics.HasError() {
		return
	}

	created, err := r.client.CreateLab(ctx, planToLab(plan))
	if err != nil {
		resp.Diagnostics.AddError("Error creating lab_templates_lab", err.Error())
		return
	}

	created, err = r.syncActive(ctx, created, plan.IsActive)
	if err != nil {
		// The lab exists; keep it in state so the next apply retries the toggle.
		labToState(created, &plan)
		resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
		resp.Diagnostics.AddError("Error setting lab_templates_lab status", err.Error())
		return
	}

	labToState(created, &plan)
	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *labResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var state labModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	lab, err := r.client.GetLab(ctx, state.ID.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Error reading lab_templates_lab", err.Error())
		return
	}
	if lab == nil {
		// Removed outside Terraform.
		resp.State.RemoveResource(ctx)
		return
	}

	labToState(lab, &state)
	resp.Diagnostics.Append(resp.State.Set(ctx, &state)...)
}

func (r *labResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan labModel
	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	var state labModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	lab := planToLab(plan)
	lab.ID = state.ID.ValueString()
	updated, err := r.client.UpdateLab(ctx, lab)
	if err != nil {
		resp.Diagnostics.AddError("Error updating lab_templates_lab", err.Error())
		return
	}

	updated, err = r.syncActive(ctx, updated, plan.IsActive)
	if err != nil {
		resp.Diagnostics.AddError("Error setting lab_templates_lab status", err.Error())
		return
	}

	labToState(updated, &plan)
	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

func (r *labResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var state labModel
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}
	if err := r.client.DeleteLab(ctx, state.ID.ValueString()); err != nil {
		resp.Diagnostics.AddError("Error deleting lab_templates_lab", err.Error())
	}
}

// ImportState enables: terraform import lab_templates_lab.sql <uuid>
func (r *labResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	lab, err := r.client.GetLab(ctx, req.ID)
	if err != nil {
		resp.Diagnostics.AddError("Error importing lab_templates_lab", err.Error())
		return
	}
	if lab == nil {
		resp.Diagnostics.AddError("Lab not found",
			fmt.Sprintf("No lab with ID %q exists in the lab_templates service.", req.ID))
		return
	}

	var state labModel
	labToState(lab, &state)
	resp.Diagnostics.Append(resp.State.Set(ctx, &state)...)
}

// syncActive toggles the lab when its stored status differs from want. An
// unknown or null want leaves the lab as it is.
func (r *labResource) syncActive(ctx context.Context, lab *apiclient.Lab, want types.Bool) (*apiclient.Lab, error) {
	if want.IsNull() || want.IsUnknown() || lab.IsActive == want.ValueBool() {
		return lab, nil
	}
	toggled, err := r.client.ToggleLab(ctx, lab.ID)
	if err != nil {
		return lab, err
	}
	return toggled, nil
}

func planToLab(plan labModel) apiclient.Lab {
	return apiclient.Lab{
		Name:          plan.Name.ValueString(),
		Description:   plan.Description.ValueString(),
		BaseImage:     plan.BaseImage.ValueString(),
		EstimatedTime: plan.EstimatedTime.ValueInt64(),
	}
}

// labToState copies API response fields into the Terraform state model.
func labToState(l *apiclient.Lab, s *labModel) {
	s.ID = types.StringValue(l.ID)
	s.Name = types.StringValue(l.Name)
	s.Description = types.StringValue(l.Description)
	s.BaseImage = types.StringValue(l.BaseImage)
	s.EstimatedTime = types.Int64Value(l.EstimatedTime)
	s.IsActive = types.BoolValue(l.IsActive)
	s.CreatedAt = types.StringValue(l.CreatedAt)
}
