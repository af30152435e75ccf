package datasources

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/tphummel/lab_templates/terraform-provider-lab_templates/internal/apiclient"
)

// Ensure full interface compliance at compile time.
var _ datasource.DataSource = &labsDataSource{}
var _ datasource.DataSourceWithConfigure = &labsDataSource{}

type labsDataSource struct {
	client *apiclient.Client
}

// NewLabsDataSource is the factory function registered with the provider.
func NewLabsDataSource() datasource.DataSource {
	return &labsDataSource{}
}

type labsDataSourceModel struct {
	IsActive types.Bool     `tfsdk:"is_active"`
	Labs     []labDataModel `tfsdk:"labs"`
}

type labDataModel struct {
	ID            types.String `tfsdk:"id"`
	Name          types.String `tfsdk:"name"`
	Description   types.String `tfsdk:"description"`
	BaseImage     types.String `tfsdk:"base_image"`
	EstimatedTime types.Int64  `tfsdk:"estimated_time"`
	IsActive      types.Bool   `tfsdk:"is_active"`
	CreatedAt     types.String `tfsdk:"created_at"`
}

func (d *labsDataSource) Metadata(_ context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_labs"
}

func (d *labsDataSource) Schema(_ context.Context, _ datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "Lists lab templates, optionally only active or inactive ones.",
		Attributes: map[string]schema.Attribute{
			"is_active": schema.BoolAttribute{
				Description: "Optional status filter. Unset lists every lab.",
				Optional:    true,
			},
			"labs": schema.ListNestedAttribute{
				Description: "Labs returned by the API, newest first.",
				Computed:    true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"id":             schema.StringAttribute{Computed: true, Description: "Server-generated UUID."},
						"name":           schema.StringAttribute{Computed: true, Description: "Display name."},
						"description":    schema.StringAttribute{Computed: true, Description: "Free-form description."},
						"base_image":     schema.StringAttribute{Computed: true, Description: "Container image the lab starts from."},
						"estimated_time": schema.Int64Attribute{Computed: true, Description: "Estimated duration in minutes."},
						"is_active":      schema.BoolAttribute{Computed: true, Description: "Whether learners can start the lab."},
						"created_at":     schema.StringAttribute{Computed: true, Description: "Creation time, RFC 3339."},
					},
				},
			},
		},
	}
}

func (d *labsDataSource) Configure(_ context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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
	d.client = client
}

func (d *labsDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var state labsDataSourceModel
	resp.Diagnostics.Append(req.Config.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	var active *bool
	if !state.IsActive.IsNull() && !state.IsActive.IsUnknown() {
		v := state.IsActive.ValueBool()
		active = &v
	}

	labs, err := d.client.ListLabs(ctx, active)
	if err != nil {
		resp.Diagnostics.AddError("Error listing lab_templates labs", err.Error())
		return
	}

	state.Labs = make([]labDataModel, len(labs))
	for i, l := range labs {
		state.Labs[i] = labDataModel{
			ID:            types.StringValue(l.ID),
			Name:          types.StringValue(l.Name),
			Description:   types.StringValue(l.Description),
			BaseImage:     types.StringValue(l.BaseImage),
			EstimatedTime: types.Int64Value(l.EstimatedTime),
			IsActive:      types.BoolValue(l.IsActive),
			CreatedAt:     types.StringValue(l.CreatedAt),
		}
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &state)...)
}
