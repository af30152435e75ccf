package provider

import (
	"context"
	"os"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/tphummel/lab_templates/terraform-provider-lab_templates/internal/apiclient"
	"github.com/tphummel/lab_templates/terraform-provider-lab_templates/internal/datasources"
	"github.com/tphummel/lab_templates/terraform-provider-lab_templates/internal/resources"
)

// Environment variables read when the provider block leaves a value unset.
const (
	EnvEndpoint = "LAB_TEMPLATES_ENDPOINT"
	EnvToken    = "LAB_TEMPLATES_TOKEN"
)

// New returns the provider factory function expected by providerserver.Serve.
func New() provider.Provider {
	return &labTemplatesProvider{}
}

type labTemplatesProvider struct{}

func (p *labTemplatesProvider) Metadata(_ context.Context, _ provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "lab_templates"
}

func (p *labTemplatesProvider) Schema(_ context.Context, _ provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		Description: "Manages lab templates and their ordered setup steps.",
		Attributes: map[string]schema.Attribute{
			"endpoint": schema.StringAttribute{
				Description: "API root of the lab_templates service (e.g. https://labs.example.com/api). " +
					"Can also be set via the " + EnvEndpoint + " environment variable.",
				Optional: true,
			},
			"token": schema.StringAttribute{
				Description: "Bearer token, when the service requires one. " +
					"Can also be set via the " + EnvToken + " environment variable.",
				Optional:  true,
				Sensitive: true,
			},
		},
	}
}

type labTemplatesProviderModel struct {
	Endpoint types.String `tfsdk:"endpoint"`
	Token    types.String `tfsdk:"token"`
}

func (p *labTemplatesProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var config labTemplatesProviderModel
	resp.Diagnostics.Append(req.Config.Get(ctx, &config)...)
	if resp.Diagnostics.HasError() {
		return
	}

	endpoint := os.Getenv(EnvEndpoint)
	if !config.Endpoint.IsNull() && !config.Endpoint.IsUnknown() {
		endpoint = config.Endpoint.ValueString()
	}
	if endpoint == "" {
		resp.Diagnostics.AddError("Missing endpoint",
			"endpoint must be set in the provider configuration or via the "+EnvEndpoint+" environment variable.")
		return
	}

	token := os.Getenv(EnvToken)
	if !config.Token.IsNull() && !config.Token.IsUnknown() {
		token = config.Token.ValueString()
	}

	client := apiclient.NewClient(endpoint, token)
	resp.ResourceData = client
	resp.DataSourceData = client
}

func (p *labTemplatesProvider) Resources(_ context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		resources.NewLabResource,
		resources.NewSetupStepResource,
	}
}

func (p *labTemplatesProvider) DataSources(_ context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		datasources.NewLabsDataSource,
	}
}
