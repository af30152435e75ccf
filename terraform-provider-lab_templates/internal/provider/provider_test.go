package provider_test

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	fwprovider "github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/tfsdk"
	"github.com/hashicorp/terraform-plugin-go/tftypes"
	"github.com/tphummel/lab_templates/terraform-provider-lab_templates/internal/apiclient"
	"github.com/tphummel/lab_templates/terraform-provider-lab_templates/internal/provider"
)

// buildConfig constructs a tfsdk.Config. Empty strings become null, which
// makes Configure fall back on environment variables.
func buildConfig(t *testing.T, ctx context.Context, p fwprovider.Provider, endpoint, token string) tfsdk.Config {
	t.Helper()
	var schemaResp fwprovider.SchemaResponse
	p.Schema(ctx, fwprovider.SchemaRequest{}, &schemaResp)

	str := func(v string) tftypes.Value {
		if v == "" {
			return tftypes.NewValue(tftypes.String, nil)
		}
		return tftypes.NewValue(tftypes.String, v)
	}

	schemaType := schemaResp.Schema.Type().TerraformType(ctx)
	rawVal := tftypes.NewValue(schemaType, map[string]tftypes.Value{
		"endpoint": str(endpoint),
		"token":    str(token),
	})
	return tfsdk.Config{Schema: schemaResp.Schema, Raw: rawVal}
}

func TestProvider_Metadata(t *testing.T) {
	ctx := context.Background()
	p := provider.New()
	var resp fwprovider.MetadataResponse
	p.Metadata(ctx, fwprovider.MetadataRequest{}, &resp)

	if resp.TypeName != "lab_templates" {
		t.Errorf("TypeName: got %q, want %q", resp.TypeName, "lab_templates")
	}
}

func TestProvider_Schema(t *testing.T) {
	ctx := context.Background()
	p := provider.New()
	var resp fwprovider.SchemaResponse
	p.Schema(ctx, fwprovider.SchemaRequest{}, &resp)

	for _, attr := range []string{"endpoint", "token"} {
		if _, ok := resp.Schema.Attributes[attr]; !ok {
			t.Errorf("provider schema missing %q attribute", attr)
		}
	}
	if !resp.Schema.Attributes["token"].IsSensitive() {
		t.Error("token should be sensitive")
	}
}

func TestProvider_RegistersResourcesAndDataSources(t *testing.T) {
	ctx := context.Background()
	p := provider.New()

	var names []string
	for _, factory := range p.Resources(ctx) {
		var resp resource.MetadataResponse
		factory().Metadata(ctx, resource.MetadataRequest{ProviderTypeName: "lab_templates"}, &resp)
		names = append(names, resp.TypeName)
	}
	for _, factory := range p.DataSources(ctx) {
		var resp datasource.MetadataResponse
		factory().Metadata(ctx, datasource.MetadataRequest{ProviderTypeName: "lab_templates"}, &resp)
		names = append(names, resp.TypeName)
	}

	want := []string{"lab_templates_lab", "lab_templates_setup_step", "lab_templates_labs"}
	if len(names) != len(want) {
		t.Fatalf("registered: got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("registered[%d]: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestProvider_Configure(t *testing.T) {
	tests := []struct {
		name      string
		envURL    string
		envToken  string
		endpoint  string
		token     string
		wantError bool
	}{
		{name: "env vars", envURL: "http://lab.local:8080/api", envToken: "secret-token"},
		{name: "config values", endpoint: "http://lab.local:9090/api", token: "config-token"},
		{name: "config overrides env", envURL: "http://env.local/api", envToken: "env-token", endpoint: "http://config.local/api", token: "config-token"},
		{name: "token is optional", endpoint: "http://lab.local/api"},
		{name: "missing endpoint", token: "some-token", wantError: true},
		{name: "nothing set", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(provider.EnvEndpoint, tt.envURL)
			t.Setenv(provider.EnvToken, tt.envToken)

			ctx := context.Background()
			p := provider.New()
			var resp fwprovider.ConfigureResponse
			p.Configure(ctx, fwprovider.ConfigureRequest{Config: buildConfig(t, ctx, p, tt.endpoint, tt.token)}, &resp)

			if got := resp.Diagnostics.HasError(); got != tt.wantError {
				t.Fatalf("HasError: got %v, want %v (%v)", got, tt.wantError, resp.Diagnostics)
			}
			if tt.wantError {
				return
			}
			if _, ok := resp.ResourceData.(*apiclient.Client); !ok {
				t.Errorf("ResourceData type: got %T, want *apiclient.Client", resp.ResourceData)
			}
			if _, ok := resp.DataSourceData.(*apiclient.Client); !ok {
				t.Errorf("DataSourceData type: got %T, want *apiclient.Client", resp.DataSourceData)
			}
		})
	}
}
