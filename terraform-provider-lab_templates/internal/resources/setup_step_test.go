package resources_test

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-go/tftypes"
	"github.com/tphummel/lab_templates/terraform-provider-lab_templates/internal/apiclient"
	"github.com/tphummel/lab_templates/terraform-provider-lab_templates/internal/resources"
)

type testSetupStepModel struct {
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

// stepPlanValues is a plan with the schema defaults filled in and step_order
// left unknown.
func stepPlanValues(labID, title string) map[string]tftypes.Value {
	return map[string]tftypes.Value{
		"lab_id":              str(labID),
		"title":               str(title),
		"description":         str(""),
		"setup_command":       str("echo " + title),
		"expected_exit_code":  num(0),
		"retry_count":         num(1),
		"timeout_seconds":     num(300),
		"continue_on_failure": boolean(false),
	}
}

func stepStateValues(s apiclient.SetupStep) map[string]tftypes.Value {
	return map[string]tftypes.Value{
		"id":                  str(s.ID),
		"lab_id":              str(s.LabID),
		"step_order":          num(s.StepOrder),
		"title":               str(s.Title),
		"description":         str(s.Description),
		"setup_command":       str(s.SetupCommand),
		"expected_exit_code":  num(s.ExpectedExitCode),
		"retry_count":         num(s.RetryCount),
		"timeout_seconds":     num(s.TimeoutSeconds),
		"continue_on_failure": boolean(s.ContinueOnFailure),
	}
}

func newStepResource(t *testing.T) (*fakeAPI, resource.Resource, apiclient.Lab) {
	t.Helper()
	api, client := newFakeAPI(t)
	r := resources.NewSetupStepResource()
	configureResource(t, r, client)
	lab := api.seedLab(apiclient.Lab{Name: "Postgres", BaseImage: "postgres:16", EstimatedTime: 30})
	return api, r, lab
}

func TestSetupStepResource_Metadata(t *testing.T) {
	var resp resource.MetadataResponse
	resources.NewSetupStepResource().Metadata(context.Background(), resource.MetadataRequest{ProviderTypeName: "lab_templates"}, &resp)

	if resp.TypeName != "lab_templates_setup_step" {
		t.Errorf("TypeName: got %q, want %q", resp.TypeName, "lab_templates_setup_step")
	}
}

func TestSetupStepResource_Schema(t *testing.T) {
	schm := getSchema(t, resources.NewSetupStepResource())

	for _, attr := range []string{"lab_id", "title", "setup_command"} {
		if a, ok := schm.Attributes[attr]; !ok || !a.IsRequired() {
			t.Errorf("attribute %q should be Required", attr)
		}
	}
	for _, attr := range []string{"id", "step_order", "description", "expected_exit_code", "retry_count", "timeout_seconds", "continue_on_failure"} {
		if a, ok := schm.Attributes[attr]; !ok || !a.IsComputed() {
			t.Errorf("attribute %q should be Computed", attr)
		}
	}
}

func TestSetupStepResource_SchemaValidation(t *testing.T) {
	schm := getSchema(t, resources.NewSetupStepResource())

	intTests := []struct {
		attr       string
		value      int64
		wantReject bool
	}{
		{attr: "expected_exit_code", value: -1, wantReject: true},
		{attr: "expected_exit_code", value: 0},
		{attr: "expected_exit_code", value: 255},
		{attr: "expected_exit_code", value: 256, wantReject: true},
		{attr: "retry_count", value: 0, wantReject: true},
		{attr: "retry_count", value: 10},
		{attr: "retry_count", value: 11, wantReject: true},
		{attr: "timeout_seconds", value: 0, wantReject: true},
		{attr: "timeout_seconds", value: 3600},
		{attr: "timeout_seconds", value: 3601, wantReject: true},
		{attr: "step_order", value: 0, wantReject: true},
		{attr: "step_order", value: 1},
	}
	for _, tt := range intTests {
		if got := int64Rejected(t, schm, tt.attr, tt.value); got != tt.wantReject {
			t.Errorf("%s = %d: rejected %v, want %v", tt.attr, tt.value, got, tt.wantReject)
		}
	}

	for _, attr := range []string{"title", "setup_command"} {
		for _, v := range []string{"", "\t"} {
			if !stringRejected(t, schm, attr, v) {
				t.Errorf("%s = %q should be rejected", attr, v)
			}
		}
		if stringRejected(t, schm, attr, "make seed") {
			t.Errorf("%s: non-blank value rejected", attr)
		}
	}
}

func TestSetupStepResource_Create_AppendsWithoutOrder(t *testing.T) {
	ctx := context.Background()
	api, r, lab := newStepResource(t)
	schm := getSchema(t, r)

	var orders []int64
	for _, title := range []string{"install", "seed"} {
		resp := &resource.CreateResponse{State: emptyState(schm)}
		r.Create(ctx, resource.CreateRequest{Plan: plan(schm, stepPlanValues(lab.ID, title))}, resp)
		if resp.Diagnostics.HasError() {
			t.Fatalf("Create %s: %v", title, resp.Diagnostics)
		}
		var got testSetupStepModel
		resp.State.Get(ctx, &got)
		orders = append(orders, got.StepOrder.ValueInt64())

		stored, ok := api.step(got.ID.ValueString())
		if !ok {
			t.Fatalf("step %s not stored", title)
		}
		if stored.RetryCount != 1 || stored.TimeoutSeconds != 300 {
			t.Errorf("stored defaults: got %+v", stored)
		}
	}

	if orders[0] != 1 || orders[1] != 2 {
		t.Errorf("orders: got %v, want [1 2]", orders)
	}
}

func TestSetupStepResource_Create_ExplicitOrder(t *testing.T) {
	ctx := context.Background()
	_, r, lab := newStepResource(t)
	schm := getSchema(t, r)

	vals := stepPlanValues(lab.ID, "verify")
	vals["step_order"] = num(10)
	vals["continue_on_failure"] = boolean(true)
	resp := &resource.CreateResponse{State: emptyState(schm)}
	r.Create(ctx, resource.CreateRequest{Plan: plan(schm, vals)}, resp)
	if resp.Diagnostics.HasError() {
		t.Fatalf("Create: %v", resp.Diagnostics)
	}

	var got testSetupStepModel
	resp.State.Get(ctx, &got)
	if got.StepOrder.ValueInt64() != 10 {
		t.Errorf("step_order: got %d, want 10", got.StepOrder.ValueInt64())
	}
	if !got.ContinueOnFailure.ValueBool() {
		t.Error("continue_on_failure should be true")
	}
}

func TestSetupStepResource_Create_MissingLab(t *testing.T) {
	_, r, _ := newStepResource(t)
	schm := getSchema(t, r)

	resp := &resource.CreateResponse{State: emptyState(schm)}
	r.Create(context.Background(), resource.CreateRequest{Plan: plan(schm, stepPlanValues("lab-gone", "install"))}, resp)
	if !resp.Diagnostics.HasError() {
		t.Error("Create on a missing lab: expected error, got none")
	}
}

func TestSetupStepResource_Read(t *testing.T) {
	ctx := context.Background()
	api, r, lab := newStepResource(t)
	schm := getSchema(t, r)
	step := api.seedStep(apiclient.SetupStep{LabID: lab.ID, StepOrder: 1, Title: "install", SetupCommand: "apt-get install -y postgresql", RetryCount: 1, TimeoutSeconds: 300})
	initial := state(schm, stepStateValues(step))

	// Reordered outside Terraform.
	step.StepOrder = 4
	api.seedStep(step)

	resp := &resource.ReadResponse{State: initial}
	r.Read(ctx, resource.ReadRequest{State: initial}, resp)
	if resp.Diagnostics.HasError() {
		t.Fatalf("Read: %v", resp.Diagnostics)
	}
	var got testSetupStepModel
	resp.State.Get(ctx, &got)
	if got.StepOrder.ValueInt64() != 4 {
		t.Errorf("step_order: got %d, want 4", got.StepOrder.ValueInt64())
	}

	// Deleting the lab removes its steps.
	api.mu.Lock()
	delete(api.labs, lab.ID)
	api.mu.Unlock()

	resp = &resource.ReadResponse{State: initial}
	r.Read(ctx, resource.ReadRequest{State: initial}, resp)
	if resp.Diagnostics.HasError() {
		t.Fatalf("Read after lab delete: %v", resp.Diagnostics)
	}
	if !resp.State.Raw.IsNull() {
		t.Error("Read: state should be removed when the lab is gone")
	}
}

func TestSetupStepResource_Update_KeepsOrderWhenUnknown(t *testing.T) {
	ctx := context.Background()
	api, r, lab := newStepResource(t)
	schm := getSchema(t, r)
	step := api.seedStep(apiclient.SetupStep{LabID: lab.ID, StepOrder: 3, Title: "seed", SetupCommand: "psql -f seed.sql", RetryCount: 1, TimeoutSeconds: 300})
	current := state(schm, stepStateValues(step))

	vals := stepPlanValues(lab.ID, "seed")
	vals["id"] = str(step.ID)
	vals["retry_count"] = num(5)
	resp := &resource.UpdateResponse{State: current}
	r.Update(ctx, resource.UpdateRequest{Plan: plan(schm, vals), State: current}, resp)
	if resp.Diagnostics.HasError() {
		t.Fatalf("Update: %v", resp.Diagnostics)
	}

	stored, _ := api.step(step.ID)
	if stored.StepOrder != 3 {
		t.Errorf("step_order: got %d, want 3", stored.StepOrder)
	}
	if stored.RetryCount != 5 {
		t.Errorf("retry_count: got %d, want 5", stored.RetryCount)
	}
	if stored.SetupCommand != "echo seed" {
		t.Errorf("setup_command: got %q", stored.SetupCommand)
	}
}

func TestSetupStepResource_Delete(t *testing.T) {
	api, r, lab := newStepResource(t)
	schm := getSchema(t, r)
	step := api.seedStep(apiclient.SetupStep{LabID: lab.ID, StepOrder: 1, Title: "install", SetupCommand: "true", RetryCount: 1, TimeoutSeconds: 1})

	current := state(schm, stepStateValues(step))
	resp := &resource.DeleteResponse{State: current}
	r.Delete(context.Background(), resource.DeleteRequest{State: current}, resp)
	if resp.Diagnostics.HasError() {
		t.Fatalf("Delete: %v", resp.Diagnostics)
	}
	if _, ok := api.step(step.ID); ok {
		t.Error("step should be deleted")
	}

	// Already gone is fine.
	resp = &resource.DeleteResponse{State: current}
	r.Delete(context.Background(), resource.DeleteRequest{State: current}, resp)
	if resp.Diagnostics.HasError() {
		t.Errorf("second Delete: %v", resp.Diagnostics)
	}
}

func TestSetupStepResource_ImportState(t *testing.T) {
	ctx := context.Background()
	api, r, lab := newStepResource(t)
	schm := getSchema(t, r)
	step := api.seedStep(apiclient.SetupStep{LabID: lab.ID, StepOrder: 2, Title: "seed", SetupCommand: "make seed", RetryCount: 2, TimeoutSeconds: 60})
	importer := r.(resource.ResourceWithImportState)

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "lab and step", id: lab.ID + "/" + step.ID},
		{name: "step only", id: step.ID, wantErr: true},
		{name: "empty step", id: lab.ID + "/", wantErr: true},
		{name: "unknown step", id: lab.ID + "/step-404", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &resource.ImportStateResponse{State: emptyState(schm)}
			importer.ImportState(ctx, resource.ImportStateRequest{ID: tt.id}, resp)
			if got := resp.Diagnostics.HasError(); got != tt.wantErr {
				t.Fatalf("HasError: got %v, want %v (%v)", got, tt.wantErr, resp.Diagnostics)
			}
			if tt.wantErr {
				return
			}
			var got testSetupStepModel
			resp.State.Get(ctx, &got)
			if got.LabID.ValueString() != lab.ID || got.RetryCount.ValueInt64() != 2 {
				t.Errorf("imported state: got %+v", got)
			}
		})
	}
}
