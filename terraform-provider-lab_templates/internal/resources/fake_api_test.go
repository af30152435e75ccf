package resources_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	resourceschema "github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/tfsdk"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-go/tftypes"
	"github.com/tphummel/lab_templates/terraform-provider-lab_templates/internal/apiclient"
)

const testCreatedAt = "2024-02-01T12:00:00Z"

// fakeAPI is an in-memory stand-in for the lab_templates REST API.
type fakeAPI struct {
	mu     sync.Mutex
	labs   map[string]apiclient.Lab
	steps  map[string]apiclient.SetupStep
	nextID int
	calls  []string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *apiclient.Client) {
	t.Helper()
	f := &fakeAPI{labs: map[string]apiclient.Lab{}, steps: map[string]apiclient.SetupStep{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/lab", f.createLab)
	mux.HandleFunc("GET /api/lab/{id}", f.getLab)
	mux.HandleFunc("PUT /api/lab/{id}", f.updateLab)
	mux.HandleFunc("PUT /api/lab/{id}/toggle-status", f.toggleLab)
	mux.HandleFunc("DELETE /api/lab/{id}", f.deleteLab)
	mux.HandleFunc("GET /api/lab/{id}/setup-steps", f.listSteps)
	mux.HandleFunc("POST /api/setup-step/{labId}", f.createStep)
	mux.HandleFunc("PUT /api/setup-step", f.updateStep)
	mux.HandleFunc("DELETE /api/setup-step/{id}", f.deleteStep)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, apiclient.NewClient(srv.URL+"/api", "test-token")
}

func (f *fakeAPI) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeAPI) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) lab(id string) (apiclient.Lab, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.labs[id]
	return l, ok
}

func (f *fakeAPI) step(id string) (apiclient.SetupStep, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.steps[id]
	return s, ok
}

// seedLab stores a lab directly and returns it.
func (f *fakeAPI) seedLab(l apiclient.Lab) apiclient.Lab {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l.ID == "" {
		l.ID = f.id("lab")
	}
	l.CreatedAt = testCreatedAt
	f.labs[l.ID] = l
	return l
}

// seedStep stores a step directly and returns it.
func (f *fakeAPI) seedStep(s apiclient.SetupStep) apiclient.SetupStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		s.ID = f.id("step")
	}
	f.steps[s.ID] = s
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (f *fakeAPI) createLab(w http.ResponseWriter, r *http.Request) {
	var l apiclient.Lab
	json.NewDecoder(r.Body).Decode(&l)
	if l.Name == "" {
		writeError(w, http.StatusBadRequest, "name: is required")
		return
	}
	f.mu.Lock()
	l.ID = f.id("lab")
	l.IsActive = true
	l.CreatedAt = testCreatedAt
	f.labs[l.ID] = l
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, l)
}

func (f *fakeAPI) getLab(w http.ResponseWriter, r *http.Request) {
	l, ok := f.lab(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (f *fakeAPI) updateLab(w http.ResponseWriter, r *http.Request) {
	var in apiclient.Lab
	json.NewDecoder(r.Body).Decode(&in)
	f.mu.Lock()
	l, ok := f.labs[r.PathValue("id")]
	if ok {
		l.Name, l.Description, l.BaseImage, l.EstimatedTime = in.Name, in.Description, in.BaseImage, in.EstimatedTime
		f.labs[l.ID] = l
	}
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (f *fakeAPI) toggleLab(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	l, ok := f.labs[r.PathValue("id")]
	if ok {
		l.IsActive = !l.IsActive
		f.labs[l.ID] = l
	}
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lab": l, "message": "ok"})
}

func (f *fakeAPI) deleteLab(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f.mu.Lock()
	_, ok := f.labs[id]
	delete(f.labs, id)
	for sid, s := range f.steps {
		if s.LabID == id {
			delete(f.steps, sid)
		}
	}
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) listSteps(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f.mu.Lock()
	_, ok := f.labs[id]
	var out []apiclient.SetupStep
	for _, s := range f.steps {
		if s.LabID == id {
			out = append(out, s)
		}
	}
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	slices.SortFunc(out, func(a, b apiclient.SetupStep) int { return int(a.StepOrder - b.StepOrder) })
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeAPI) createStep(w http.ResponseWriter, r *http.Request) {
	labID := r.PathValue("labId")
	var s apiclient.SetupStep
	json.NewDecoder(r.Body).Decode(&s)

	f.mu.Lock()
	if _, ok := f.labs[labID]; !ok {
		f.mu.Unlock()
		writeError(w, http.StatusNotFound, "lab not found")
		return
	}
	if s.StepOrder == 0 {
		for _, existing := range f.steps {
			if existing.LabID == labID && existing.StepOrder > s.StepOrder {
				s.StepOrder = existing.StepOrder
			}
		}
		s.StepOrder++
	}
	s.ID = f.id("step")
	s.LabID = labID
	f.steps[s.ID] = s
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, s)
}

func (f *fakeAPI) updateStep(w http.ResponseWriter, r *http.Request) {
	var in apiclient.SetupStep
	json.NewDecoder(r.Body).Decode(&in)
	f.mu.Lock()
	s, ok := f.steps[in.ID]
	if ok {
		in.LabID = s.LabID
		f.steps[in.ID] = in
	}
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "setup step not found")
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (f *fakeAPI) deleteStep(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f.mu.Lock()
	_, ok := f.steps[id]
	delete(f.steps, id)
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "setup step not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- tfsdk helpers ---

func getSchema(t *testing.T, r resource.Resource) resourceschema.Schema {
	t.Helper()
	var resp resource.SchemaResponse
	r.Schema(context.Background(), resource.SchemaRequest{}, &resp)
	if resp.Diagnostics.HasError() {
		t.Fatalf("Schema: %v", resp.Diagnostics)
	}
	return resp.Schema
}

func str(v string) tftypes.Value   { return tftypes.NewValue(tftypes.String, v) }
func num(v int64) tftypes.Value    { return tftypes.NewValue(tftypes.Number, new(big.Float).SetInt64(v)) }
func boolean(v bool) tftypes.Value { return tftypes.NewValue(tftypes.Bool, v) }

// object builds a schema-typed value from vals. Attributes not in vals are
// unknown when unknown is set, null otherwise.
func object(schm resourceschema.Schema, vals map[string]tftypes.Value, unknown bool) tftypes.Value {
	objType := schm.Type().TerraformType(context.Background()).(tftypes.Object)
	all := make(map[string]tftypes.Value, len(objType.AttributeTypes))
	for name, typ := range objType.AttributeTypes {
		switch v, ok := vals[name]; {
		case ok:
			all[name] = v
		case unknown:
			all[name] = tftypes.NewValue(typ, tftypes.UnknownValue)
		default:
			all[name] = tftypes.NewValue(typ, nil)
		}
	}
	return tftypes.NewValue(objType, all)
}

func plan(schm resourceschema.Schema, vals map[string]tftypes.Value) tfsdk.Plan {
	return tfsdk.Plan{Schema: schm, Raw: object(schm, vals, true)}
}

func state(schm resourceschema.Schema, vals map[string]tftypes.Value) tfsdk.State {
	return tfsdk.State{Schema: schm, Raw: object(schm, vals, false)}
}

func emptyState(schm resourceschema.Schema) tfsdk.State {
	return tfsdk.State{
		Schema: schm,
		Raw:    tftypes.NewValue(schm.Type().TerraformType(context.Background()), nil),
	}
}

// int64Rejected runs the validators of an Int64 attribute against v and
// reports whether any of them raised an error.
func int64Rejected(t *testing.T, schm resourceschema.Schema, name string, v int64) bool {
	t.Helper()
	attr, ok := schm.Attributes[name].(resourceschema.Int64Attribute)
	if !ok {
		t.Fatalf("attribute %q is not an Int64Attribute", name)
	}
	req := validator.Int64Request{Path: path.Root(name), PathExpression: path.MatchRoot(name), ConfigValue: types.Int64Value(v)}
	failed := false
	for _, val := range attr.Int64Validators() {
		var resp validator.Int64Response
		val.ValidateInt64(context.Background(), req, &resp)
		failed = failed || resp.Diagnostics.HasError()
	}
	return failed
}

// stringRejected is int64Rejected for String attributes.
func stringRejected(t *testing.T, schm resourceschema.Schema, name, v string) bool {
	t.Helper()
	attr, ok := schm.Attributes[name].(resourceschema.StringAttribute)
	if !ok {
		t.Fatalf("attribute %q is not a StringAttribute", name)
	}
	req := validator.StringRequest{Path: path.Root(name), PathExpression: path.MatchRoot(name), ConfigValue: types.StringValue(v)}
	failed := false
	for _, val := range attr.StringValidators() {
		var resp validator.StringResponse
		val.ValidateString(context.Background(), req, &resp)
		failed = failed || resp.Diagnostics.HasError()
	}
	return failed
}

// configureResource injects client into the resource; fails the test on error.
func configureResource(t *testing.T, r resource.Resource, client *apiclient.Client) {
	t.Helper()
	rc, ok := r.(resource.ResourceWithConfigure)
	if !ok {
		t.Fatal("resource does not implement ResourceWithConfigure")
	}
	var resp resource.ConfigureResponse
	rc.Configure(context.Background(), resource.ConfigureRequest{ProviderData: client}, &resp)
	if resp.Diagnostics.HasError() {
		t.Fatalf("Configure: %v", resp.Diagnostics)
	}
}
