package controller

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/tphummel/lab_templates/internal/models"
)

var errNotFound = errors.New("not found")

// fakeStore is an in-memory lab store. fail makes the named method return an
// error; failStep makes updates of one step fail.
type fakeStore struct {
	mu       sync.Mutex
	labs     map[string]models.Lab
	steps    map[string]models.SetupStep
	seq      int
	calls    int
	fail     map[string]error
	failStep string

	// gate, when set, blocks CreateSetupStep until it is closed. entered
	// receives once the call is blocked.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		labs:  map[string]models.Lab{},
		steps: map[string]models.SetupStep{},
		fail:  map[string]error{},
	}
}

func (f *fakeStore) call(method string) error {
	f.calls++
	return f.fail[method]
}

func (f *fakeStore) id(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// seedLab stores a lab with steps at the given orders, titled step-<order>.
func (f *fakeStore) seedLab(name string, orders ...int) (models.Lab, []models.SetupStep) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lab := models.Lab{ID: f.id("lab"), Name: name, BaseImage: "alpine", EstimatedTime: 10, IsActive: true,
		CreatedAt: time.Date(2024, 1, f.seq, 0, 0, 0, 0, time.UTC)}
	f.labs[lab.ID] = lab
	var steps []models.SetupStep
	for _, o := range orders {
		s := models.SetupStep{ID: f.id("step"), LabID: lab.ID, StepOrder: o, Title: fmt.Sprintf("step-%d", o),
			SetupCommand: "true", RetryCount: 1, TimeoutSeconds: 300}
		f.steps[s.ID] = s
		steps = append(steps, s)
	}
	return lab, steps
}

func (f *fakeStore) order(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.steps[id].StepOrder
}

func (f *fakeStore) stepsOf(labID string) []models.SetupStep {
	var out []models.SetupStep
	for _, s := range f.steps {
		if s.LabID == labID {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b models.SetupStep) int {
		return cmp.Or(a.StepOrder-b.StepOrder, cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (f *fakeStore) ListLabs(ctx context.Context, active *bool) ([]models.Lab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListLabs"); err != nil {
		return nil, err
	}
	var out []models.Lab
	for _, l := range f.labs {
		if active == nil || l.IsActive == *active {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b models.Lab) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f *fakeStore) GetLab(ctx context.Context, id string) (*models.Lab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("GetLab"); err != nil {
		return nil, err
	}
	l, ok := f.labs[id]
	if !ok {
		return nil, errNotFound
	}
	return &l, nil
}

func (f *fakeStore) CreateLab(ctx context.Context, req models.CreateLabRequest) (*models.Lab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreateLab"); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	l := models.Lab{ID: f.id("lab"), Name: req.Name, Description: req.Description, BaseImage: req.BaseImage,
		EstimatedTime: req.EstimatedTime, IsActive: true, CreatedAt: time.Date(2024, 1, f.seq, 0, 0, 0, 0, time.UTC)}
	f.labs[l.ID] = l
	return &l, nil
}

func (f *fakeStore) UpdateLab(ctx context.Context, id string, req models.UpdateLabRequest) (*models.Lab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("UpdateLab"); err != nil {
		return nil, err
	}
	l, ok := f.labs[id]
	if !ok {
		return nil, errNotFound
	}
	l.Name, l.Description, l.BaseImage, l.EstimatedTime = req.Name, req.Description, req.BaseImage, req.EstimatedTime
	f.labs[id] = l
	return &l, nil
}

func (f *fakeStore) DeleteLab(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteLab"); err != nil {
		return err
	}
	if _, ok := f.labs[id]; !ok {
		return errNotFound
	}
	delete(f.labs, id)
	for sid, s := range f.steps {
		if s.LabID == id {
			delete(f.steps, sid)
		}
	}
	return nil
}

func (f *fakeStore) ToggleLabStatus(ctx context.Context, id string) (*models.Lab, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ToggleLabStatus"); err != nil {
		return nil, err
	}
	l, ok := f.labs[id]
	if !ok {
		return nil, errNotFound
	}
	l.IsActive = !l.IsActive
	f.labs[id] = l
	return &l, nil
}

func (f *fakeStore) ListSetupSteps(ctx context.Context, labID string) ([]models.SetupStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListSetupSteps"); err != nil {
		return nil, err
	}
	if _, ok := f.labs[labID]; !ok {
		return nil, errNotFound
	}
	return f.stepsOf(labID), nil
}

func (f *fakeStore) createLocked(labID string, req models.CreateSetupStepRequest) models.SetupStep {
	next := 1
	for _, s := range f.stepsOf(labID) {
		next = max(next, s.StepOrder+1)
	}
	s := req.NewStep(f.id("step"), labID, next)
	f.steps[s.ID] = s
	return s
}

func (f *fakeStore) CreateSetupStep(ctx context.Context, labID string, req models.CreateSetupStepRequest) (*models.SetupStep, error) {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreateSetupStep"); err != nil {
		return nil, err
	}
	if _, ok := f.labs[labID]; !ok {
		return nil, errNotFound
	}
	s := f.createLocked(labID, req)
	return &s, nil
}

func (f *fakeStore) CreateSetupSteps(ctx context.Context, labID string, reqs []models.CreateSetupStepRequest) ([]models.SetupStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreateSetupSteps"); err != nil {
		return nil, err
	}
	if _, ok := f.labs[labID]; !ok {
		return nil, errNotFound
	}
	out := make([]models.SetupStep, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, f.createLocked(labID, req))
	}
	return out, nil
}

func (f *fakeStore) UpdateSetupStep(ctx context.Context, req models.UpdateSetupStepRequest) (*models.SetupStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("UpdateSetupStep"); err != nil {
		return nil, err
	}
	if req.ID == f.failStep {
		return nil, fmt.Errorf("update %s: boom", req.ID)
	}
	s, ok := f.steps[req.ID]
	if !ok {
		return nil, errNotFound
	}
	s = req.CreateSetupStepRequest.Apply(s)
	f.steps[s.ID] = s
	return &s, nil
}

func (f *fakeStore) DeleteSetupStep(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteSetupStep"); err != nil {
		return err
	}
	if _, ok := f.steps[id]; !ok {
		return errNotFound
	}
	delete(f.steps, id)
	return nil
}

func (f *fakeStore) DeleteSetupSteps(ctx context.Context, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteSetupSteps"); err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if _, ok := f.steps[id]; ok {
			delete(f.steps, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ReorderSetupSteps(ctx context.Context, labID string, ids []string) ([]models.SetupStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ReorderSetupSteps"); err != nil {
		return nil, err
	}
	if len(ids) != len(f.stepsOf(labID)) {
		return nil, errors.New("ids must list every step of the lab exactly once")
	}
	for i, id := range ids {
		s := f.steps[id]
		s.StepOrder = i + 1
		f.steps[id] = s
	}
	return f.stepsOf(labID), nil
}

type note struct {
	level string
	key   string
	args  map[string]string
}

type notes struct {
	mu  sync.Mutex
	all []note
}

func (n *notes) Success(key string, args map[string]string) { n.add("success", key, args) }
func (n *notes) Error(key string, args map[string]string)   { n.add("error", key, args) }

func (n *notes) add(level, key string, args map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.all = append(n.all, note{level, key, args})
}

func (n *notes) keys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.all))
	for i, x := range n.all {
		out[i] = x.level + ":" + x.key
	}
	return out
}

func (n *notes) last() note {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.all) == 0 {
		return note{}
	}
	return n.all[len(n.all)-1]
}

type navigator struct {
	mu     sync.Mutex
	toList int
}

func (n *navigator) ToList() {
	n.mu.Lock()
	n.toList++
	n.mu.Unlock()
}

func (n *navigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.toList
}

func stepIDs(steps []models.SetupStep) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID
	}
	return out
}

func stepOrders(steps []models.SetupStep) []int {
	out := make([]int, len(steps))
	for i, s := range steps {
		out[i] = s.StepOrder
	}
	return out
}
