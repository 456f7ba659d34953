package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"ml-pipelines/internal/model"
)

func openTestDB(t *testing.T) {
	t.Helper()
	if err := InitDB(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { Close() })
}

func newCompilation(pipeline string, created time.Time) *model.Compilation {
	return &model.Compilation{
		ID:        uuid.New().String(),
		Pipeline:  pipeline,
		Name:      pipeline + "-graph",
		Status:    model.StatusCompiled,
		GraphHash: "abc123",
		Params:    []byte(`{"project_id":"demo"}`),
		Workflow:  "kind: Workflow\n",
		CreatedAt: created,
	}
}

func TestSaveAndGetCompilation(t *testing.T) {
	openTestDB(t)
	c := newCompilation("covertype", time.Time{})
	if err := SaveCompilation(c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if c.CreatedAt.IsZero() || !c.UpdatedAt.Equal(c.CreatedAt) {
		t.Errorf("timestamps not set: %v %v", c.CreatedAt, c.UpdatedAt)
	}

	got, err := GetCompilation(c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Pipeline != "covertype" || got.Workflow != "kind: Workflow\n" || got.GraphHash != "abc123" {
		t.Errorf("got %+v", got)
	}
	if string(got.Params) != `{"project_id":"demo"}` {
		t.Errorf("params = %s", got.Params)
	}
}

func TestGetCompilation_NotFound(t *testing.T) {
	openTestDB(t)
	if _, err := GetCompilation("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := SetPublishedURI("missing", "s3://pipelines/missing.yaml"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestListCompilations(t *testing.T) {
	openTestDB(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	older := newCompilation("covertype", base)
	newer := newCompilation("tfx", base.Add(time.Hour))
	for _, c := range []*model.Compilation{older, newer} {
		if err := SaveCompilation(c); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	all, err := ListCompilations("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != newer.ID || all[1].ID != older.ID {
		t.Errorf("list order = %+v", all)
	}

	tfx, err := ListCompilations("tfx")
	if err != nil {
		t.Fatalf("list tfx: %v", err)
	}
	if len(tfx) != 1 || tfx[0].ID != newer.ID {
		t.Errorf("filtered list = %+v", tfx)
	}
}

func TestListCompilations_Empty(t *testing.T) {
	openTestDB(t)
	list, err := ListCompilations("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", list)
	}
}

func TestSetPublishedURI(t *testing.T) {
	openTestDB(t)
	c := newCompilation("covertype", time.Time{})
	if err := SaveCompilation(c); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := SetPublishedURI(c.ID, "s3://pipelines/covertype/x.yaml"); err != nil {
		t.Fatalf("set uri: %v", err)
	}
	got, _ := GetCompilation(c.ID)
	if got.Status != model.StatusPublished || got.PublishedURI != "s3://pipelines/covertype/x.yaml" {
		t.Errorf("after publish: %+v", got)
	}
}

func TestCompileErrors(t *testing.T) {
	openTestDB(t)
	if err := SaveCompileError("c1", nil); err != nil {
		t.Fatalf("nil error should be ignored: %v", err)
	}
	for _, msg := range []string{"first", "second"} {
		if err := SaveCompileError("c1", errors.New(msg)); err != nil {
			t.Fatalf("save error: %v", err)
		}
	}
	if err := SaveCompileError("c2", errors.New("other")); err != nil {
		t.Fatal(err)
	}

	errs, err := GetCompileErrors("c1")
	if err != nil {
		t.Fatalf("get errors: %v", err)
	}
	if len(errs) != 2 || errs[0].Message != "first" || errs[1].Message != "second" {
		t.Errorf("errors = %+v", errs)
	}
}
