package validate

import (
	"strings"
	"testing"
)

type patchEntry struct {
	Index *int  `json:"index" validate:"required"`
	Value int64 `json:"value" validate:"min=0"`
}

type sample struct {
	Date     string       `json:"date" validate:"required,date"`
	Name     string       `json:"name,omitempty" validate:"required,min=3"`
	Segments []patchEntry `json:"segments" validate:"dive"`
}

func TestStructReportsJSONNames(t *testing.T) {
	v := NewValidator("en")
	zero := 0
	errs := v.Struct(&sample{
		Date:     "2024-13-40",
		Name:     "ab",
		Segments: []patchEntry{{Index: &zero}, {Value: -1}},
	})

	got := map[string]string{}
	for _, e := range errs {
		got[e.Domain] = e.Reason
	}
	for _, domain := range []string{"date", "name", "segments[1].index", "segments[1].value"} {
		if _, ok := got[domain]; !ok {
			t.Fatalf("missing error for %q in %v", domain, got)
		}
	}
	if !strings.Contains(got["date"], "YYYY-MM-DD") {
		t.Fatalf("date reason = %q", got["date"])
	}
}

func TestStructValid(t *testing.T) {
	v := NewValidator("en")
	if errs := v.Struct(&sample{Date: "2024-02-29", Name: "alice"}); errs != nil {
		t.Fatalf("unexpected errors: %v", errs[0])
	}
}

func TestVar(t *testing.T) {
	v := NewValidator("en")
	if errs := v.Var("date", "2024-01-01", "date"); errs != nil {
		t.Fatalf("valid date rejected: %v", errs[0])
	}
	errs := v.Var("date", "yesterday", "date")
	if len(errs) != 1 || errs[0].Domain != "date" {
		t.Fatalf("Var errs = %v", errs)
	}
}

func TestAllEmpty(t *testing.T) {
	v := NewValidator("zh")
	if e := v.AllEmpty([]string{"username", "email"}, "", ""); e == nil || e.Domain != "username,email" {
		t.Fatalf("AllEmpty = %v", e)
	}
	if e := v.AllEmpty([]string{"username", "email"}, "", "a@b.c"); e != nil {
		t.Fatalf("AllEmpty = %v, want nil", e)
	}
}
