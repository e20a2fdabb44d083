package graph

import (
	"reflect"
	"testing"
	"time"

	"github.com/elcontad0r/legislative-intelligence/pkg/types"
)

func TestFlattenPropsNestedMaps(t *testing.T) {
	flat := FlattenProps(map[string]any{
		"heading": "Definitions",
		"chapter": map[string]any{
			"number":  "7",
			"heading": "Social Security",
		},
	})

	expected := map[string]any{
		"heading":         "Definitions",
		"chapter_number":  "7",
		"chapter_heading": "Social Security",
	}
	if !reflect.DeepEqual(flat, expected) {
		t.Errorf("Expected %v, got %v", expected, flat)
	}
}

func TestFlattenPropsDropsNils(t *testing.T) {
	flat := FlattenProps(map[string]any{
		"title":        42,
		"enacted_date": nil,
		"nested": map[string]any{
			"kept":    "yes",
			"dropped": nil,
		},
	})

	if _, found := flat["enacted_date"]; found {
		t.Error("Expected nil top-level value to be dropped")
	}
	if _, found := flat["nested_dropped"]; found {
		t.Error("Expected nil nested value to be dropped")
	}
	if flat["nested_kept"] != "yes" {
		t.Errorf("Expected nested_kept, got %v", flat)
	}
}

func TestFlattenPropsDates(t *testing.T) {
	july30 := types.Date{Year: 1965, Month: 7, Day: 30}
	fetched := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	flat := FlattenProps(map[string]any{
		"enacted_date": july30,
		"updated_date": &july30,
		"fetched_at":   fetched,
	})

	if flat["enacted_date"] != "1965-07-30" {
		t.Errorf("Expected ISO date, got %v", flat["enacted_date"])
	}
	if flat["updated_date"] != "1965-07-30" {
		t.Errorf("Expected ISO date from pointer, got %v", flat["updated_date"])
	}
	if flat["fetched_at"] != "2026-08-25T12:00:00Z" {
		t.Errorf("Expected RFC3339 timestamp, got %v", flat["fetched_at"])
	}

	var missing *types.Date
	flat = FlattenProps(map[string]any{"enacted_date": missing})
	if _, found := flat["enacted_date"]; found {
		t.Error("Expected nil date pointer to be dropped")
	}
}

func TestFlattenPropsKeepsScalarLists(t *testing.T) {
	flat := FlattenProps(map[string]any{
		"subjects": []string{"health", "taxation"},
	})
	if !reflect.DeepEqual(flat["subjects"], []string{"health", "taxation"}) {
		t.Errorf("Expected scalar list preserved, got %v", flat["subjects"])
	}
}

func TestFlattenPropsDoesNotMutateInput(t *testing.T) {
	input := map[string]any{
		"chapter": map[string]any{"number": "7"},
	}
	FlattenProps(input)
	if _, found := input["chapter_number"]; found {
		t.Error("FlattenProps mutated its input")
	}
}

func TestRoleForPosition(t *testing.T) {
	if role := RoleForPosition(0); role != EdgeEnacts {
		t.Errorf("Expected position 0 to enact, got %s", role)
	}
	for _, position := range []int{1, 2, 17} {
		if role := RoleForPosition(position); role != EdgeAmends {
			t.Errorf("Expected position %d to amend, got %s", position, role)
		}
	}
}
