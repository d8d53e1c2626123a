package operator

import (
	"testing"

	"graphsentry/internal/model"
)

func TestExists(t *testing.T) {
	if !Apply(model.OpExists, "x", true, "") {
		t.Fatalf("expected exists to be true for present value")
	}
	if Apply(model.OpExists, nil, false, "") {
		t.Fatalf("expected exists to be false for absent value")
	}
	if Apply(model.OpExists, nil, true, "") {
		t.Fatalf("expected exists to be false for null value")
	}
}

func TestEqualsCaseInsensitive(t *testing.T) {
	if !Apply(model.OpEquals, "Add member to role", true, "add member to role") {
		t.Fatalf("expected case-insensitive equals to match")
	}
}

func TestNotEqualsAgainstAbsentIsFalse(t *testing.T) {
	if Apply(model.OpNotEquals, nil, false, "anything") {
		t.Fatalf("expected notEquals against an absent value to be false")
	}
}

func TestNotEqualsAgainstPresentDifferentValue(t *testing.T) {
	if !Apply(model.OpNotEquals, "foo", true, "bar") {
		t.Fatalf("expected notEquals to hold for differing present values")
	}
}

func TestContains(t *testing.T) {
	actual := "User promoted to Global Admin role"
	if !Apply(model.OpContains, actual, true, "Global Admin") {
		t.Fatalf("expected contains to match substring case-insensitively")
	}
}

func TestUnknownOperatorIsFalse(t *testing.T) {
	if Apply(model.Operator("bogus"), "x", true, "x") {
		t.Fatalf("expected unknown operator to be false")
	}
}
