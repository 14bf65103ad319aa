package rules

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"modelcheck/internal/model"
)

func wall(id string) *model.Node {
	return model.NewNode(id).Set("category", "Walls")
}

func TestCheckProperty(t *testing.T) {
	nodes := []*model.Node{
		wall("w1").Set("FireRating", "EI60"),
		wall("w2"),
		wall("w3").Set("FireRating", "Default"),
		wall("w4").Set("FireRating", ""),
		wall("w5").Set("parameters", model.NewNode("").Set("p1",
			model.NewNode("").Set("name", "FireRating").Set("value", "EI30"))),
		model.NewNode("d1").Set("category", "Doors"),
		model.NewNode("x"),
	}

	pc := CheckProperty(nodes, "Walls", "FireRating", nil)

	if pc.Total != 5 || pc.OutOfCategory != 2 {
		t.Errorf("Total = %d, OutOfCategory = %d; want 5, 2", pc.Total, pc.OutOfCategory)
	}
	if diff := cmp.Diff([]string{"w2"}, pc.Missing); diff != "" {
		t.Errorf("Missing (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"w3", "w4"}, pc.Invalid); diff != "" {
		t.Errorf("Invalid (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"w1", "w5"}, pc.Valid); diff != "" {
		t.Errorf("Valid (-want +got):\n%s", diff)
	}
	if got := pc.Values["w5"].Text(); got != "EI30" {
		t.Errorf("Values[w5] = %q, want EI30", got)
	}
	if pc.Status() != StatusFailed {
		t.Errorf("Status = %s, want failed", pc.Status())
	}
	if !strings.HasPrefix(pc.Summary(), "Found 1 objects without") {
		t.Errorf("Summary = %q", pc.Summary())
	}
	if got, want := pc.MissingMessage(), "This Walls does not have the specified property FireRating"; got != want {
		t.Errorf("MissingMessage = %q, want %q", got, want)
	}
}

func TestCheckProperty_CustomEmptyValues(t *testing.T) {
	nodes := []*model.Node{
		wall("w1").Set("Mark", "TBD"),
		wall("w2").Set("Mark", "Default"),
	}
	pc := CheckProperty(nodes, "Walls", "Mark", []model.Value{model.String("TBD")})
	if diff := cmp.Diff([]string{"w1"}, pc.Invalid); diff != "" {
		t.Errorf("Invalid (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"w2"}, pc.Valid); diff != "" {
		t.Errorf("Valid (-want +got):\n%s", diff)
	}
	if pc.Status() != StatusSucceeded {
		t.Errorf("Status = %s, want succeeded", pc.Status())
	}
	if !strings.Contains(pc.Summary(), "empty/default") {
		t.Errorf("Summary = %q", pc.Summary())
	}
}

func TestCheckProperty_AllValid(t *testing.T) {
	pc := CheckProperty([]*model.Node{wall("w1").Set("Mark", "A")}, "Walls", "Mark", nil)
	if got, want := pc.Summary(), "All 1 Walls objects have valid Mark properties."; got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}
