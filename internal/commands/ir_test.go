package commands

import (
	"testing"

	"github.com/carelink/clk/internal/api"
)

func TestChecklistSummary(t *testing.T) {
	p := api.IRProcedure{ConsentSigned: true, NPOConfirmed: true}
	got := checklistSummary(p)
	want := "consent:yes labs:no npo:yes"
	if got != want {
		t.Errorf("checklistSummary() = %q, want %q", got, want)
	}
}
