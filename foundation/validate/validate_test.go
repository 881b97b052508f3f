package validate_test

import (
	"testing"

	"github.com/ardanlabs/powledger/foundation/validate"
)

type request struct {
	Sender string   `json:"sender" validate:"required"`
	Amount uint64   `json:"amount" validate:"gt=0"`
	Nodes  []string `json:"nodes" validate:"omitempty,dive,required"`
}

func TestCheck(t *testing.T) {
	if err := validate.Check(request{Sender: "Alice", Amount: 1}); err != nil {
		t.Fatalf("Should accept a valid value: %s", err)
	}

	err := validate.Check(request{Nodes: []string{""}})
	if !validate.IsFieldErrors(err) {
		t.Fatalf("Should get field errors, got %v.", err)
	}

	fields := validate.GetFieldErrors(err).Fields()
	for _, name := range []string{"sender", "amount", "nodes[0]"} {
		if _, exists := fields[name]; !exists {
			t.Fatalf("Should report field %q, got %v.", name, fields)
		}
	}
}
