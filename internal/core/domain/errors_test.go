package domain_test

import (
	"errors"
	"testing"

	"go.rtlflow.dev/yoke/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domain.ErrorClass
	}{
		{"nil", nil, domain.ClassNone},
		{"cycle", domain.ErrCycleDetected, domain.ClassConfig},
		{"type mismatch", domain.ErrTypeMismatch, domain.ClassConfig},
		{"missing checkpoint", domain.ErrNoSuchCheckpoint, domain.ClassConfig},
		{"tool fatal", domain.ErrToolFatal, domain.ClassTool},
		{"tool missing", domain.ErrToolNotFound, domain.ClassTool},
		{"pass order", domain.ErrPassOrderViolated, domain.ClassInternal},
		{"unknown error", errors.New("boom"), domain.ClassTool},
		{"wrapped config", zerr.Wrap(domain.ErrMissingParameter, "task check failed"), domain.ClassConfig},
		{"internal wins over joined config", errors.Join(domain.ErrMissingParameter, domain.ErrPassOrderViolated), domain.ClassInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.Classify(tc.err); got != tc.want {
				t.Errorf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
