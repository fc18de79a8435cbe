package summary

import (
	"testing"

	"rlmengine/internal/apperr"
	"rlmengine/internal/domain"
)

func TestPlanGateRejectsFreeBeforeTouchingStorage(t *testing.T) {
	s := &Store{}
	_, err := s.Store(nil, domain.PlanFree, "proj1", "sec1", "content")
	if apperr.KindOf(err) != apperr.KindAccess {
		t.Fatalf("expected access error for FREE plan, got %v", err)
	}
}

func TestGetPlanGateRejectsFree(t *testing.T) {
	s := &Store{}
	_, err := s.Get(nil, domain.PlanFree, "proj1", nil)
	if apperr.KindOf(err) != apperr.KindAccess {
		t.Fatalf("expected access error for FREE plan, got %v", err)
	}
}

func TestDeletePlanGateRejectsFree(t *testing.T) {
	s := &Store{}
	err := s.Delete(nil, domain.PlanFree, "proj1", "sec1")
	if apperr.KindOf(err) != apperr.KindAccess {
		t.Fatalf("expected access error for FREE plan, got %v", err)
	}
}
