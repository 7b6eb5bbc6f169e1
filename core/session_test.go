package core

import "testing"

func TestSession_SetStateAndClone(t *testing.T) {
	s := NewSession("s1", "bot")
	before := s.Updated

	s.SetState(State{"a": 1})
	if s.State["a"].(int) != 1 {
		t.Fatalf("State not applied: %+v", s.State)
	}
	if s.Updated.Before(before) {
		t.Error("Updated should advance")
	}

	clone := s.Clone()
	if clone == s {
		t.Error("Clone should be a different pointer")
	}

	clone.State["c"] = 2
	clone.Metadata["m"] = "x"
	if _, exists := s.State["c"]; exists {
		t.Error("Original should not have clone's new key")
	}
	if _, exists := s.Metadata["m"]; exists {
		t.Error("Original should not have clone's metadata")
	}
}
