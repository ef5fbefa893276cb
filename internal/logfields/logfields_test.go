package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Page", KeyPage, "Home", Page("Home")},
		{"SourcePage", KeySourcePage, "Home", SourcePage("Home")},
		{"TargetTitle", KeyTargetTitle, "Help", TargetTitle("Help")},
		{"User", KeyUser, "Alice", User("Alice")},
		{"Event", KeyEvent, "RevisionCommitted", Event("RevisionCommitted")},
		{"Path", KeyPath, "/pages/Home", Path("/pages/Home")},
		{"Method", KeyMethod, "PUT", Method("PUT")},
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
		{"Error", KeyError, "boom", Error(errors.New("boom"))},
		{"NilError", KeyError, "", Error(nil)},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Errorf("%s: expected key %q got %q", c.name, c.attrKey, c.attr.Key)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Errorf("%s: expected value %q got %q", c.name, c.attrVal, c.attr.Value.String())
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Namespace(12); a.Key != KeyNamespace || a.Value.Int64() != 12 {
		t.Errorf("unexpected namespace attr %v", a)
	}
	if a := Budget(1); a.Key != KeyBudget || a.Value.Int64() != 1 {
		t.Errorf("unexpected budget attr %v", a)
	}
	if a := RevisionID(42); a.Key != KeyRevisionID || a.Value.Int64() != 42 {
		t.Errorf("unexpected revision attr %v", a)
	}
	if a := DurationMS(1.5); a.Key != KeyDurationMS || a.Value.Float64() != 1.5 {
		t.Errorf("unexpected duration attr %v", a)
	}
}
