package tree

import (
	"testing"

	"github.com/goliatone/go-datatree/pkg/session"
)

func TestClassify(t *testing.T) {
	absent := Lookup{}
	null := Lookup{Present: true}
	value := Lookup{Value: "x", Present: true}

	cases := []struct {
		name     string
		baseline Lookup
		working  Lookup
		readOnly bool
		want     Change
	}{
		{name: "new value", baseline: absent, working: value, want: AddEligible},
		{name: "new null", baseline: absent, working: null, want: Unchanged},
		{name: "both absent", baseline: absent, working: absent, want: Unchanged},
		{name: "nulled", baseline: value, working: null, want: MarkedForRemoval},
		{name: "spliced out", baseline: value, working: absent, want: MarkedForRemoval},
		{name: "kept", baseline: value, working: value, want: Unchanged},
		{name: "null baseline", baseline: null, working: value, want: Unchanged},
		{name: "read only nulled", baseline: value, working: null, readOnly: true, want: Unchanged},
		{name: "read only before create", baseline: absent, working: value, readOnly: true, want: AddEligible},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.baseline, tc.working, tc.readOnly); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestVisualForPrefersTransientTags(t *testing.T) {
	if got := VisualFor(MarkedForRemoval, session.VisualDuplicated); got != session.VisualDuplicated {
		t.Fatalf("expected duplicated, got %s", got)
	}
	if got := VisualFor(MarkedForRemoval, session.VisualNone); got != session.VisualRemoved {
		t.Fatalf("expected marked-for-removal, got %s", got)
	}
	if got := VisualFor(AddEligible, session.VisualRemoved); got != session.VisualAdded {
		t.Fatalf("expected added, got %s", got)
	}
	if got := VisualFor(Unchanged, session.VisualNone); got != session.VisualNone {
		t.Fatalf("expected none, got %s", got)
	}
}
