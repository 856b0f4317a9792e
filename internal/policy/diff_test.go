package policy

import "testing"

func TestDiff_Identical(t *testing.T) {
	p := ProtectionPolicy{
		RequiredStatusChecks:         StatusChecks{Strict: true, Contexts: []string{"build", "test"}},
		RequiredApprovingReviewCount: 1,
		EnforceAdmins:                true,
	}
	if diffs := Diff(p, p); len(diffs) != 0 {
		t.Errorf("expected no diffs, got %v", diffs)
	}
}

func TestDiff_ContextOrderInsensitive(t *testing.T) {
	want := ProtectionPolicy{RequiredStatusChecks: StatusChecks{Contexts: []string{"build", "test"}}}
	got := ProtectionPolicy{RequiredStatusChecks: StatusChecks{Contexts: []string{"test", "build"}}}
	if diffs := Diff(want, got); len(diffs) != 0 {
		t.Errorf("context order must not count as divergence, got %v", diffs)
	}
}

func TestDiff_ReviewCountMismatch(t *testing.T) {
	want := ProtectionPolicy{RequiredApprovingReviewCount: 1}
	got := ProtectionPolicy{RequiredApprovingReviewCount: 0}

	diffs := Diff(want, got)
	d, ok := diffs["required_approving_review_count"]
	if !ok {
		t.Fatalf("expected review count diff, got %v", diffs)
	}
	if d.Expected != "1" || d.Actual != "0" {
		t.Errorf("unexpected diff: %+v", d)
	}
}

func TestDiff_ScalarFields(t *testing.T) {
	want := ProtectionPolicy{
		EnforceAdmins:         true,
		RequiredLinearHistory: true,
		AllowForcePushes:      false,
	}
	got := ProtectionPolicy{AllowForcePushes: true}

	diffs := Diff(want, got)
	for _, field := range []string{"enforce_admins", "required_linear_history", "allow_force_pushes"} {
		if _, ok := diffs[field]; !ok {
			t.Errorf("expected diff on %s, got %v", field, diffs)
		}
	}
	if _, ok := diffs["lock_branch"]; ok {
		t.Error("lock_branch matches and must not be reported")
	}
}

func TestDiff_Restrictions(t *testing.T) {
	tests := []struct {
		name      string
		want, got *Restrictions
		wantKeys  []string
	}{
		{
			name:     "both unrestricted",
			wantKeys: nil,
		},
		{
			name:     "expected restricted, live unrestricted",
			want:     &Restrictions{Users: []string{"octocat"}},
			wantKeys: []string{"restrictions"},
		},
		{
			name:     "member sets order insensitive",
			want:     &Restrictions{Users: []string{"a", "b"}},
			got:      &Restrictions{Users: []string{"b", "a"}},
			wantKeys: nil,
		},
		{
			name:     "user set differs",
			want:     &Restrictions{Users: []string{"a"}},
			got:      &Restrictions{Users: []string{"b"}},
			wantKeys: []string{"restrictions.users"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diffs := Diff(ProtectionPolicy{Restrictions: tt.want}, ProtectionPolicy{Restrictions: tt.got})
			if len(diffs) != len(tt.wantKeys) {
				t.Fatalf("expected %d diffs, got %v", len(tt.wantKeys), diffs)
			}
			for _, k := range tt.wantKeys {
				if _, ok := diffs[k]; !ok {
					t.Errorf("expected diff key %s, got %v", k, diffs)
				}
			}
		})
	}
}
