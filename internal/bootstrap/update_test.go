package bootstrap

import "testing"

func TestShouldUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		installed string
		remote    string
		fresh     bool
		want      bool
	}{
		{"fresh directory forces install", "0.0.0", "1.2.0", true, true},
		{"baseline against newer remote, existing dir", "0.0.0", "1.2.0", false, false},
		{"installed ahead of remote", "2.0.0", "1.2.0", false, true},
		{"versions equal", "1.2.0", "1.2.0", false, false},
		{"installed behind remote", "1.1.0", "1.2.0", false, false},
		{"v-prefixed tags compare the same", "v2.0.0", "1.2.0", false, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ShouldUpdate(tt.installed, tt.remote, tt.fresh)
			if err != nil {
				t.Fatalf("ShouldUpdate: %v", err)
			}
			if got != tt.want {
				t.Errorf("ShouldUpdate(%q, %q, %v) = %v, want %v",
					tt.installed, tt.remote, tt.fresh, got, tt.want)
			}
		})
	}
}

func TestShouldUpdateInvalidVersions(t *testing.T) {
	t.Parallel()

	if _, err := ShouldUpdate("garbage", "1.0.0", false); err == nil {
		t.Error("expected error for invalid installed version")
	}
	if _, err := ShouldUpdate("1.0.0", "garbage", false); err == nil {
		t.Error("expected error for invalid remote version")
	}

	// The fresh flag decides before versions are even looked at.
	if got, err := ShouldUpdate("garbage", "garbage", true); err != nil || !got {
		t.Errorf("ShouldUpdate(fresh) = (%v, %v), want (true, nil)", got, err)
	}
}
