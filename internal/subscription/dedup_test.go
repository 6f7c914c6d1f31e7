package subscription

import "testing"

func TestEvaluateThresholdBoundary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		price  int
		max    int
		notify bool
	}{
		{name: "below threshold", price: 55000, max: 60000, notify: true},
		{name: "at threshold", price: 60000, max: 60000, notify: true},
		{name: "just above threshold", price: 60001, max: 60000, notify: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			notify, hist := Evaluate("SVO-HKT-2026-02-01", tt.price, tt.max, map[string]int{})
			if notify != tt.notify {
				t.Fatalf("notify = %v, want %v", notify, tt.notify)
			}
			if tt.notify {
				if got := hist["SVO-HKT-2026-02-01"]; got != tt.price {
					t.Fatalf("history = %d, want %d", got, tt.price)
				}
			} else if len(hist) != 0 {
				t.Fatalf("history mutated on negative decision: %v", hist)
			}
		})
	}
}

func TestEvaluateRepeatSuppressed(t *testing.T) {
	t.Parallel()
	const key = "SVO-HKT-2026-02-01"

	notify, hist := Evaluate(key, 55000, 60000, map[string]int{})
	if !notify {
		t.Fatal("first observation under threshold should notify")
	}

	// Same price against the updated history must be silent.
	notify, hist2 := Evaluate(key, 55000, 60000, hist)
	if notify {
		t.Fatal("repeat of the same price should not notify")
	}
	if hist2[key] != 55000 {
		t.Fatalf("history changed on suppressed repeat: %v", hist2)
	}
}

func TestEvaluateMonotonicImprovement(t *testing.T) {
	t.Parallel()
	const key = "SVO-HKT-2026-02-01"

	hist := map[string]int{}
	prices := []int{55000, 70000, 55000, 50000, 50000, 49999}
	want := []bool{true, false, false, true, false, true}

	for i, p := range prices {
		notify, next := Evaluate(key, p, 60000, hist)
		if notify != want[i] {
			t.Fatalf("step %d (price %d): notify = %v, want %v", i, p, notify, want[i])
		}
		hist = next
	}
	if hist[key] != 49999 {
		t.Fatalf("final history = %d, want 49999", hist[key])
	}
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	in := map[string]int{"SVO-HKT-2026-02-01": 55000}
	notify, out := Evaluate("SVO-HKT-2026-02-01", 50000, 60000, in)
	if !notify {
		t.Fatal("expected notify for improved price")
	}
	if in["SVO-HKT-2026-02-01"] != 55000 {
		t.Fatalf("input history mutated: %v", in)
	}
	if out["SVO-HKT-2026-02-01"] != 50000 {
		t.Fatalf("output history = %v", out)
	}
}

func TestEvaluateKeysAreIndependent(t *testing.T) {
	t.Parallel()
	hist := map[string]int{"SVO-HKT-2026-02-01": 50000}
	notify, _ := Evaluate("SVO-HKT-2026-02-02", 55000, 60000, hist)
	if !notify {
		t.Fatal("a different route-date key must not be suppressed by another key's history")
	}
}
