package types

import "testing"

func TestForecastWindow_NilSafe(t *testing.T) {
	var w *ForecastWindow
	if w.Len() != 0 {
		t.Errorf("Len() on nil window = %d, want 0", w.Len())
	}
	if w.ConditionCodes() != nil {
		t.Errorf("ConditionCodes() on nil window = %v, want nil", w.ConditionCodes())
	}
}

func TestForecastWindow_ConditionCodes(t *testing.T) {
	w := &ForecastWindow{Entries: []ForecastEntry{
		{ConditionCode: 800},
		{ConditionCode: 500},
		{ConditionCode: 701},
	}}
	got := w.ConditionCodes()
	want := []int{800, 500, 701}
	if len(got) != len(want) {
		t.Fatalf("ConditionCodes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ConditionCodes()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
