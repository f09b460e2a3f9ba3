package scoring

import "testing"

func TestComputeScoreCleanClient(t *testing.T) {
	result := ComputeScore(0, 0, 0)
	if result.Value != 100 {
		t.Fatalf("expected 100, got %d", result.Value)
	}
	if result.Level != LevelGreen {
		t.Fatalf("expected green, got %s", result.Level)
	}
}

func TestComputeScoreMonotonicity(t *testing.T) {
	for missing := 0; missing <= 5; missing++ {
		for expiring := 0; expiring <= 5; expiring++ {
			for overdue := 0; overdue <= 5; overdue++ {
				base := ComputeScore(missing, expiring, overdue).Value
				if ComputeScore(missing+1, expiring, overdue).Value > base {
					t.Fatalf("score increased with extra missing doc at (%d,%d,%d)", missing, expiring, overdue)
				}
				if ComputeScore(missing, expiring+1, overdue).Value > base {
					t.Fatalf("score increased with extra expiring doc at (%d,%d,%d)", missing, expiring, overdue)
				}
				if ComputeScore(missing, expiring, overdue+1).Value > base {
					t.Fatalf("score increased with extra overdue filing at (%d,%d,%d)", missing, expiring, overdue)
				}
			}
		}
	}
}

func TestComputeScoreClamped(t *testing.T) {
	cases := []Counts{
		{Missing: 0, Expiring: 0, OverdueFilings: 0},
		{Missing: 7, Expiring: 0, OverdueFilings: 0},
		{Missing: 100, Expiring: 100, OverdueFilings: 100},
		{Missing: 1 << 20, Expiring: 1 << 20, OverdueFilings: 1 << 20},
	}
	for _, c := range cases {
		result := ComputeScore(c.Missing, c.Expiring, c.OverdueFilings)
		if result.Value < 0 || result.Value > 100 {
			t.Fatalf("score %d out of range for %+v", result.Value, c)
		}
	}
}

func TestComputeScoreSeverityOrdering(t *testing.T) {
	missing := ComputeScore(1, 0, 0).Value
	overdue := ComputeScore(0, 0, 1).Value
	expiring := ComputeScore(0, 1, 0).Value
	if !(missing < overdue && overdue < expiring) {
		t.Fatalf("expected missing < overdue < expiring penalties, got %d %d %d", missing, overdue, expiring)
	}
}

func TestLevelBoundaries(t *testing.T) {
	cases := []struct {
		value int
		want  Level
	}{
		{100, LevelGreen},
		{80, LevelGreen},
		{79, LevelAmber},
		{60, LevelAmber},
		{59, LevelRed},
		{0, LevelRed},
	}
	for _, c := range cases {
		if got := LevelForScore(c.value); got != c.want {
			t.Fatalf("LevelForScore(%d) = %s, want %s", c.value, got, c.want)
		}
	}
}
