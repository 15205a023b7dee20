package experience

import "testing"

func TestComputeProgress(t *testing.T) {
	cases := []struct {
		total     int64
		level     int
		inLevel   int64
		toNext    int64
		threshold int64
	}{
		{0, 1, 0, 1500, 1500},
		{1499, 1, 1499, 1, 1500},
		{1500, 2, 0, 2250, 2250},
		{3749, 2, 2249, 1, 2250},
		{3750, 3, 0, 3375, 3375},
		{5000, 3, 1250, 2125, 3375},
		// 3375 + 3375/2 truncates to 5062
		{3750 + 3375, 4, 0, 5062, 5062},
	}
	for _, tc := range cases {
		p := ComputeProgress(tc.total)
		if p.Level != tc.level || p.ExperienceInCurrentLevel != tc.inLevel ||
			p.ExperienceToNextLevel != tc.toNext || p.RequiredForLevel != tc.threshold {
			t.Fatalf("ComputeProgress(%d) = %+v, want level %d in %d next %d required %d",
				tc.total, p, tc.level, tc.inLevel, tc.toNext, tc.threshold)
		}
	}
}

func TestComputeProgressConsistent(t *testing.T) {
	for total := int64(0); total < 200000; total += 37 {
		p := ComputeProgress(total)
		if p.Level < 1 {
			t.Fatalf("ComputeProgress(%d).Level = %d", total, p.Level)
		}
		if p.ExperienceInCurrentLevel+p.ExperienceToNextLevel != p.RequiredForLevel {
			t.Fatalf("ComputeProgress(%d) = %+v, in + next != required", total, p)
		}
		if p.ExperienceInCurrentLevel < 0 || p.ExperienceInCurrentLevel >= p.RequiredForLevel {
			t.Fatalf("ComputeProgress(%d) = %+v, in-level out of range", total, p)
		}
	}
}

func TestComputeProgressMonotonicLevel(t *testing.T) {
	last := 0
	for total := int64(0); total < 100000; total += 11 {
		level := ComputeProgress(total).Level
		if level < last {
			t.Fatalf("level dropped from %d to %d at total %d", last, level, total)
		}
		last = level
	}
}
