package outcome

import "testing"

func TestFromByteRoundTrips(t *testing.T) {
	for o := Pass; o <= InternalError; o++ {
		got, ok := FromByte(byte(o))
		if !ok {
			t.Fatalf("FromByte(%d) reported not ok", o)
		}
		if got != o {
			t.Fatalf("FromByte(%d) = %v, want %v", o, got, o)
		}
	}
}

func TestFromByteRejectsOutOfRange(t *testing.T) {
	if _, ok := FromByte(255); ok {
		t.Fatalf("FromByte(255) should not decode to a valid outcome")
	}
}

func TestScaleClampsAndRoundsTowardZero(t *testing.T) {
	cases := []struct {
		name     string
		score    Score
		cap      Points
		wantEarn Points
	}{
		{"exact half", Score{Earned: 5, Possible: 10}, 20, 10},
		{"rounds down", Score{Earned: 1, Possible: 3}, 10, 3}, // 1*10/3 = 3.33 -> 3
		{"zero possible collapses", Score{Earned: 0, Possible: 0}, 50, 0},
		{"full marks", Score{Earned: 4, Possible: 4}, 4, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.score.Scale(tc.cap)
			if got.Earned != tc.wantEarn {
				t.Errorf("Earned = %d, want %d", got.Earned, tc.wantEarn)
			}
			if tc.score.Possible == 0 {
				if got.Possible != 0 {
					t.Errorf("Possible = %d, want 0 when original possible is 0", got.Possible)
				}
			} else if got.Possible != tc.cap {
				t.Errorf("Possible = %d, want %d", got.Possible, tc.cap)
			}
		})
	}
}

func TestScoreAdd(t *testing.T) {
	a := Score{Earned: 2, Possible: 3}
	b := Score{Earned: 1, Possible: 1}
	got := a.Add(b)
	want := Score{Earned: 3, Possible: 4}
	if got != want {
		t.Fatalf("Add = %+v, want %+v", got, want)
	}
}

func TestShortPhraseNeverLeaksDetail(t *testing.T) {
	for _, o := range []Outcome{Fail, Exception, Crash, Timeout} {
		if o.ShortPhrase() == "" {
			t.Errorf("%v.ShortPhrase() is empty", o)
		}
	}
}
