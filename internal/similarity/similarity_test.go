package similarity

import "testing"

func TestRatio_Identity(t *testing.T) {
	for _, s := range []string{"", "hello", "Test Song"} {
		if got := Ratio(s, s); got != 1.0 {
			t.Errorf("Ratio(%q, %q) = %v; want 1.0", s, s, got)
		}
	}
}

func TestRatio_Symmetric(t *testing.T) {
	a, b := "kitten", "sitting"
	if Ratio(a, b) != Ratio(b, a) {
		t.Errorf("Ratio not symmetric for %q/%q", a, b)
	}
}

func TestRatio_Bounds(t *testing.T) {
	got := Ratio("abc", "xyz123")
	if got < 0 || got > 1 {
		t.Errorf("Ratio out of bounds: %v", got)
	}
}

func TestRatio_Diacritics(t *testing.T) {
	if got := Ratio("Beyonce", "Beyoncé"); got != 1.0 {
		t.Errorf("Ratio(Beyonce, Beyoncé) = %v; want 1.0", got)
	}
	if got := Ratio("Cafe", "Café"); got != 1.0 {
		t.Errorf("Ratio(Cafe, Café) = %v; want 1.0", got)
	}
}

func TestRatio_CaseInsensitive(t *testing.T) {
	if got := Ratio("HELLO", "hello"); got != 1.0 {
		t.Errorf("Ratio(HELLO, hello) = %v; want 1.0", got)
	}
}
