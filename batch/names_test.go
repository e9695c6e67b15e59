package batch

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"Black Holes", 50, "Black Holes"},
		{`a<b>c:d"e/f\g|h?i*j`, 50, "a_b_c_d_e_f_g_h_i_j"},
		{"  Earth's core  ", 50, "Earths core"},
		{"ααααα", 3, "ααα"},
		{"", 10, ""},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("SanitizeFilename(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestImageFilename(t *testing.T) {
	got := ImageFilename(7, "Black Holes", `Isn't "this" a/b?`)
	want := "image_007_Black Holes_Isnt _this_ a_b_.png"
	if got != want {
		t.Fatalf("ImageFilename = %q, want %q", got, want)
	}

	n, entity, snippet, ok := ParseImageFilename(got)
	if !ok || n != 7 || entity != "Black Holes" || snippet != "Isnt _this_ a_b_" {
		t.Errorf("ParseImageFilename = %d %q %q %v", n, entity, snippet, ok)
	}
}

func TestImageFilenameTruncatesQuote(t *testing.T) {
	got := ImageFilename(120, "Sun", "The Sun holds 99.86 percent of the mass of the Solar System.")
	want := "image_120_Sun_The Sun holds 99.86 percent of.png"
	if got != want {
		t.Errorf("ImageFilename = %q, want %q", got, want)
	}
}

func TestParseImageFilenameRejects(t *testing.T) {
	for _, name := range []string{"image_01.png", "photo_001_Moon_x.png", "image_001_Moon_x.jpg", "image_abc_Moon_x.png"} {
		if _, _, _, ok := ParseImageFilename(name); ok {
			t.Errorf("ParseImageFilename(%q) accepted", name)
		}
	}
}
