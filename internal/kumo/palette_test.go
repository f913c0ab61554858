package kumo

import "testing"

func TestColorForClass(t *testing.T) {
	tests := []struct {
		class string
		want  string
	}{
		{"color_1", "#cb7676"},
		{"color_2", "#e6a52e"},
		{"foo_color_3_bar", "#d9cb7e"},
		{"btn color_4 active", "#87b4c8"},
		{"color_5", "#64c896"},
		{"color_6", "#ade68e"},
		{"color_7", "#7888cb"},
		{"color_8", "#9b8ce1"},
		{"color_9", "#c84b91"},
		{"unknown", DefaultColor},
		{"", DefaultColor},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			if got := ColorForClass(tt.class); got != tt.want {
				t.Errorf("ColorForClass(%q) = %s, want %s", tt.class, got, tt.want)
			}
		})
	}
}

func TestDefaultColor(t *testing.T) {
	if DefaultColor != "#87b4c8" {
		t.Errorf("DefaultColor = %s, want #87b4c8", DefaultColor)
	}
}

func TestClassForColor(t *testing.T) {
	if got := ClassForColor("#C84B91"); got != "color_9" {
		t.Errorf("ClassForColor() = %q, want color_9", got)
	}
	if got := ClassForColor("#000000"); got != "" {
		t.Errorf("ClassForColor() = %q, want empty", got)
	}
	if n := len(Palette()); n != 9 {
		t.Errorf("len(Palette()) = %d, want 9", n)
	}
}
