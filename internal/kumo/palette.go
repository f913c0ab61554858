package kumo

import "strings"

// DefaultColor is used when a button class names none of the palette entries.
const DefaultColor = "#87b4c8"

// palette maps the router's button css classes to hex colors, in match order.
var palette = []struct {
	class string
	hex   string
}{
	{"color_1", "#cb7676"},
	{"color_2", "#e6a52e"},
	{"color_3", "#d9cb7e"},
	{"color_4", "#87b4c8"},
	{"color_5", "#64c896"},
	{"color_6", "#ade68e"},
	{"color_7", "#7888cb"},
	{"color_8", "#9b8ce1"},
	{"color_9", "#c84b91"},
}

// ColorForClass returns the hex color for a button class string such as
// "btn color_3 selected". The first palette token contained in the class wins.
func ColorForClass(className string) string {
	for _, entry := range palette {
		if strings.Contains(className, entry.class) {
			return entry.hex
		}
	}
	return DefaultColor
}

// ClassForColor returns the palette class for a hex color, or "" if the color
// is not in the palette. The simulator uses it to answer button class reads.
func ClassForColor(hex string) string {
	for _, entry := range palette {
		if strings.EqualFold(entry.hex, hex) {
			return entry.class
		}
	}
	return ""
}

// Palette returns the palette hex colors in class order (color_1 first).
func Palette() []string {
	out := make([]string, len(palette))
	for i, entry := range palette {
		out[i] = entry.hex
	}
	return out
}
