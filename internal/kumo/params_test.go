package kumo

import "testing"

func TestKindOf(t *testing.T) {
	tests := []struct {
		id   string
		want paramKind
	}{
		{ParamSignalSwitching, kindTopologyReset},
		{ParamTemperature, kindTemperature},
		{ParamTemperatureAlarm, kindOther},
		{"eParamID_XPT_Destination12_Status", kindCrosspoint},
		{"eParamID_XPT_Source4_Line_1", kindLabel},
		{"eParamID_XPT_Destination4_Line_2", kindLabel},
		{"eParamID_Button_Settings_9", kindColor},
		{"eParamID_XPT_Destination3_Locked", kindLock},
		{ParamSysName, kindOther},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := kindOf(tt.id); got != tt.want {
				t.Errorf("kindOf(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestPortIndex(t *testing.T) {
	tests := []struct {
		id      string
		want    int
		wantErr bool
	}{
		{id: "eParamID_XPT_Destination12_Status", want: 12},
		{id: "eParamID_XPT_Source3_Line_2", want: 3},
		{id: "eParamID_Button_Settings_16", want: 16},
		{id: "eParamID_XPT_Destination_Locked", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := portIndex(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("portIndex() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("portIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParamBuilders(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{DestinationStatusParam(3), "eParamID_XPT_Destination3_Status"},
		{DestinationLockParam(7), "eParamID_XPT_Destination7_Locked"},
		{LineParam(Source, 2, 1), "eParamID_XPT_Source2_Line_1"},
		{LineParam(Destination, 16, 2), "eParamID_XPT_Destination16_Line_2"},
		{ButtonSettingsParam(20), "eParamID_Button_Settings_20"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestLabelLine(t *testing.T) {
	tests := map[string]int{
		"eParamID_XPT_Source1_Line_1":      1,
		"eParamID_XPT_Source1_line_2":      2,
		"eParamID_XPT_Destination1_LINE_1": 1,
		"eParamID_XPT_Source1_Line_3":      0,
	}
	for id, want := range tests {
		if got := labelLine(id); got != want {
			t.Errorf("labelLine(%q) = %d, want %d", id, got, want)
		}
	}
}
