package kumo

import (
	"encoding/json"
	"testing"
)

func TestParameterEvent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ParameterEvent
		wantErr bool
	}{
		{
			name:  "string value",
			input: `{"param_id":"eParamID_XPT_Destination2_Locked","param_type":"enum","int_value":1,"str_value":"Locked","last_config_update":"1712"}`,
			want:  ParameterEvent{ParamID: "eParamID_XPT_Destination2_Locked", ParamType: "enum", NumericValue: 1, StringValue: "Locked", LastUpdate: "1712"},
		},
		{
			name:  "numeric str_value",
			input: `{"param_id":"eParamID_XPT_Destination2_Status","param_type":"int","int_value":3,"str_value":3,"last_config_update":1712}`,
			want:  ParameterEvent{ParamID: "eParamID_XPT_Destination2_Status", ParamType: "int", NumericValue: 3, StringValue: "3", LastUpdate: "1712"},
		},
		{
			name:  "null and missing fields",
			input: `{"param_id":"eParamID_Temperature","str_value":null}`,
			want:  ParameterEvent{ParamID: "eParamID_Temperature"},
		},
		{
			name:    "non-numeric int_value",
			input:   `{"param_id":"x","int_value":"abc"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ParameterEvent
			err := json.Unmarshal([]byte(tt.input), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMatrixState_MarshalJSON(t *testing.T) {
	m := MatrixState{3: {3}, 1: {1}, 2: {2, 4}, 4: nil}

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"1":[1],"2":[2,4],"3":[3],"4":[]}`
	if string(b) != want {
		t.Errorf("Marshal() = %s, want %s", b, want)
	}
}

func TestMatrixState_SourceOf(t *testing.T) {
	m := MatrixState{1: {1}, 2: {2, 4}}

	if got := m.SourceOf(4); got != 2 {
		t.Errorf("SourceOf(4) = %d, want 2", got)
	}
	if got := m.SourceOf(3); got != 0 {
		t.Errorf("SourceOf(3) = %d, want 0", got)
	}
}

func TestMatrixState_Clone(t *testing.T) {
	m := MatrixState{2: {2, 4}}
	c := m.Clone()
	c[2][0] = 9

	if m[2][0] != 2 {
		t.Error("Clone shares backing arrays with the original")
	}
}

func TestPortType_Text(t *testing.T) {
	b, err := Destination.MarshalText()
	if err != nil || string(b) != "destination" {
		t.Errorf("MarshalText() = %s, %v", b, err)
	}

	var pt PortType
	if err := pt.UnmarshalText([]byte("Source")); err != nil || pt != Source {
		t.Errorf("UnmarshalText(Source) = %v, %v", pt, err)
	}
	if err := pt.UnmarshalText([]byte("input")); err == nil {
		t.Error("UnmarshalText(input) should fail")
	}
}

func TestAggregateEvent_IsEmpty(t *testing.T) {
	if !Empty().IsEmpty() {
		t.Error("Empty().IsEmpty() = false")
	}
	ev := Empty()
	ev.Temperature = 0
	if ev.IsEmpty() {
		t.Error("a 0 degree reading is not empty")
	}
}
