package kumo

import (
	"context"
	"reflect"
	"testing"
)

func TestGetMatrix(t *testing.T) {
	dev := newScriptedDevice("4")
	for dest, src := range []string{"1", "2", "3", "2"} {
		dev.setParam(DestinationStatusParam(dest+1), ParamValue{Value: src})
	}
	m := NewSessionManager(dev, nil)

	got := m.GetMatrix(context.Background())

	want := MatrixState{1: {1}, 2: {2, 4}, 3: {3}, 4: {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetMatrix() = %v, want %v", got, want)
	}
}

func TestGetMatrix_SkipsUnroutedAndUnreadable(t *testing.T) {
	dev := newScriptedDevice("3")
	dev.setParam(DestinationStatusParam(1), ParamValue{Value: "0"})
	dev.setParam(DestinationStatusParam(2), ParamValue{Value: "3"})
	// destination 3 has no parameter and fails to read
	m := NewSessionManager(dev, nil)

	got := m.GetMatrix(context.Background())

	want := MatrixState{1: {}, 2: {}, 3: {2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetMatrix() = %v, want %v", got, want)
	}
}
