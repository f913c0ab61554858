package kumo

import (
	"fmt"
	"strings"
)

// Classification is the result of splitting one long-poll batch.
type Classification struct {
	// Event holds the typed changes. It is Empty() when nothing usable was found
	// or when TopologyReset is set.
	Event AggregateEvent

	// TopologyReset is set when the batch announced a signal switching mode
	// change. Per-port indices in the batch are meaningless then, so the rest
	// of the batch is discarded and the caller must refresh the port count.
	TopologyReset bool

	// Malformed lists records dropped because their id or index did not fit
	// the parameter layout.
	Malformed []error
}

// Classify partitions a raw batch into matrix, text, color, lock and
// temperature changes. portCount is the number of sources (and destinations)
// the router currently exposes; it is needed to tell source buttons from
// destination buttons.
func Classify(batch []ParameterEvent, portCount int) Classification {
	result := Classification{Event: Empty()}
	if len(batch) == 0 {
		return result
	}

	for _, ev := range batch {
		if kindOf(ev.ParamID) == kindTopologyReset {
			result.TopologyReset = true
			return result
		}
	}

	var crosspoints, labels, colors, locks []ParameterEvent
	temperatureSeen := false
	for _, ev := range batch {
		switch kindOf(ev.ParamID) {
		case kindTemperature:
			if !temperatureSeen {
				result.Event.Temperature = ev.NumericValue
				temperatureSeen = true
			}
		case kindCrosspoint:
			crosspoints = append(crosspoints, ev)
		case kindLabel:
			labels = append(labels, ev)
		case kindColor:
			colors = append(colors, ev)
		case kindLock:
			locks = append(locks, ev)
		}
	}

	var errs []error
	result.Event.Matrix, errs = matrixDiff(crosspoints)
	result.Malformed = append(result.Malformed, errs...)
	result.Event.Texts, errs = textDiff(labels)
	result.Malformed = append(result.Malformed, errs...)
	result.Event.Colors, errs = colorDiff(colors, portCount)
	result.Malformed = append(result.Malformed, errs...)
	result.Event.Locks, errs = lockDiff(locks)
	result.Malformed = append(result.Malformed, errs...)

	if result.Event.IsEmpty() {
		result.Event = Empty()
	}
	return result
}

// matrixDiff builds destination -> source from crosspoint events and inverts it
// into source -> destinations. Destinations keep the order in which they were
// first seen; a later event for the same destination overrides its source.
// Sources <= 0 mean "no source" and are left out.
func matrixDiff(events []ParameterEvent) (MatrixState, []error) {
	if len(events) == 0 {
		return nil, nil
	}

	var errs []error
	order := make([]int, 0, len(events))
	sourceOf := make(map[int]int, len(events))
	for _, ev := range events {
		dest, err := portIndex(ev.ParamID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, seen := sourceOf[dest]; !seen {
			order = append(order, dest)
		}
		sourceOf[dest] = ev.NumericValue
	}

	matrix := make(MatrixState)
	for _, dest := range order {
		src := sourceOf[dest]
		if src <= 0 {
			continue
		}
		matrix[src] = append(matrix[src], dest)
	}
	if len(matrix) == 0 {
		return nil, errs
	}
	return matrix, errs
}

// textDiff yields one PortText per label event. Events for the same port are
// not merged.
func textDiff(events []ParameterEvent) ([]PortText, []error) {
	var texts []PortText
	var errs []error
	for _, ev := range events {
		port, err := portIndex(ev.ParamID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		text := PortText{PortType: portTypeOf(ev.ParamID), PortNum: port}
		switch labelLine(ev.ParamID) {
		case 1:
			text.SetLine1(ev.StringValue)
		case 2:
			text.SetLine2(ev.StringValue)
		}
		texts = append(texts, text)
	}
	return texts, errs
}

// colorDiff maps button settings to port colors. Button indices 1..portCount
// are sources; portCount+1..2*portCount are destinations and get shifted down.
func colorDiff(events []ParameterEvent, portCount int) ([]PortColor, []error) {
	var colors []PortColor
	var errs []error
	for _, ev := range events {
		button, err := portIndex(ev.ParamID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pt, port, err := normalizeButton(button, portCount)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		colors = append(colors, PortColor{
			PortType: pt,
			PortNum:  port,
			ColorHex: ColorForClass(ev.StringValue),
		})
	}
	return colors, errs
}

// normalizeButton converts a raw button index into a port type and 1-based port number.
func normalizeButton(button, portCount int) (PortType, int, error) {
	if portCount <= 0 {
		return Source, 0, NewFormatError(fmt.Sprintf("button %d: port count unknown", button))
	}
	switch {
	case button < 1 || button > 2*portCount:
		return Source, 0, NewFormatError(fmt.Sprintf("button %d outside 1..%d", button, 2*portCount))
	case button > portCount:
		return Destination, button - portCount, nil
	default:
		return Source, button, nil
	}
}

// lockDiff yields one PortLock per lock event. Only the label "Locked" locks.
func lockDiff(events []ParameterEvent) ([]PortLock, []error) {
	var locks []PortLock
	var errs []error
	for _, ev := range events {
		port, err := portIndex(ev.ParamID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		locks = append(locks, PortLock{
			PortNum:  port,
			IsLocked: strings.EqualFold(ev.StringValue, "Locked"),
		})
	}
	return locks, errs
}
