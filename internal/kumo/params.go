package kumo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Parameter ids read or written by this package. Per-port ids are built by the
// helpers below.
const (
	ParamSignalSwitching  = "eParamID_SignalSwitching"
	ParamTemperature      = "eParamID_Temperature"
	ParamNumberOfSources  = "eParamID_NumberOfSources"
	ParamSysName          = "eParamID_SysName"
	ParamProductID        = "eParamID_KumoProductID"
	ParamSerialNumber     = "eParamID_SerialNumber"
	ParamSWVersion        = "eParamID_SWVersion"
	ParamMACAddress       = "eParamID_MACAddress"
	ParamNetworkState     = "eParamID_NetworkState"
	ParamIPConfig         = "eParamID_IPConfig"
	ParamIPAddress        = "eParamID_IPAddress"
	ParamSubnetMask       = "eParamID_SubnetMask"
	ParamDefaultGateway   = "eParamID_DefaultGateway"
	ParamLEDIdentify      = "eParamID_LED_Identify"
	ParamTemperatureAlarm = "eParamID_TemperatureAlarm"
	ParamPSAlarm          = "eParamID_PSAlarm"
	ParamReferenceAlarm   = "eParamID_ReferenceAlarm"
	ParamAuthentication   = "eParamID_Authentication"
	ParamControlPanelMode = "eParamID_Control_Panel_Mode"
)

// DestinationStatusParam is the crosspoint of destination n; its value is the source index.
func DestinationStatusParam(dest int) string {
	return fmt.Sprintf("eParamID_XPT_Destination%d_Status", dest)
}

// DestinationLockParam is the lock flag of destination n.
func DestinationLockParam(dest int) string {
	return fmt.Sprintf("eParamID_XPT_Destination%d_Locked", dest)
}

// LineParam is the label line (1 or 2) of a source or destination button.
func LineParam(pt PortType, port, line int) string {
	return fmt.Sprintf("eParamID_XPT_%s%d_Line_%d", pt, port, line)
}

// ButtonSettingsParam is the appearance of button n. Sources come first, then
// destinations offset by the port count.
func ButtonSettingsParam(button int) string {
	return fmt.Sprintf("eParamID_Button_Settings_%d", button)
}

// paramKind is the category a parameter id falls into.
type paramKind int

const (
	kindOther paramKind = iota
	kindTopologyReset
	kindTemperature
	kindCrosspoint
	kindLabel
	kindColor
	kindLock
)

func (k paramKind) String() string {
	switch k {
	case kindTopologyReset:
		return "topology_reset"
	case kindTemperature:
		return "temperature"
	case kindCrosspoint:
		return "matrix"
	case kindLabel:
		return "text"
	case kindColor:
		return "color"
	case kindLock:
		return "lock"
	default:
		return "other"
	}
}

// paramRule matches one category by substring conventions on the id.
type paramRule struct {
	kind    paramKind
	matches func(id string) bool
}

// paramRules is the id layout, checked in order. The first rule that matches wins.
//
//	eParamID_SignalSwitching                 topology reset
//	eParamID_Temperature                     temperature (int_value)
//	eParamID_XPT_Destination<n>_Status       crosspoint (int_value = source)
//	eParamID_XPT_<Source|Destination><n>_Line_<1|2>  label (str_value)
//	eParamID_Button_Settings_<n>             color (str_value = css class)
//	eParamID_XPT_Destination<n>_Locked       lock (str_value "Locked")
var paramRules = []paramRule{
	{kindTopologyReset, func(id string) bool { return id == ParamSignalSwitching }},
	{kindTemperature, func(id string) bool { return id == ParamTemperature }},
	{kindCrosspoint, func(id string) bool {
		return strings.Contains(id, "_Status") && strings.Contains(id, "Destination")
	}},
	{kindLabel, func(id string) bool {
		return strings.Contains(id, "_XPT_") && strings.Contains(id, "_Line_")
	}},
	{kindColor, func(id string) bool { return strings.Contains(id, "Button_Settings_") }},
	{kindLock, func(id string) bool { return strings.Contains(id, "_Locked") }},
}

// kindOf returns the category of a parameter id.
func kindOf(id string) paramKind {
	for _, rule := range paramRules {
		if rule.matches(id) {
			return rule.kind
		}
	}
	return kindOther
}

var digitRun = regexp.MustCompile(`\d+`)

// portIndex extracts the first run of digits in a parameter id.
func portIndex(id string) (int, error) {
	m := digitRun.FindString(id)
	if m == "" {
		return 0, NewFormatError(fmt.Sprintf("parameter %s has no port index", id))
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, NewFormatError(fmt.Sprintf("parameter %s: port index %s out of range", id, m))
	}
	return n, nil
}

// portTypeOf decides Source or Destination from the id's token.
func portTypeOf(id string) PortType {
	if strings.Contains(id, "Source") {
		return Source
	}
	return Destination
}

// labelLine returns 1 or 2 from the id suffix (case-insensitive), 0 if neither.
func labelLine(id string) int {
	lower := strings.ToLower(id)
	switch {
	case strings.HasSuffix(lower, "line_1"):
		return 1
	case strings.HasSuffix(lower, "line_2"):
		return 2
	default:
		return 0
	}
}
