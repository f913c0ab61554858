package kumo

import (
	"context"
	"encoding/binary"
	"net"
	"strconv"
	"strings"
)

// Typed wrappers over GetCommand and SetCommand. Getters return "" (or the
// zero value) when the router cannot be read; setters return the router's
// response body, or "Error: ..." on failure.

// Label reads line 1 or 2 of a source or destination button.
func (c *Client) Label(ctx context.Context, pt PortType, port, line int) string {
	return c.sessions.GetCommand(ctx, LineParam(pt, port, line))
}

// SetLabel writes line 1 or 2 of a source or destination button.
func (c *Client) SetLabel(ctx context.Context, pt PortType, port, line int, text string) string {
	return c.sessions.SetCommand(ctx, LineParam(pt, port, line), text)
}

// TrySetLabel writes a label line and reports failure as an error.
func (c *Client) TrySetLabel(ctx context.Context, pt PortType, port, line int, text string) error {
	_, err := c.sessions.TrySetCommand(ctx, LineParam(pt, port, line), text)
	return err
}

// SourceLine1 reads line 1 of a source.
func (c *Client) SourceLine1(ctx context.Context, port int) string {
	return c.Label(ctx, Source, port, 1)
}

// SourceLine2 reads line 2 of a source.
func (c *Client) SourceLine2(ctx context.Context, port int) string {
	return c.Label(ctx, Source, port, 2)
}

// DestinationLine1 reads line 1 of a destination.
func (c *Client) DestinationLine1(ctx context.Context, port int) string {
	return c.Label(ctx, Destination, port, 1)
}

// DestinationLine2 reads line 2 of a destination.
func (c *Client) DestinationLine2(ctx context.Context, port int) string {
	return c.Label(ctx, Destination, port, 2)
}

// DestinationStatus returns the source routed to dest, or 0 if unknown.
func (c *Client) DestinationStatus(ctx context.Context, dest int) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.sessions.GetCommand(ctx, DestinationStatusParam(dest))))
	if err != nil {
		return 0
	}
	return n
}

// SetDestinationStatus routes source to dest.
func (c *Client) SetDestinationStatus(ctx context.Context, dest, source int) string {
	return c.sessions.SetCommand(ctx, DestinationStatusParam(dest), strconv.Itoa(source))
}

// Route routes source to dest and reports failure as an error.
func (c *Client) Route(ctx context.Context, dest, source int) error {
	_, err := c.sessions.TrySetCommand(ctx, DestinationStatusParam(dest), strconv.Itoa(source))
	return err
}

// IsLocked reports whether dest is locked.
func (c *Client) IsLocked(ctx context.Context, dest int) bool {
	return c.sessions.GetCommand(ctx, DestinationLockParam(dest)) == "1"
}

// SetLock locks or unlocks dest.
func (c *Client) SetLock(ctx context.Context, dest int, locked bool) string {
	return c.sessions.SetCommand(ctx, DestinationLockParam(dest), boolToNumber(locked))
}

// Lock locks or unlocks dest and reports failure as an error.
func (c *Client) Lock(ctx context.Context, dest int, locked bool) error {
	_, err := c.sessions.TrySetCommand(ctx, DestinationLockParam(dest), boolToNumber(locked))
	return err
}

// ButtonColor returns the hex color of a button. Buttons 1..portCount are
// sources, the rest destinations.
func (c *Client) ButtonColor(ctx context.Context, button int) string {
	return ColorForClass(c.sessions.GetValueName(ctx, ButtonSettingsParam(button)))
}

// LEDIdentify reports whether the identify LED is blinking.
func (c *Client) LEDIdentify(ctx context.Context) bool {
	return c.sessions.GetValueName(ctx, ParamLEDIdentify) == "Blink"
}

// SetLEDIdentify starts or stops the identify LED.
func (c *Client) SetLEDIdentify(ctx context.Context, on bool) string {
	return c.sessions.SetCommand(ctx, ParamLEDIdentify, boolToNumber(on))
}

// Temperature returns the raw temperature reading.
func (c *Client) Temperature(ctx context.Context) string {
	return c.sessions.GetCommand(ctx, ParamTemperature)
}

// NumberOfSources returns the raw number of sources.
func (c *Client) NumberOfSources(ctx context.Context) string {
	return c.sessions.GetCommand(ctx, ParamNumberOfSources)
}

// SysName returns the router's system name.
func (c *Client) SysName(ctx context.Context) string {
	return c.sessions.GetValueName(ctx, ParamSysName)
}

// ProductID returns the product name, e.g. "KUMO 1616".
func (c *Client) ProductID(ctx context.Context) string {
	return c.sessions.GetValueName(ctx, ParamProductID)
}

func (c *Client) SerialNumber(ctx context.Context) string {
	return c.sessions.GetCommand(ctx, ParamSerialNumber)
}

func (c *Client) SWVersion(ctx context.Context) string {
	return c.sessions.GetCommand(ctx, ParamSWVersion)
}

func (c *Client) MACAddress(ctx context.Context) string {
	return c.sessions.GetCommand(ctx, ParamMACAddress)
}

func (c *Client) NetworkState(ctx context.Context) string {
	return c.sessions.GetValueName(ctx, ParamNetworkState)
}

func (c *Client) IPConfig(ctx context.Context) string {
	return c.sessions.GetValueName(ctx, ParamIPConfig)
}

func (c *Client) Authentication(ctx context.Context) string {
	return c.sessions.GetValueName(ctx, ParamAuthentication)
}

func (c *Client) ControlPanelMode(ctx context.Context) string {
	return c.sessions.GetCommand(ctx, ParamControlPanelMode)
}

func (c *Client) TemperatureAlarm(ctx context.Context) string {
	return c.sessions.GetValueName(ctx, ParamTemperatureAlarm)
}

func (c *Client) PSAlarm(ctx context.Context) string {
	return c.sessions.GetValueName(ctx, ParamPSAlarm)
}

func (c *Client) ReferenceAlarm(ctx context.Context) string {
	return c.sessions.GetValueName(ctx, ParamReferenceAlarm)
}

// IPAddress returns the router's IPv4 address in dotted form.
func (c *Client) IPAddress(ctx context.Context) string {
	return addrFromValue(c.sessions.GetCommand(ctx, ParamIPAddress))
}

func (c *Client) SubnetMask(ctx context.Context) string {
	return addrFromValue(c.sessions.GetCommand(ctx, ParamSubnetMask))
}

func (c *Client) DefaultGateway(ctx context.Context) string {
	return addrFromValue(c.sessions.GetCommand(ctx, ParamDefaultGateway))
}

// DeviceInformation returns the browse.json description.
func (c *Client) DeviceInformation(ctx context.Context) string {
	return c.sessions.DeviceInformation(ctx)
}

// Labels reads both lines of every source and destination.
func (c *Client) Labels(ctx context.Context) []PortText {
	portCount := c.sessions.PortCount()
	texts := make([]PortText, 0, 2*portCount)
	for _, pt := range []PortType{Source, Destination} {
		for port := 1; port <= portCount; port++ {
			text := PortText{PortType: pt, PortNum: port}
			text.SetLine1(c.Label(ctx, pt, port, 1))
			text.SetLine2(c.Label(ctx, pt, port, 2))
			texts = append(texts, text)
		}
	}
	return texts
}

// Colors reads the color of every button.
func (c *Client) Colors(ctx context.Context) []PortColor {
	portCount := c.sessions.PortCount()
	colors := make([]PortColor, 0, 2*portCount)
	for button := 1; button <= 2*portCount; button++ {
		pt, port, err := normalizeButton(button, portCount)
		if err != nil {
			continue
		}
		colors = append(colors, PortColor{PortType: pt, PortNum: port, ColorHex: c.ButtonColor(ctx, button)})
	}
	return colors
}

// Locks reads the lock flag of every destination.
func (c *Client) Locks(ctx context.Context) []PortLock {
	portCount := c.sessions.PortCount()
	locks := make([]PortLock, 0, portCount)
	for dest := 1; dest <= portCount; dest++ {
		locks = append(locks, PortLock{PortNum: dest, IsLocked: c.IsLocked(ctx, dest)})
	}
	return locks
}

// Info is a summary of the router's identity and network settings.
type Info struct {
	Description    string `json:"description"`
	SysName        string `json:"sys_name"`
	ProductID      string `json:"product_id"`
	SerialNumber   string `json:"serial_number"`
	SWVersion      string `json:"sw_version"`
	MACAddress     string `json:"mac_address"`
	IPConfig       string `json:"ip_config"`
	IPAddress      string `json:"ip_address"`
	SubnetMask     string `json:"subnet_mask"`
	DefaultGateway string `json:"default_gateway"`
	PortCount      int    `json:"port_count"`
	Temperature    string `json:"temperature"`
}

// ReadInfo collects Info with one request per field.
func (c *Client) ReadInfo(ctx context.Context) Info {
	return Info{
		Description:    c.DeviceInformation(ctx),
		SysName:        c.SysName(ctx),
		ProductID:      c.ProductID(ctx),
		SerialNumber:   c.SerialNumber(ctx),
		SWVersion:      c.SWVersion(ctx),
		MACAddress:     c.MACAddress(ctx),
		IPConfig:       c.IPConfig(ctx),
		IPAddress:      c.IPAddress(ctx),
		SubnetMask:     c.SubnetMask(ctx),
		DefaultGateway: c.DefaultGateway(ctx),
		PortCount:      c.sessions.PortCount(),
		Temperature:    c.Temperature(ctx),
	}
}

// ToAddr renders a 32-bit integer as an IPv4 address. The router stores
// addresses little-endian, so 0x3201A8C0 is 192.168.1.50.
func ToAddr(v int32) string {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return net.IP(b).String()
}

func addrFromValue(value string) string {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return ""
	}
	return ToAddr(int32(n))
}

func boolToNumber(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
