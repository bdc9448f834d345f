package netif

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Counter names, relative to the interface directory.
const (
	CounterOperState        = "operstate"
	CounterCarrierUpCount   = "carrier_up_count"
	CounterCarrierDownCount = "carrier_down_count"
)

// OperStateDown is the operational state that triggers an alert.
const OperStateDown = "down"

// Traffic holds the counters of one direction of an interface.
type Traffic struct {
	Bytes   string `json:"bytes"`
	Dropped string `json:"dropped"`
	Errors  string `json:"errors"`
	Packets string `json:"packets"`
}

// Snapshot is the state of an interface at a single poll.
type Snapshot struct {
	Interface   string  `json:"interface"`
	OperState   string  `json:"operstate"`
	CarrierUp   string  `json:"carrier_up_count"`
	CarrierDown string  `json:"carrier_down_count"`
	RX          Traffic `json:"rx"`
	TX          Traffic `json:"tx"`
}

// Poll reads every counter of iface.
func Poll(reader StatsReader, iface string) Snapshot {
	return Snapshot{
		Interface:   iface,
		OperState:   reader.Read(iface, CounterOperState),
		CarrierUp:   reader.Read(iface, CounterCarrierUpCount),
		CarrierDown: reader.Read(iface, CounterCarrierDownCount),
		RX:          pollTraffic(reader, iface, "rx"),
		TX:          pollTraffic(reader, iface, "tx"),
	}
}

func pollTraffic(reader StatsReader, iface, direction string) Traffic {
	stat := func(name string) string {
		return reader.Read(iface, fmt.Sprintf("statistics/%s_%s", direction, name))
	}

	return Traffic{
		Bytes:   stat("bytes"),
		Dropped: stat("dropped"),
		Errors:  stat("errors"),
		Packets: stat("packets"),
	}
}

// Down reports whether the interface is operationally down.
func (s Snapshot) Down() bool {
	return s.OperState == OperStateDown
}

var (
	stateDown = color.New(color.FgRed, color.Bold)
	stateUp   = color.New(color.FgGreen)
)

// Format writes the human-readable block for the snapshot to w.
func (s Snapshot) Format(w io.Writer) error {
	state := stateUp.Sprint(s.OperState)
	if s.Down() {
		state = stateDown.Sprint(s.OperState)
	}

	_, err := fmt.Fprintf(w,
		"Interface: %s state: %s up_count: %s down_count: %s\n"+
			"rx_bytes: %s rx_dropped: %s rx_errors: %s rx_packets: %s\n"+
			"tx_bytes: %s tx_dropped: %s tx_errors: %s tx_packets: %s\n\n",
		s.Interface, state, s.CarrierUp, s.CarrierDown,
		s.RX.Bytes, s.RX.Dropped, s.RX.Errors, s.RX.Packets,
		s.TX.Bytes, s.TX.Dropped, s.TX.Errors, s.TX.Packets,
	)
	return err
}
