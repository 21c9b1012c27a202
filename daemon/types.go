package daemon

import (
	"context"

	sdbus "github.com/coreos/go-systemd/v22/dbus"
	"github.com/godbus/dbus/v5"
)

const (
	UNIT_NAME    = "rtkit-daemon.service"
	StateUnknown = "unknown"
)

// Status describes the rtkit daemon as seen from the bus and from systemd.
type Status struct {
	BusName     string `json:"bus_name"`
	Running     bool   `json:"running"`
	Activatable bool   `json:"activatable"`
	UnitName    string `json:"unit_name"`
	LoadState   string `json:"load_state"`
	ActiveState string `json:"active_state"`
	SubState    string `json:"sub_state"`
}

// Reachable reports whether a call to the daemon can succeed, either because
// it runs or because the bus can start it.
func (s *Status) Reachable() bool {
	return s.Running || s.Activatable
}

// UnitLister is the part of a systemd connection the Inspector uses.
type UnitLister interface {
	ListUnitsByNamesContext(ctx context.Context, units []string) ([]sdbus.UnitStatus, error)
	Close()
}

// UnitConnector opens a connection to systemd.
type UnitConnector func(ctx context.Context) (UnitLister, error)

type Inspector struct {
	bus   dbus.BusObject
	units UnitConnector
}

func connectSystemd(ctx context.Context) (UnitLister, error) {
	conn, err := sdbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
