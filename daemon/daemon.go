package daemon

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-rtkit/internal/dbus"
	"github.com/b0bbywan/go-rtkit/logger"
	"github.com/b0bbywan/go-rtkit/rtkit"
)

// Inspect reports whether rtkit-daemon is on the bus and what systemd knows
// about its unit. A system without systemd is not an error.
func Inspect(ctx context.Context, conn *dbus.Conn) (*Status, error) {
	if conn == nil {
		return nil, fmt.Errorf("daemon: nil bus connection")
	}
	return New(conn.BusObject(), connectSystemd).Inspect(ctx)
}

// New returns an Inspector asking bus for names and units for unit states.
// A nil units connector skips the systemd lookup.
func New(bus dbus.BusObject, units UnitConnector) *Inspector {
	return &Inspector{bus: bus, units: units}
}

func (i *Inspector) Inspect(ctx context.Context) (*Status, error) {
	status := &Status{
		BusName:     rtkit.RTKIT_SERVICE,
		UnitName:    UNIT_NAME,
		ActiveState: StateUnknown,
		SubState:    StateUnknown,
		LoadState:   StateUnknown,
	}

	names, err := idbus.ListNames(ctx, i.bus)
	if err != nil {
		return nil, unavailable("ListNames", err)
	}
	status.Running = idbus.HasName(names, rtkit.RTKIT_SERVICE)

	activatable, err := idbus.ListActivatableNames(ctx, i.bus)
	if err != nil {
		return nil, unavailable("ListActivatableNames", err)
	}
	status.Activatable = idbus.HasName(activatable, rtkit.RTKIT_SERVICE)

	i.unitState(ctx, status)

	logger.Debug("[daemon] %s running=%v activatable=%v unit=%s/%s",
		status.BusName, status.Running, status.Activatable, status.ActiveState, status.SubState)
	return status, nil
}

func (i *Inspector) unitState(ctx context.Context, status *Status) {
	if i.units == nil {
		return
	}
	conn, err := i.units(ctx)
	if err != nil {
		logger.Debug("[daemon] systemd unavailable: %v", err)
		return
	}
	defer conn.Close()

	units, err := conn.ListUnitsByNamesContext(ctx, []string{UNIT_NAME})
	if err != nil {
		logger.Warn("[daemon] failed to get %s state: %v", UNIT_NAME, err)
		return
	}
	for _, unit := range units {
		if unit.Name != UNIT_NAME {
			continue
		}
		status.LoadState = unit.LoadState
		if unit.LoadState == "loaded" {
			status.ActiveState = unit.ActiveState
			status.SubState = unit.SubState
		}
	}
}

// unavailable reports a bus failure the way the rtkit client does, so callers
// can branch on rtkit.KindOf.
func unavailable(method string, err error) error {
	name, _ := idbus.ErrorName(err)
	return &rtkit.RemoteUnavailableError{Method: method, Name: name, Err: err}
}
