package rtkit

import (
	"context"

	idbus "github.com/b0bbywan/go-rtkit/internal/dbus"
)

// callMethod calls a RealtimeKit method and translates its failure.
func (c *Client) callMethod(ctx context.Context, name string, args ...interface{}) error {
	ctx, cancel := idbus.WithTimeout(ctx, c.timeout)
	defer cancel()
	return translate(name, idbus.CallMethod(ctx, c.obj, method(name), args...))
}

// getInt reads an integer RealtimeKit property.
func (c *Client) getInt(ctx context.Context, prop string) (int64, error) {
	ctx, cancel := idbus.WithTimeout(ctx, c.timeout)
	defer cancel()
	n, err := idbus.GetInt64Property(ctx, c.obj, RTKIT_INTERFACE, prop)
	if err != nil {
		return 0, translate(prop, err)
	}
	return n, nil
}

// listNames returns the owned names, or the activatable ones, on the bus.
func (c *Client) listNames(ctx context.Context, activatable bool) ([]string, error) {
	ctx, cancel := idbus.WithTimeout(ctx, c.timeout)
	defer cancel()
	if activatable {
		names, err := idbus.ListActivatableNames(ctx, c.bus)
		return names, translate("ListActivatableNames", err)
	}
	names, err := idbus.ListNames(ctx, c.bus)
	return names, translate("ListNames", err)
}
