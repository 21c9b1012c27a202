package rtkit

import (
	"context"
	"fmt"
	"math"

	idbus "github.com/b0bbywan/go-rtkit/internal/dbus"
)

// PolicyLimits reads the daemon's current limits. The result is never cached.
func (c *Client) PolicyLimits(ctx context.Context) (PolicyLimits, error) {
	maxPriority, err := c.MaxRealtimePriority(ctx)
	if err != nil {
		return PolicyLimits{}, err
	}
	minNice, err := c.MinNiceLevel(ctx)
	if err != nil {
		return PolicyLimits{}, err
	}
	rttime, err := c.RTTimeUSecMax(ctx)
	if err != nil {
		return PolicyLimits{}, err
	}
	return PolicyLimits{
		MaxRealtimePriority: maxPriority,
		MinNiceLevel:        minNice,
		RTTimeUSecMax:       rttime,
	}, nil
}

// MaxRealtimePriority returns the highest realtime priority the daemon grants.
func (c *Client) MaxRealtimePriority(ctx context.Context) (int32, error) {
	return c.getInt32(ctx, PROP_MAX_REALTIME_PRIORITY)
}

// MinNiceLevel returns the lowest nice level the daemon grants.
func (c *Client) MinNiceLevel(ctx context.Context) (int32, error) {
	return c.getInt32(ctx, PROP_MIN_NICE_LEVEL)
}

// RTTimeUSecMax returns the largest RLIMIT_RTTIME, in microseconds, a caller
// may hold when asking for realtime scheduling.
func (c *Client) RTTimeUSecMax(ctx context.Context) (int64, error) {
	return c.getInt(ctx, PROP_RTTIME_USEC_MAX)
}

func (c *Client) getInt32(ctx context.Context, prop string) (int32, error) {
	n, err := c.getInt(ctx, prop)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, &RemoteUnavailableError{
			Method: prop,
			Err:    &idbus.ReplyError{Method: prop, Reason: fmt.Sprintf("%d does not fit in int32", n)},
		}
	}
	return int32(n), nil
}
