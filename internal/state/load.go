package state

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
)

// Load hydrates the mirror from full reads of a logged-in client: the
// matrix, every label line, every button color and every lock.
func (m *Mirror) Load(ctx context.Context, c *kumo.Client) {
	portCount := c.PortCount()
	matrix := c.GetMatrix(ctx)
	texts := c.Labels(ctx)
	colors := c.Colors(ctx)
	locks := c.Locks(ctx)

	m.Hydrate(portCount, matrix, texts, colors, locks)
	m.SetConnected(c.Connected())

	logging.Info("Router state loaded",
		zap.String("address", c.Address()),
		zap.Int("port_count", portCount),
	)
}

// Track subscribes the mirror to every notification of c. A topology reset
// empties the mirror, so it reloads in the background when reload is set.
func (m *Mirror) Track(ctx context.Context, c *kumo.Client, reload bool) uuid.UUID {
	return c.Subscribe(func(n kumo.Notification) {
		m.Apply(n)
		if reload && n.Kind == kumo.KindTopologyReset {
			go m.Load(ctx, c)
		}
	})
}
