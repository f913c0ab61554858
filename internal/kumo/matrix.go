package kumo

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
)

// GetMatrix reads the full routing matrix with one status query per
// destination. Every source 1..portCount is present in the result, with an
// empty list when it feeds nothing. Destinations with no source (status <= 0)
// are left out.
//
// It is meant for initial hydration and does not take the poll semaphore, so
// it may interleave with a running poll cycle.
func (m *SessionManager) GetMatrix(ctx context.Context) MatrixState {
	portCount := m.PortCount()
	if portCount <= 0 {
		portCount = m.RefreshPortCount(ctx)
	}

	matrix := make(MatrixState, portCount)
	for i := 1; i <= portCount; i++ {
		matrix[i] = []int{}
	}

	for dest := 1; dest <= portCount; dest++ {
		value := m.GetCommand(ctx, DestinationStatusParam(dest))
		src, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			logging.Debug("Unreadable destination status",
				zap.Int("destination", dest),
				zap.String("value", value),
			)
			continue
		}
		if src > 0 {
			matrix[src] = append(matrix[src], dest)
		}
	}
	return matrix
}
