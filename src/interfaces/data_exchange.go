package interfaces

import "signal-tracker/src/models"

// -----------------------------------------------------------------------------
// IPointPublisher receives newly appended points for fan-out to
// subscribers (websocket hub).
// -----------------------------------------------------------------------------

type IPointPublisher interface {

	// PublishPoint pushes one freshly appended point. Must not block the
	// caller; slow consumers are the publisher's problem.
	PublishPoint(symbol string, point models.MPricePoint)
}
