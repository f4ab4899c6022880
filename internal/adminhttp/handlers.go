package adminhttp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/fleetfw/backend/internal/blobstore"
	"github.com/fleetfw/backend/internal/catalog"
	"github.com/fleetfw/backend/internal/keylifecycle"
	"github.com/fleetfw/backend/internal/pkg/idempotency"
	"github.com/fleetfw/backend/internal/pkg/messaging"
	"github.com/fleetfw/backend/internal/pkg/validator"
)

// eventsTopic is the destination all domain events are published to.
// Consumers distinguish event kinds by the "type" attribute.
const eventsTopic = "fleet.events"

// Handlers wires the admin HTTP surface (SPEC_FULL §4.8) onto the Catalog,
// Blob Store, and Key Lifecycle Manager.
type Handlers struct {
	catalog   *catalog.Catalog
	blobs     *blobstore.Store
	keys      *keylifecycle.Manager
	validator *validator.V10Validator
	publisher messaging.Publisher
	idemp     idempotency.Idempotency
}

// New constructs Handlers. publisher and idemp may be nil, in which case
// event publishing and idempotency tracking are skipped.
func New(
	cat *catalog.Catalog,
	blobs *blobstore.Store,
	keys *keylifecycle.Manager,
	v *validator.V10Validator,
	publisher messaging.Publisher,
	idemp idempotency.Idempotency,
) *Handlers {
	return &Handlers{
		catalog:   cat,
		blobs:     blobs,
		keys:      keys,
		validator: v,
		publisher: publisher,
		idemp:     idemp,
	}
}

// publishEvent is a best-effort, fire-and-forget notification. A publish
// failure is logged but never surfaces as an HTTP error: the write to the
// catalog already succeeded and is the source of truth.
func (h *Handlers) publishEvent(ctx context.Context, eventType string, payload any) {
	if h.publisher == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "adminhttp: failed to marshal event payload", "type", eventType, "error", err)
		return
	}

	_, err = h.publisher.Publish(ctx, eventsTopic, messaging.OutgoingMessage{
		Body:       body,
		Attributes: map[string]string{"type": eventType},
	})
	if err != nil {
		slog.ErrorContext(ctx, "adminhttp: failed to publish event", "type", eventType, "error", err)
	}
}

func (h *Handlers) publishDeviceEvent(ctx context.Context, eventType string, d catalog.Device) {
	h.publishEvent(ctx, eventType, deviceToResponse(d))
}

func (h *Handlers) publishFirmwareEvent(ctx context.Context, eventType string, f catalog.Firmware) {
	h.publishEvent(ctx, eventType, firmwareToResponse(f))
}
