package adminhttp

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/fleetfw/backend/internal/blobstore"
	"github.com/fleetfw/backend/internal/catalog"
	"github.com/fleetfw/backend/internal/pkg/goerror"
	"github.com/fleetfw/backend/internal/pkg/idempotency"
	"github.com/fleetfw/backend/internal/pkg/router"
)

// maxUploadSize bounds the in-memory buffer a single firmware upload is
// read into before it is handed to the Blob Store.
const maxUploadSize = 64 << 20 // 64 MiB

const idempotencyTTL = 10 * time.Minute

// createFirmware uploads a new firmware image: "name" and "version" come
// from query parameters, the image from the multipart form field "file".
// An Idempotency-Key header, when present,
// guards against duplicate uploads from a retried request.
func (h *Handlers) createFirmware(r *router.Request) (any, error) {
	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idemp != nil {
		state, err := h.idemp.Acquire(r.Context(), key, idempotencyTTL)
		if err != nil {
			return nil, goerror.NewServer(err)
		}
		switch state {
		case idempotency.StateInProgress:
			return nil, goerror.NewBusiness("an upload with this idempotency key is already in progress", goerror.CodeConflict)
		case idempotency.StateCompleted:
			return nil, goerror.NewBusiness("an upload with this idempotency key already completed", goerror.CodeConflict)
		}
	}

	fw, err := h.doCreateFirmware(r)
	if err != nil {
		if key != "" && h.idemp != nil {
			if merr := h.idemp.MarkFailed(r.Context(), key, idempotencyTTL); merr != nil {
				slog.ErrorContext(r.Context(), "adminhttp: failed to mark idempotency key failed", "error", merr)
			}
		}
		return nil, err
	}

	if key != "" && h.idemp != nil {
		if merr := h.idemp.MarkCompleted(r.Context(), key, idempotencyTTL); merr != nil {
			slog.ErrorContext(r.Context(), "adminhttp: failed to mark idempotency key completed", "error", merr)
		}
	}

	h.publishFirmwareEvent(r.Context(), "firmware.uploaded", fw)

	return firmwareToResponse(fw), nil
}

func (h *Handlers) doCreateFirmware(r *router.Request) (catalog.Firmware, error) {
	name := r.GetQuery("name")
	version := r.GetQuery("version")
	if name == "" || version == "" {
		return catalog.Firmware{}, goerror.NewInvalidInput(nil, "name", "name and version are required")
	}

	file, err := r.StreamSingleFile("file")
	if err != nil {
		return catalog.Firmware{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return catalog.Firmware{}, goerror.NewInvalidFormat("failed to read uploaded file")
	}
	if len(data) > maxUploadSize {
		return catalog.Firmware{}, goerror.NewInvalidInput(nil, "file", "file exceeds maximum upload size")
	}

	fw, err := h.blobs.Upload(r.Context(), name, version, data)
	if err != nil {
		if errors.Is(err, blobstore.ErrInvalidUpload) {
			return catalog.Firmware{}, goerror.NewInvalidInput(nil, "file", "empty upload")
		}
		return catalog.Firmware{}, goerror.NewServer(err)
	}

	return fw, nil
}

func (h *Handlers) getFirmware(r *router.Request) (any, error) {
	id, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}

	fw, err := h.catalog.GetFirmware(r.Context(), id)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return firmwareToResponse(fw), nil
}

func (h *Handlers) listFirmware(r *router.Request) (any, error) {
	firmware, err := h.catalog.ListFirmware(r.Context())
	if err != nil {
		return nil, mapCatalogError(err)
	}

	out := make([]firmwareResponse, 0, len(firmware))
	for _, f := range firmware {
		out = append(out, firmwareToResponse(f))
	}
	return out, nil
}

func (h *Handlers) deleteFirmware(r *router.Request) (any, error) {
	id, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}

	fw, err := h.catalog.GetFirmware(r.Context(), id)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	if err := h.blobs.Delete(r.Context(), fw); err != nil {
		return nil, mapCatalogError(err)
	}
	return nil, nil
}
