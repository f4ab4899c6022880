package adminhttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"

	"github.com/fleetfw/backend/internal/catalog"
	"github.com/fleetfw/backend/internal/keylifecycle"
	"github.com/fleetfw/backend/internal/pkg/goerror"
	"github.com/fleetfw/backend/internal/pkg/router"
)

func newRequest(t *testing.T, params httprouter.Params) *router.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), httprouter.ParamsKey, params)
	req = req.WithContext(ctx)

	return &router.Request{Request: req}
}

func TestParamUint32Valid(t *testing.T) {
	r := newRequest(t, httprouter.Params{{Key: "id", Value: "42"}})

	got, err := paramUint32(r, "id")
	if err != nil {
		t.Fatalf("paramUint32: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestParamUint32Negative(t *testing.T) {
	r := newRequest(t, httprouter.Params{{Key: "id", Value: "-1"}})

	if _, err := paramUint32(r, "id"); err == nil {
		t.Fatal("expected error for negative param")
	}
}

func TestParamUint32NotAnInteger(t *testing.T) {
	r := newRequest(t, httprouter.Params{{Key: "id", Value: "abc"}})

	if _, err := paramUint32(r, "id"); err == nil {
		t.Fatal("expected error for non-integer param")
	}
}

func TestDeviceToResponse(t *testing.T) {
	firmware := uint32(7)
	d := catalog.Device{
		ID:              1,
		Name:            "sensor-01",
		DeviceTypeID:    2,
		Firmware:        &firmware,
		DesiredFirmware: 7,
		Status:          catalog.DeviceStatusActive,
	}

	got := deviceToResponse(d)
	if got.ID != 1 || got.Name != "sensor-01" || got.DeviceTypeID != 2 {
		t.Fatalf("unexpected response: %+v", got)
	}
	if got.Firmware == nil || *got.Firmware != 7 {
		t.Fatalf("expected firmware pointer to carry 7, got %+v", got.Firmware)
	}
	if got.Status != uint8(catalog.DeviceStatusActive) {
		t.Fatalf("unexpected status: %d", got.Status)
	}
}

func TestFirmwareToResponse(t *testing.T) {
	f := catalog.Firmware{ID: 3, Name: "main", Version: "1.2.3", FileID: "abc", Size: 1024, SHA256: "deadbeef"}

	got := firmwareToResponse(f)
	if got.ID != 3 || got.Version != "1.2.3" || got.Size != 1024 {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestDeviceKeyToResponse(t *testing.T) {
	k := catalog.DeviceKey{ID: 9, DeviceID: 1, KeyType: catalog.KeyTypeLightweight, Status: catalog.KeyStatusActive}

	got := deviceKeyToResponse(k)
	if got.KeyType != "LIGHTWEIGHT" || got.Status != "ACTIVE" {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestMapCatalogErrorNotFound(t *testing.T) {
	err := mapCatalogError(catalog.ErrNotFound)

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected a goerror.Error, got %T", err)
	}
	if gerr.Code() != goerror.CodeNotFound {
		t.Fatalf("expected CodeNotFound, got %v", gerr.Code())
	}
}

func TestMapCatalogErrorConflict(t *testing.T) {
	err := mapCatalogError(catalog.ErrConflict)

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected a goerror.Error, got %T", err)
	}
	if gerr.Code() != goerror.CodeConflict {
		t.Fatalf("expected CodeConflict, got %v", gerr.Code())
	}
}

func TestMapCatalogErrorOtherWrapsAsServer(t *testing.T) {
	err := mapCatalogError(errors.New("boom"))

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected a goerror.Error, got %T", err)
	}
	if gerr.Code() != goerror.CodeInternal {
		t.Fatalf("expected CodeInternal, got %v", gerr.Code())
	}
}

func TestMapKeylifecycleErrorKeyLengthWrong(t *testing.T) {
	err := mapKeylifecycleError(keylifecycle.ErrKeyLengthWrong)

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected a goerror.Error, got %T", err)
	}
	if gerr.Code() != goerror.CodeInvalidInput {
		t.Fatalf("expected CodeInvalidInput, got %v", gerr.Code())
	}
}

func TestMapKeylifecycleErrorConflict(t *testing.T) {
	err := mapKeylifecycleError(keylifecycle.ErrConflict)

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected a goerror.Error, got %T", err)
	}
	if gerr.Code() != goerror.CodeConflict {
		t.Fatalf("expected CodeConflict, got %v", gerr.Code())
	}
}
