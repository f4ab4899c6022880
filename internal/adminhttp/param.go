package adminhttp

import (
	"github.com/fleetfw/backend/internal/pkg/goerror"
	"github.com/fleetfw/backend/internal/pkg/router"
)

func paramUint32(r *router.Request, name string) (uint32, error) {
	v, err := r.GetParamInt64(name)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 1<<32-1 {
		return 0, goerror.NewInvalidFormat("param " + name + " out of range")
	}
	return uint32(v), nil
}
