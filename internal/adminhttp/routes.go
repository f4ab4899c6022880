package adminhttp

import "github.com/fleetfw/backend/internal/pkg/router"

// RegisterRoutes wires the admin HTTP surface (SPEC_FULL §4.8) onto ro.
func RegisterRoutes(ro *router.Router, h *Handlers) {
	ro.POST("/api/v1/devices", h.createDevice)
	ro.GET("/api/v1/devices", h.listDevices)
	ro.GET("/api/v1/devices/:id", h.getDevice)
	ro.PUT("/api/v1/devices/:id", h.updateDevice)
	ro.DELETE("/api/v1/devices/:id", h.deleteDevice)

	ro.POST("/api/v1/devices/:id/keys", h.createDeviceKey)
	ro.GET("/api/v1/devices/:id/keys", h.listDeviceKeys)
	ro.DELETE("/api/v1/devices/:id/keys/:key_id", h.deleteDeviceKey)
	ro.POST("/api/v1/devices/:id/keys/:key_id/promote", h.promoteDeviceKey)

	ro.POST("/api/v1/device-types", h.createDeviceType)
	ro.GET("/api/v1/device-types", h.listDeviceTypes)
	ro.GET("/api/v1/device-types/:id", h.getDeviceType)
	ro.DELETE("/api/v1/device-types/:id", h.deleteDeviceType)
	ro.POST("/api/v1/device-types/:id/firmware/:firmware_id", h.linkDeviceTypeFirmware)
	ro.DELETE("/api/v1/device-types/:id/firmware/:firmware_id", h.unlinkDeviceTypeFirmware)
	ro.GET("/api/v1/device-types/:id/firmware", h.listCompatibleFirmware)

	ro.POST("/api/v1/firmware", h.createFirmware)
	ro.GET("/api/v1/firmware", h.listFirmware)
	ro.GET("/api/v1/firmware/:id", h.getFirmware)
	ro.DELETE("/api/v1/firmware/:id", h.deleteFirmware)
}
