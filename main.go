package main

import (
	"context"
	"time"

	"github.com/fleetfw/backend/internal/app"
)

// @title           Fleet Firmware Backend API
// @version         1.0
// @description     Admin plane for managing devices, device types, firmware images and device keys; the device-facing side of this service speaks the UDP datagram protocol, not HTTP.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  APIKeyAuth
// @in header
// @name X-API-Key
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
