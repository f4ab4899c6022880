package app

import (
	"context"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fleetfw/backend/internal/adminhttp"
	"github.com/fleetfw/backend/internal/blobstore"
	"github.com/fleetfw/backend/internal/catalog"
	"github.com/fleetfw/backend/internal/datagram"
	"github.com/fleetfw/backend/internal/dispatcher"
	"github.com/fleetfw/backend/internal/keylifecycle"
	"github.com/fleetfw/backend/internal/keyprovider"
	"github.com/fleetfw/backend/internal/pkg/config"
	"github.com/fleetfw/backend/internal/pkg/goroutine"
	"github.com/fleetfw/backend/internal/pkg/idempotency"
	"github.com/fleetfw/backend/internal/pkg/instrument"
	"github.com/fleetfw/backend/internal/pkg/messaging"
	"github.com/fleetfw/backend/internal/pkg/router"
	"github.com/fleetfw/backend/internal/pkg/storage"
	"github.com/fleetfw/backend/internal/pkg/uid"
	"github.com/fleetfw/backend/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator *validator.V10Validator
	uuid      uid.StringID

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	messaging messaging.Messaging
	storage   storage.Storage
	replicas  []storage.Storage

	// domain
	catalog     *catalog.Catalog
	blobs       *blobstore.Store
	keyprovider *keyprovider.Provider
	keylife     *keylifecycle.Manager
	dispatch    *dispatcher.Dispatcher
	admin       *adminhttp.Handlers

	// servers
	router     *router.Router
	httpServer *http.Server
	udpConn    net.PacketConn
	datagram   *datagram.Service

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initStorage()
	app.initMessaging()
	app.initCatalog()
	app.initHTTPServer()
	app.initAdminHTTP()
	app.initDatagram()
	app.initClosers()

	return app
}
