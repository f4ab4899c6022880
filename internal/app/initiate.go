package app

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

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

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          true,
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	v, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = v
}

func (a *App) initDatabase() {
	cfg, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	cfg.MaxConns = a.config.GetInt32("database.pool.max_conns")
	cfg.MinConns = a.config.GetInt32("database.pool.min_conns")
	cfg.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	cfg.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	cfg.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, cfg)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn)
}

// initStorage builds the primary Firmware Blob Store backend (always the
// local filesystem, per spec.md §4.6) plus any optional replication
// targets listed in storage.replicas.
func (a *App) initStorage() {
	primary, err := storage.NewFilesystem(storage.FilesystemOptions{
		Root: a.config.GetString("storage.filesystem.root"),
	})
	if err != nil {
		slog.Error("failed to init filesystem storage", "error", err)
		os.Exit(1)
	}
	a.storage = primary

	var gcsClient *gcs.Client
	if contains(a.config.GetArray("storage.replicas"), storage.DriverGCS) {
		gcsOptions := []option.ClientOption{}
		if v := strings.TrimSpace(a.config.GetString("storage.gcs.credentials_file")); v != "" {
			// #nosec G304 -- path is from trusted config file.
			credsJSON, err := os.ReadFile(v)
			if err != nil {
				slog.Error("failed to read gcs credentials file", "error", err)
				os.Exit(1)
			}
			creds, err := google.CredentialsFromJSON(a.ctx, credsJSON, gcs.ScopeFullControl)
			if err != nil {
				slog.Error("failed to parse gcs credentials file", "error", err)
				os.Exit(1)
			}
			gcsOptions = append(gcsOptions, option.WithCredentials(creds))
		}
		if v := strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")); v != "" {
			gcsOptions = append(gcsOptions, option.WithEndpoint(v))
		}
		client, err := gcs.NewClient(a.ctx, gcsOptions...)
		if err != nil {
			slog.Error("failed to init gcs client", "error", err)
			os.Exit(1)
		}
		gcsClient = client
	}

	var replicas []storage.Storage
	for _, driver := range a.config.GetArray("storage.replicas") {
		driver = strings.TrimSpace(driver)
		if driver == "" {
			continue
		}

		replica, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
			S3: storage.S3Options{
				Region:       a.config.GetString("storage.s3.region"),
				Endpoint:     a.config.GetString("storage.s3.endpoint"),
				AccessKey:    a.config.GetString("storage.s3.access_key"),
				SecretKey:    a.config.GetString("storage.s3.secret_key"),
				SessionToken: a.config.GetString("storage.s3.session_token"),
				UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
			},
			GCS: storage.GCSOptions{
				Client:         gcsClient,
				GoogleAccessID: a.config.GetString("storage.gcs.signer_access_id"),
				PrivateKey:     a.config.GetBinary("storage.gcs.signer_private_key"),
			},
			MinIO: storage.MinIOOptions{
				Region:       a.config.GetString("storage.minio.region"),
				Endpoint:     a.config.GetString("storage.minio.endpoint"),
				AccessKey:    a.config.GetString("storage.minio.access_key"),
				SecretKey:    a.config.GetString("storage.minio.secret_key"),
				SessionToken: a.config.GetString("storage.minio.session_token"),
				UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
			},
		})
		if err != nil {
			slog.Error("failed to init replica storage", "driver", driver, "error", err)
			os.Exit(1)
		}
		replicas = append(replicas, replica)
	}
	a.replicas = replicas
}

func contains(vals []string, target string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) == target {
			return true
		}
	}
	return false
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.MaxInFlight = a.config.GetInt("messaging.nsq.producer_config.max_in_flight")
				cfg.DialTimeout = a.config.GetSecond("messaging.nsq.producer_config.dial_timeout_seconds")
				cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.producer_config.read_timeout_seconds")
				cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.producer_config.write_timeout_seconds")
				return cfg
			}(),
			ConsumerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.MaxInFlight = a.config.GetInt("messaging.nsq.consumer_config.max_in_flight")
				cfg.MaxAttempts = a.config.GetUint16("messaging.nsq.consumer_config.max_attempts")
				cfg.LookupdPollInterval = a.config.GetSecond("messaging.nsq.consumer_config.lookupd_poll_interval_seconds")
				cfg.DialTimeout = a.config.GetSecond("messaging.nsq.consumer_config.dial_timeout_seconds")
				cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.consumer_config.read_timeout_seconds")
				cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.consumer_config.write_timeout_seconds")
				cfg.DefaultRequeueDelay = a.config.GetSecond("messaging.nsq.consumer_config.default_requeue_delay_seconds")
				cfg.MaxRequeueDelay = a.config.GetSecond("messaging.nsq.consumer_config.max_requeue_delay_seconds")
				return cfg
			}(),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

// initCatalog wires the relational catalog and the domain services built
// on top of it: the Firmware Blob Store, the Key Provider, the Key
// Lifecycle Manager, and the Operation Dispatcher (spec.md §4.3–§4.6).
func (a *App) initCatalog() {
	a.catalog = catalog.New(a.dbConn, a.ins)
	a.blobs = blobstore.New(a.storage, a.replicas, a.catalog, a.goroutine)
	a.keyprovider = keyprovider.New(a.catalog, a.ins)
	a.keylife = keylifecycle.New(a.catalog)
	a.dispatch = dispatcher.New(a.catalog, a.blobs)
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		APIKey:     a.config.GetString("app.admin.api_key"),
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initAdminHTTP() {
	a.admin = adminhttp.New(a.catalog, a.blobs, a.keylife, a.validator, a.messaging, a.idemp)
	adminhttp.RegisterRoutes(a.router, a.admin)
}

// initDatagram opens the UDP listener the device-facing protocol runs
// over (spec.md §4.7) and wires it to the Operation Dispatcher through
// the Key Provider's envelope resolution.
func (a *App) initDatagram() {
	addr := a.config.GetString("app.server.udp.address")
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		slog.Error("failed to open udp listener", "address", addr, "error", err)
		os.Exit(1)
	}
	a.udpConn = conn
	a.datagram = datagram.New(conn, a.keyprovider, a.dispatch, a.goroutine)
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "UDPListener",
			fn: func(context.Context) error {
				return a.udpConn.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Storage",
			fn: func(context.Context) error {
				return a.storage.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
