package config

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/manga-content/pkg/mangacontent"
	"github.com/tendant/manga-content/pkg/mangacontent/api"
	memorylock "github.com/tendant/manga-content/pkg/mangacontent/lock/memory"
	redislock "github.com/tendant/manga-content/pkg/mangacontent/lock/redis"
	"github.com/tendant/manga-content/pkg/mangacontent/repo/memory"
	repopg "github.com/tendant/manga-content/pkg/mangacontent/repo/postgres"
	fsstorage "github.com/tendant/manga-content/pkg/mangacontent/storage/fs"
	gridfsstorage "github.com/tendant/manga-content/pkg/mangacontent/storage/gridfs"
	memorystorage "github.com/tendant/manga-content/pkg/mangacontent/storage/memory"
	s3storage "github.com/tendant/manga-content/pkg/mangacontent/storage/s3"
)

// UserDirectory is an identity directory that can register accounts
type UserDirectory interface {
	mangacontent.Directory
	AddUser(ctx context.Context, email, password string, role mangacontent.Role) (mangacontent.Identity, error)
}

// Runtime holds every backend built from a ServerConfig. Handles are created
// once and shared by all requests.
type Runtime struct {
	Service   mangacontent.Service
	Directory UserDirectory
	Auth      *api.Authenticator
	Pool      *pgxpool.Pool

	closers []func()
}

// Close releases the backend connections in reverse build order
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// Ready checks that the entity store is reachable
func (rt *Runtime) Ready(ctx context.Context) error {
	if rt.Pool == nil {
		return nil
	}
	return rt.Pool.Ping(ctx)
}

// Build creates the service, identity directory and authenticator
func (c *ServerConfig) Build(ctx context.Context, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{}
	fail := func(err error) (*Runtime, error) {
		rt.Close()
		return nil, err
	}

	var (
		repo mangacontent.Repository
		dir  UserDirectory
	)
	if c.UsesPostgres() {
		pool, err := c.BuildPool(ctx)
		if err != nil {
			return fail(err)
		}
		rt.Pool = pool
		rt.closers = append(rt.closers, pool.Close)
		repo = repopg.NewWithPool(pool)
		dir = repopg.NewDirectory(pool)
	} else {
		repo = memory.New()
		dir = memory.NewDirectory()
	}
	rt.Directory = dir

	if c.SeedAdminEmail != "" {
		identity, err := dir.AddUser(ctx, c.SeedAdminEmail, c.SeedAdminPassword, mangacontent.RoleAdmin)
		switch {
		case errors.Is(err, mangacontent.ErrDuplicateIdentity):
			logger.Info("Seed admin already exists", "email", c.SeedAdminEmail)
		case err != nil:
			return fail(fmt.Errorf("failed to seed admin: %w", err))
		default:
			logger.Info("Seed admin created", "user_id", identity.ID.String())
		}
	}

	store, err := c.buildBlobStore(ctx, rt)
	if err != nil {
		return fail(fmt.Errorf("failed to build blob store: %w", err))
	}

	locker, err := c.buildLocker(rt)
	if err != nil {
		return fail(fmt.Errorf("failed to build locker: %w", err))
	}

	options := []mangacontent.Option{
		mangacontent.WithRepository(repo),
		mangacontent.WithBlobStore(store),
		mangacontent.WithLocker(locker),
		mangacontent.WithLogger(logger),
	}
	if c.EnableEventLogging {
		options = append(options, mangacontent.WithEventSink(mangacontent.NewLoggingEventSink(logger)))
	}

	svc, err := mangacontent.New(options...)
	if err != nil {
		return fail(err)
	}
	rt.Service = svc

	tokens, err := c.BuildTokenAuth()
	if err != nil {
		return fail(err)
	}
	rt.Auth = api.NewAuthenticator(tokens, dir, c.TokenTTL)

	return rt, nil
}

// BuildPool connects to PostgreSQL, pins the search_path to DBSchema and
// applies migrations when RunMigrations is set.
func (c *ServerConfig) BuildPool(ctx context.Context) (*pgxpool.Pool, error) {
	if !c.UsesPostgres() {
		return nil, errors.New("database_url is required for postgres")
	}
	if c.RunMigrations {
		if err := repopg.Migrate(ctx, c.DatabaseURL, c.DBSchema); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	cfg.AfterConnect = repopg.SearchPath(c.DBSchema)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// BuildTokenAuth creates the HS256 signer. Development without JWT_SECRET
// gets a random per-process secret.
func (c *ServerConfig) BuildTokenAuth() (*jwtauth.JWTAuth, error) {
	secret := []byte(c.JWTSecret)
	if len(secret) == 0 {
		if !c.IsDevelopment() {
			return nil, errors.New("JWT_SECRET is required outside development")
		}
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate development secret: %w", err)
		}
		slog.Warn("JWT_SECRET not set, using a random development secret")
	}
	return jwtauth.New("HS256", secret, nil), nil
}

func (c *ServerConfig) buildBlobStore(ctx context.Context, rt *Runtime) (mangacontent.BlobStore, error) {
	target, err := parseStorageURL(c.StorageURL)
	if err != nil {
		return nil, err
	}

	switch target.kind {
	case storageMemory:
		return memorystorage.New(), nil

	case storageFS:
		return fsstorage.New(fsstorage.Config{BaseDir: target.baseDir})

	case storageS3:
		return s3storage.New(ctx, s3storage.Config{
			Region:                 target.region,
			Bucket:                 target.bucket,
			AccessKeyID:            c.S3AccessKeyID,
			SecretAccessKey:        c.S3SecretAccessKey,
			Endpoint:               target.endpoint,
			UsePathStyle:           target.pathStyle,
			EnableSSE:              target.sse != "",
			SSEAlgorithm:           target.sse,
			SSEKMSKeyID:            target.kmsKeyID,
			CreateBucketIfNotExist: target.createBucket,
		})

	case storageGridFS:
		backend, err := gridfsstorage.New(ctx, gridfsstorage.Config{
			URI:      target.mongoURI,
			Database: target.database,
			Bucket:   target.gridfsID,
		})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = backend.Close(closeCtx)
		})
		return backend, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", target.kind)
	}
}

func (c *ServerConfig) buildLocker(rt *Runtime) (mangacontent.Locker, error) {
	if c.LockURL == "" || c.LockURL == "memory" {
		return memorylock.New(), nil
	}
	locker, err := redislock.New(redislock.Config{URL: c.LockURL, KeyPrefix: "manga:lock:"})
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func() { _ = locker.Close() })
	return locker, nil
}
