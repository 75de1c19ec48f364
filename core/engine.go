package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-jewelstore/internal"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/api"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/index"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/lock"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/record"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/report"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/server"
	"github.com/0xRadioAc7iv/go-jewelstore/internal/utils"
)

var ErrNotStarted = errors.New("engine: not started")

// Engine owns the catalog and purchase stores of one data directory and
// serves them over TCP and, optionally, HTTP.
//
// The stores themselves do no locking; Engine serializes writers (insert,
// remove, rebuild) against each other and against readers with a single
// RWMutex, and holds a directory lock so that no second process can open
// the same files.
type Engine struct {
	lockFile     *os.File
	serverCancel context.CancelFunc
	serverDone   chan struct{}
	httpServer   *echo.Echo
	httpDone     chan struct{}
	cache        *index.Cache

	connsMu  sync.Mutex
	conns    map[net.Conn]struct{}
	closing  bool
	handlers sync.WaitGroup

	stores  map[record.Kind]*Store
	reports *report.Aggregator

	mu sync.RWMutex

	Config *internal.Config
	Logger *zap.Logger

	port     int
	httpAddr string
}

func NewEngine(cfg *internal.Config, logger *zap.Logger) *Engine {
	if cfg == nil {
		cfg = internal.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Config: cfg, Logger: logger}
}

func (e *Engine) Start() error {
	cfg := e.Config

	if err := e.openDataDirectory(); err != nil {
		e.Logger.Error("error opening data directory", zap.String("dir", cfg.DataDir), zap.Error(err))
		return err
	}

	lf, err := lock.LockDirectory(cfg.DataDir)
	if err != nil {
		e.Logger.Error("error locking data directory", zap.String("dir", cfg.DataDir), zap.Error(err))
		return err
	}
	e.lockFile = lf

	if cfg.IndexCache > 0 {
		cache, err := index.NewCache(cfg.IndexCache)
		if err != nil {
			e.release()
			return err
		}
		e.cache = cache
	}

	catalogPath := cfg.Path(cfg.CatalogFile)
	purchasePath := cfg.Path(cfg.PurchaseFile)

	e.stores = map[record.Kind]*Store{
		record.KindCatalog:  e.newStore(catalogPath, cfg.Path(cfg.CatalogIndex), record.KindCatalog),
		record.KindPurchase: e.newStore(purchasePath, cfg.Path(cfg.PurchaseIndex), record.KindPurchase),
	}
	e.reports = report.New(catalogPath, purchasePath, e.Logger.Named("report"))

	for _, kind := range []record.Kind{record.KindCatalog, record.KindPurchase} {
		if err := e.prepareStore(e.stores[kind]); err != nil {
			e.release()
			return err
		}
	}

	ln, port, err := server.Listen(cfg.Host, cfg.Port)
	if err != nil {
		e.Logger.Error("error starting tcp server", zap.Int("port", cfg.Port), zap.Error(err))
		e.release()
		return err
	}
	e.port = port

	e.connsMu.Lock()
	e.conns = make(map[net.Conn]struct{})
	e.closing = false
	e.connsMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	e.serverCancel = cancel
	e.serverDone = make(chan struct{})
	go func() {
		defer close(e.serverDone)
		if err := server.Serve(ctx, ln, e.commandHandler, e.Logger.Named("tcp")); err != nil {
			e.Logger.Error("tcp server stopped abruptly", zap.Error(err))
		}
	}()

	if cfg.HTTPPort > 0 {
		if err := e.startHTTP(); err != nil {
			e.Stop()
			return err
		}
	}

	e.Logger.Info("jewelstore started",
		zap.String("dir", cfg.DataDir),
		zap.String("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(e.port))),
		zap.String("http", e.httpAddr),
	)

	return nil
}

// Port returns the TCP port actually bound, which may be above the
// configured one when that was taken.
func (e *Engine) Port() int {
	return e.port
}

// HTTPAddr returns the bound HTTP address, or "" when the API is disabled.
func (e *Engine) HTTPAddr() string {
	return e.httpAddr
}

func (e *Engine) newStore(dataPath, indexPath string, kind record.Kind) *Store {
	return NewStore(dataPath, indexPath, kind,
		WithIndexCache(e.cache),
		WithLogger(e.Logger.Named("store")),
	)
}

func (e *Engine) openDataDirectory() error {
	dir := e.Config.DataDir

	_, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		e.Logger.Info("data directory does not exist, creating it", zap.String("dir", dir))
		return os.MkdirAll(dir, 0755)
	}

	e.Logger.Debug("data directory already exists", zap.String("dir", dir))
	return nil
}

// prepareStore makes sure the data file exists and regenerates its index,
// so a stale or missing index from a previous run is never trusted.
func (e *Engine) prepareStore(s *Store) error {
	created, err := utils.EnsureFile(s.DataPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", s.DataPath, err)
	}
	if created {
		e.Logger.Info("created empty data file", zap.String("path", s.DataPath))
	}

	if err := s.Rebuild(); err != nil {
		e.Logger.Error("error rebuilding index", zap.String("index", s.IndexPath), zap.Error(err))
		return err
	}

	count, err := s.Count()
	if err != nil {
		return err
	}

	e.Logger.Info("store ready",
		zap.Stringer("kind", s.Kind),
		zap.String("records", humanize.Comma(int64(count))),
		zap.String("size", humanize.Bytes(uint64(utils.FileSize(s.DataPath)))),
		zap.String("index_size", humanize.Bytes(uint64(utils.FileSize(s.IndexPath)))),
	)
	return nil
}

func (e *Engine) startHTTP() error {
	addr := net.JoinHostPort(e.Config.Host, strconv.Itoa(e.Config.HTTPPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		e.Logger.Error("error starting http server", zap.String("addr", addr), zap.Error(err))
		return err
	}

	srv := api.NewServer(e, e.Logger.Named("http"))
	srv.Listener = ln
	e.httpServer = srv
	e.httpAddr = ln.Addr().String()
	e.httpDone = make(chan struct{})

	go func() {
		defer close(e.httpDone)
		if err := srv.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Error("http server stopped abruptly", zap.Error(err))
		}
	}()

	return nil
}

func (e *Engine) store(kind record.Kind) (*Store, error) {
	if e.stores == nil {
		return nil, ErrNotStarted
	}
	s, ok := e.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", record.ErrUnknownKind, kind)
	}
	return s, nil
}

func (e *Engine) Lookup(kind record.Kind, key string) (record.Record, error) {
	s, err := e.store(kind)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return s.Lookup(key)
}

func (e *Engine) Insert(r record.Record) error {
	s, err := e.store(r.Kind())
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return s.Insert(r)
}

func (e *Engine) Remove(kind record.Kind, key string) (int, error) {
	s, err := e.store(kind)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return s.Remove(key)
}

func (e *Engine) Count(kind record.Kind) (int, error) {
	s, err := e.store(kind)
	if err != nil {
		return 0, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return s.Count()
}

func (e *Engine) List(kind record.Kind) ([]record.Record, error) {
	s, err := e.store(kind)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return s.All()
}

// Rebuild regenerates the index of kind and returns how many entries it
// holds.
func (e *Engine) Rebuild(kind record.Kind) (int, error) {
	s, err := e.store(kind)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := s.Rebuild(); err != nil {
		return 0, err
	}
	entries, err := index.Load(s.IndexPath)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (e *Engine) MostSoldType() (report.TypeCount, error) {
	if e.reports == nil {
		return report.TypeCount{}, ErrNotStarted
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reports.MostSoldType()
}

func (e *Engine) MostExpensiveProduct() (report.ProductPrice, error) {
	if e.reports == nil {
		return report.ProductPrice{}, ErrNotStarted
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reports.MostExpensiveProduct()
}

func (e *Engine) TopSpender() (report.UserSpend, error) {
	if e.reports == nil {
		return report.UserSpend{}, ErrNotStarted
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reports.TopSpender()
}

func (e *Engine) Stop() {
	if e.serverCancel != nil {
		e.serverCancel()
		<-e.serverDone
		e.serverCancel = nil
	}
	e.closeConnections()

	if e.httpServer != nil {
		if err := e.httpServer.Shutdown(context.Background()); err != nil {
			e.Logger.Warn("error while shutting down the http server", zap.Error(err))
		}
		<-e.httpDone
		e.httpServer = nil
	}

	e.release()
}

// track registers a live client connection. It reports false once the
// engine is stopping.
func (e *Engine) track(conn net.Conn) bool {
	e.connsMu.Lock()
	defer e.connsMu.Unlock()

	if e.closing || e.conns == nil {
		return false
	}
	e.conns[conn] = struct{}{}
	e.handlers.Add(1)
	return true
}

func (e *Engine) untrack(conn net.Conn) {
	e.connsMu.Lock()
	delete(e.conns, conn)
	e.connsMu.Unlock()

	e.handlers.Done()
}

// closeConnections closes every client connection and waits for their
// handlers to return, so nothing touches the stores after release.
func (e *Engine) closeConnections() {
	e.connsMu.Lock()
	e.closing = true
	for conn := range e.conns {
		_ = conn.Close()
	}
	e.connsMu.Unlock()

	e.handlers.Wait()
}

func (e *Engine) release() {
	if e.cache != nil {
		e.cache.Close()
		e.cache = nil
	}

	if e.lockFile != nil {
		lock.UnlockDirectory(e.lockFile)
		e.lockFile = nil
	}

	_ = e.Logger.Sync()
}
