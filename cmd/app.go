package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/bindicator/bindicator/internal/utils"
	"github.com/bindicator/bindicator/pkg/api"
	"github.com/bindicator/bindicator/pkg/controller"
	"github.com/bindicator/bindicator/pkg/memory"
	"github.com/bindicator/bindicator/pkg/resultcache"
	"github.com/bindicator/bindicator/pkg/storage"
	"github.com/bindicator/bindicator/pkg/whttp"
	"github.com/spf13/viper"
)

// app is everything a command needs, built from the current configuration.
type app struct {
	db       *storage.DB
	kv       *storage.BestEffort
	client   *api.Client
	identity *memory.Identity
	session  *memory.Session
	cache    *resultcache.Cache
	ctrl     *controller.Controller
}

// openStore opens the SQLite database behind an LRU. Writes take the
// database lock one at a time. When the file cannot be opened the app still
// runs on an in-memory store: nothing is remembered, but nothing fails either.
func openStore() (*storage.DB, storage.Store, error) {
	dbPath, err := utils.GetAbsDBPath(viper.GetString("db.path"))
	if err != nil {
		return nil, nil, err
	}

	lock, err := utils.NewDBLock(dbPath)
	if err != nil {
		return nil, nil, err
	}

	var db *storage.DB
	if err = os.MkdirAll(filepath.Dir(dbPath), 0o755); err == nil {
		db, err = storage.Open(dbPath, viper.GetDuration("db.timeout"))
	}
	if err != nil {
		utils.Log.Warnf("Running without persistence: could not open %s: %v", dbPath, err)
		return nil, storage.NewMemory(), nil
	}
	utils.Log.Debugf("Using database %s", dbPath)

	cached, err := storage.NewCached(newLockedStore(db, lock), viper.GetInt("cache.lru_size"))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, cached, nil
}

func newApp() (*app, error) {
	db, store, err := openStore()
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(viper.GetString("api.base"), whttp.ClientOptions{
		Timeout: viper.GetDuration("api.timeout"),
		Retries: viper.GetInt("api.retries"),
	})
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	kv := storage.NewBestEffort(store, utils.Log)
	a := &app{
		db:       db,
		kv:       kv,
		client:   client,
		identity: memory.NewIdentity(kv),
		session:  memory.NewSession(kv),
		cache:    resultcache.New(kv),
	}
	a.ctrl = controller.New(controller.Config{
		Lookup:          client,
		Service:         client,
		Identity:        a.identity,
		Session:         a.session,
		Cache:           a.cache,
		SlowNoticeAfter: viper.GetDuration("notice.slow_after"),
		Log:             utils.Log,
	})
	a.ctrl.OnChange(a.announceSlow())
	return a, nil
}

// announceSlow prints the slow-network notice once per run.
func (a *app) announceSlow() func() {
	var shown atomic.Bool
	return func() {
		if v := a.ctrl.View(); v.Notice != "" && shown.CompareAndSwap(false, true) {
			fmt.Fprintln(os.Stderr, v.Notice)
		}
	}
}

func (a *app) Close() {
	a.ctrl.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			utils.Log.Debugf("Closing database: %v", err)
		}
	}
}

// openDB opens an existing database for the inspection commands.
func openDB() (*storage.DB, error) {
	dbPath, err := utils.GetAbsDBPath(viper.GetString("db.path"))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file not found: %s", dbPath)
	}
	return storage.Open(dbPath, viper.GetDuration("db.timeout"))
}
