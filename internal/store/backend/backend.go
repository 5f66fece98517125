// Package backend opens the store.KV implementation named by the configuration.
package backend

import (
	"fmt"

	"github.com/idilsaglam/cart/internal/config"
	"github.com/idilsaglam/cart/internal/store"
	"github.com/idilsaglam/cart/internal/store/jsonstore"
	"github.com/idilsaglam/cart/internal/store/ledisstore"
	"github.com/idilsaglam/cart/internal/store/memstore"
	"github.com/idilsaglam/cart/internal/store/redisstore"
)

func Open(cfg config.Storage) (store.KV, error) {
	switch cfg.Backend {
	case "", "json":
		return jsonstore.New(cfg.DataDir), nil
	case "ledis":
		return ledisstore.Open(cfg.DataDir)
	case "redis":
		return redisstore.New(cfg.RedisAddr)
	case "memory":
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
