package modules

import (
	"reqflow.io/reqflow/internal/api/handlers"
	"reqflow.io/reqflow/internal/api/middleware"
	"reqflow.io/reqflow/internal/config"
)

// NewServerDeps builds base server deps then lets each module contribute
// explicit wiring.
func NewServerDeps(cfg *config.Config, infra *Infrastructure, mods []Module) handlers.ServerDeps {
	deps := handlers.ServerDeps{
		Pool:  infra.Pool,
		Pools: infra.Pools,
		JWTCfg: middleware.JWTConfig{
			SigningKey: []byte(cfg.Auth.SigningKey),
			Issuer:     cfg.Auth.Issuer,
			ExpiresIn:  cfg.Auth.ExpiresIn,
		},
	}
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.ContributeServerDeps(&deps)
	}
	return deps
}
