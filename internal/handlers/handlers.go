package handlers

import (
	"time"

	"shareplay/internal/artwork"
	"shareplay/internal/database"
	"shareplay/internal/player"
	"shareplay/internal/probe"
	"shareplay/internal/share"
	"shareplay/internal/sourcecache"
)

type Handlers struct {
	manager *player.Manager
	client  *share.Client
	artwork *artwork.Cache
	sources *sourcecache.Cache
	db      *database.Database
	prober  *probe.Prober
	auth    *sessionStore
	started time.Time
}

func New(manager *player.Manager, client *share.Client, art *artwork.Cache,
	sources *sourcecache.Cache, db *database.Database, prober *probe.Prober) *Handlers {
	return &Handlers{
		manager: manager,
		client:  client,
		artwork: art,
		sources: sources,
		db:      db,
		prober:  prober,
		auth:    newSessionStore(authSessionDuration),
		started: time.Now(),
	}
}
