package matview

import (
	"go.uber.org/zap"

	"github.com/nickyhof/matview/access"
	"github.com/nickyhof/matview/core"
	"github.com/nickyhof/matview/db"
	"github.com/nickyhof/matview/metadata"
	"github.com/nickyhof/matview/ps"
	"github.com/nickyhof/matview/session"
)

// Instance ties a catalog to the collaborators engines run against.
type Instance struct {
	Persistence   *ps.Persistence
	Metadata      metadata.Metadata
	AccessControl access.AccessControl

	logger *zap.Logger
}

// Open serves the catalog in persistence. Access is allowed for everyone
// until WithAccessControl is called.
func Open(persistence *ps.Persistence, logger *zap.Logger, opts ...metadata.Option) *Instance {
	return &Instance{
		Persistence:   persistence,
		Metadata:      metadata.NewCatalogMetadata(persistence, logger, opts...),
		AccessControl: access.AllowAll{},
		logger:        logger,
	}
}

func (instance *Instance) WithAccessControl(accessControl access.AccessControl) *Instance {
	instance.AccessControl = accessControl
	return instance
}

// Engine returns an engine with its own session for identity.
func (instance *Instance) Engine(identity core.Identity, catalog, schema string) *db.Engine {
	return db.NewEngine(instance.Metadata, instance.AccessControl, session.New(identity, catalog, schema), instance.logger)
}
