// Package hostwire ties the Host Resolver, Path Mapper, agents, and
// Host Registry together into the Factory a caller hands to
// registry.Registry.Get. It is the one place in the module that knows
// about all six components at once.
package hostwire

import (
	"fmt"
	"time"

	"github.com/sosgo/hostcore/internal/agent"
	"github.com/sosgo/hostcore/internal/engine"
	"github.com/sosgo/hostcore/internal/errors"
	"github.com/sosgo/hostcore/internal/host"
	"github.com/sosgo/hostcore/internal/hostconfig"
	"github.com/sosgo/hostcore/internal/hostresolve"
	"github.com/sosgo/hostcore/internal/logger"
	"github.com/sosgo/hostcore/internal/pathmap"
	"github.com/sosgo/hostcore/internal/registry"
	"github.com/sosgo/hostcore/pkg/sshutil"
)

// DefaultProbeTimeout bounds the connectivity test performed the
// first time a remote alias is resolved.
const DefaultProbeTimeout = 5 * time.Second

// Resolver builds registry.Host factories against a hosts document.
type Resolver struct {
	Doc *hostconfig.Document
	Log logger.Logger
}

// New builds a Resolver for doc.
func New(doc *hostconfig.Document, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Noop()
	}
	return &Resolver{Doc: doc, Log: log}
}

// Factory returns a registry.Factory bound to this resolver's
// document, suitable for registry.Registry.Get.
func (r *Resolver) Factory() registry.Factory {
	return func(alias string) (*registry.Host, error) {
		return r.build(alias)
	}
}

func (r *Resolver) build(alias string) (*registry.Host, error) {
	res, err := hostresolve.Resolve(r.Doc, alias, r.Log)
	if err != nil {
		return nil, err
	}

	pair := engine.Lookup(res.Remote.QueueType)()

	var ag agent.Agent
	if res.Remote.IsLocal() {
		ag = agent.NewLocalAgent(res.Remote, r.Log)
	} else {
		sshAlias := sshAliasFor(res.Remote)

		if _, err := host.Probe(sshAlias, DefaultProbeTimeout); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConnectivity,
				fmt.Sprintf("could not reach %s", res.Remote.Alias),
				"check network connectivity and that public-key authentication is set up for this host")
		}

		cache := host.GlobalCache()
		conn := cache.Get(sshAlias)
		var client *sshutil.Client
		if conn != nil && conn.Client != nil {
			if c, ok := conn.Client.(*sshutil.Client); ok {
				client = c
			}
		}
		if client == nil {
			client, err = sshutil.Dial(sshAlias, DefaultProbeTimeout)
			if err != nil {
				return nil, errors.WrapWithCode(err, errors.ErrConnectivity,
					fmt.Sprintf("could not connect to %s", res.Remote.Alias), "")
			}
			cache.Set(sshAlias, &host.Connection{Name: res.Remote.Alias, Alias: sshAlias, Client: client})
		}

		mapper := pathmap.New(res.Remote.PathMap, res.Remote.Shared)
		ag = agent.NewRemoteAgent(res.Remote, client, mapper, r.Log)
	}

	return &registry.Host{Alias: res.Remote.Alias, Agent: ag, Engine: pair}, nil
}

func sshAliasFor(h hostconfig.ResolvedHost) string {
	if h.Port != 0 && h.Port != 22 {
		return fmt.Sprintf("%s:%d", h.Address, h.Port)
	}
	return h.Address
}
