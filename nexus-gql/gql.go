// Package nexusgql provides the gateway's GraphQL server utilities: a chi
// router with the common middleware, the relay handler, and schema merging.
package nexusgql

import (
	nexuscli "github.com/hephaestus-app/nexus-gateway/nexus-cli"
)

func AllowIntrospection() bool {
	return nexuscli.CommonOpts.Env != "production" || nexuscli.CommonOpts.Console
}

type Resolver interface {
	Schema() string
	Config() *BaseConfig
}
