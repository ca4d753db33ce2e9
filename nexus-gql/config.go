package nexusgql

import (
	"github.com/rs/zerolog"

	nexuscli "github.com/hephaestus-app/nexus-gateway/nexus-cli"
)

type BaseConfig struct {
	Logger  zerolog.Logger
	Service nexuscli.Service
}

func NewConfig(service nexuscli.Service) BaseConfig {
	return BaseConfig{
		Logger:  nexuscli.Logger(service),
		Service: service,
	}
}
