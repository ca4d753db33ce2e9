package nexuscli

import (
	"time"

	"github.com/urfave/cli/v2"
)

var CommonOpts struct {
	Console   bool
	Env       string
	Port      int
	ProjectID string

	UsersURL   string
	FriendsURL string
	GroupsURL  string
	DmURL      string

	JwtSecret     string
	JwtSecretName string

	SignValidity time.Duration
	SignMargin   time.Duration
}

var ConsoleFlag = cli.BoolFlag{
	Name:        "console",
	Usage:       "log human-readable output to the console instead of JSON",
	Value:       false,
	EnvVars:     []string{"CONSOLE"},
	Destination: &CommonOpts.Console,
}
var EnvFlag = cli.StringFlag{
	Name:        "env",
	Usage:       "environment",
	Value:       "local",
	EnvVars:     []string{"ENV"},
	Destination: &CommonOpts.Env,
}
var ProjectIDFlag = cli.StringFlag{
	Name:        "project-id",
	Usage:       "cloud project hosting the pub/sub broker",
	EnvVars:     []string{"PROJECT_ID"},
	Destination: &CommonOpts.ProjectID,
}
var UsersURLFlag = cli.StringFlag{
	Name:        "users-url",
	Usage:       "base url of the user api service",
	Value:       "http://localhost:4001",
	EnvVars:     []string{"USERS_URL"},
	Destination: &CommonOpts.UsersURL,
}
var FriendsURLFlag = cli.StringFlag{
	Name:        "friends-url",
	Usage:       "base url of the friends api service",
	Value:       "http://localhost:4002",
	EnvVars:     []string{"FRIENDS_URL"},
	Destination: &CommonOpts.FriendsURL,
}
var GroupsURLFlag = cli.StringFlag{
	Name:        "groups-url",
	Usage:       "base url of the group api service",
	Value:       "http://localhost:4003",
	EnvVars:     []string{"GROUPS_URL"},
	Destination: &CommonOpts.GroupsURL,
}
var DmURLFlag = cli.StringFlag{
	Name:        "dm-url",
	Usage:       "base url of the direct messaging api service",
	Value:       "http://localhost:4004",
	EnvVars:     []string{"DM_URL"},
	Destination: &CommonOpts.DmURL,
}
var JwtSecretFlag = cli.StringFlag{
	Name:        "jwt-secret",
	Usage:       "HMAC key used to verify access tokens",
	EnvVars:     []string{"JWT_SECRET"},
	Destination: &CommonOpts.JwtSecret,
}
var JwtSecretNameFlag = cli.StringFlag{
	Name:        "jwt-secret-name",
	Usage:       "secrets manager secret holding the jwt key; overrides --jwt-secret",
	EnvVars:     []string{"JWT_SECRET_NAME"},
	Destination: &CommonOpts.JwtSecretName,
}
var SignValidityFlag = cli.DurationFlag{
	Name:        "sign-validity",
	Usage:       "how long issued signed attachment urls remain valid",
	Value:       time.Hour,
	EnvVars:     []string{"SIGN_VALIDITY"},
	Destination: &CommonOpts.SignValidity,
}
var SignMarginFlag = cli.DurationFlag{
	Name:        "sign-margin",
	Usage:       "safety margin subtracted from the validity window when caching signed urls",
	Value:       10 * time.Minute,
	EnvVars:     []string{"SIGN_MARGIN"},
	Destination: &CommonOpts.SignMargin,
}
var PortFlag = func(p int) *cli.IntFlag {
	return &cli.IntFlag{
		Name:        "port",
		Usage:       "Port to listen to",
		Value:       p,
		EnvVars:     []string{"PORT"},
		Destination: &CommonOpts.Port,
	}
}

var CommonFlags = []cli.Flag{
	&ConsoleFlag,
	&EnvFlag,
	&ProjectIDFlag,
	&UsersURLFlag,
	&FriendsURLFlag,
	&GroupsURLFlag,
	&DmURLFlag,
	&JwtSecretFlag,
	&JwtSecretNameFlag,
	&SignValidityFlag,
	&SignMarginFlag,
}
