package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/urfave/cli/v2"

	nexusapi "github.com/hephaestus-app/nexus-gateway/nexus-api"
	nexusbridge "github.com/hephaestus-app/nexus-gateway/nexus-bridge"
	"github.com/hephaestus-app/nexus-gateway/nexus-bridge/broker"
	nexuscli "github.com/hephaestus-app/nexus-gateway/nexus-cli"
	nexusgql "github.com/hephaestus-app/nexus-gateway/nexus-gql"
	nexushydrate "github.com/hephaestus-app/nexus-gateway/nexus-hydrate"
	nexussecret "github.com/hephaestus-app/nexus-gateway/nexus-secret"
	nexusws "github.com/hephaestus-app/nexus-gateway/nexus-ws"
	"github.com/hephaestus-app/nexus-gateway/nexus-ws/hub"
)

func main() {
	service := nexuscli.NewService("nexus-gateway")
	flags := append(nexuscli.CommonFlags, nexuscli.PortFlag(3000))
	app := nexuscli.App(service, run(service), flags...)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(service nexuscli.Service) cli.ActionFunc {
	return func(c *cli.Context) error {
		ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := nexuscli.Logger(service)

		sess, err := session.NewSession()
		if err != nil {
			return fmt.Errorf("unable to create aws session: %w", err)
		}

		jwtSecret := nexuscli.CommonOpts.JwtSecret
		if name := nexuscli.CommonOpts.JwtSecretName; name != "" {
			var secret nexussecret.GatewaySecret
			if err := nexussecret.LoadSecret(sess, name, &secret); err != nil {
				return err
			}
			jwtSecret = secret.JwtSecret
		}
		if jwtSecret == "" {
			return fmt.Errorf("a jwt secret is required; set --jwt-secret or --jwt-secret-name")
		}

		users, err := nexusapi.NewUsers(nexuscli.CommonOpts.UsersURL)
		if err != nil {
			return err
		}
		friends, err := nexusapi.NewFriends(nexuscli.CommonOpts.FriendsURL)
		if err != nil {
			return err
		}
		groups, err := nexusapi.NewGroups(nexuscli.CommonOpts.GroupsURL)
		if err != nil {
			return err
		}
		dm, err := nexusapi.NewDirectMessaging(nexuscli.CommonOpts.DmURL)
		if err != nil {
			return err
		}

		pubsubBroker, err := broker.NewPubSub(ctx, nexuscli.CommonOpts.ProjectID)
		if err != nil {
			return err
		}
		defer pubsubBroker.Close()

		cache := nexushydrate.NewCache()
		go cache.Janitor(ctx, 5*time.Minute)
		hydrator := nexushydrate.New(
			nexushydrate.NewS3Signer(s3.New(sess)),
			cache,
			logger,
		).WithWindows(nexuscli.CommonOpts.SignValidity, nexuscli.CommonOpts.SignMargin)

		eventHub := hub.New(logger)
		defer eventHub.Close()

		router := nexusbridge.NewRouter(eventHub, hydrator, logger)
		provisioner := nexusbridge.NewProvisioner(pubsubBroker, router, nexusbridge.NewInstanceID(), logger)
		defer provisioner.Close()

		wsHandler := nexusws.NewHandler(
			eventHub,
			provisioner,
			nexusws.NewJWTAuth(jwtSecret),
			nexusws.NewEvaluator(friends, logger),
			logger,
		)

		config := nexusgql.NewConfig(service)
		resolver := &Resolver{
			config:   &config,
			users:    users,
			friends:  friends,
			groups:   groups,
			dm:       dm,
			hydrator: hydrator,
		}

		return nexusgql.Webserver(ctx, resolver, wsHandler)
	}
}
