package nexusgql

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/rs/zerolog"

	"github.com/hephaestus-app/nexus-gateway/graphiql"
	nexuscli "github.com/hephaestus-app/nexus-gateway/nexus-cli"
)

const shutdownTimeout = 10 * time.Second

// Webserver serves a mildly opinionated graphql webserver, optionally with
// playground attached. wsHandler, when non-nil, is mounted on /graphql/ws and
// advertised to the playground for subscriptions.
func Webserver(ctx context.Context, resolver Resolver, wsHandler http.Handler) error {
	config := resolver.Config()
	relay, err := GraphQLRelay(resolver)
	if err != nil {
		return err
	}

	router := DefaultRouter(config.Logger)

	router.Post("/graphql", middleware.NoCache(relay).ServeHTTP)
	// Allow arbitrary path parameters, for better UX in the browser
	router.Post("/graphql/*", middleware.NoCache(relay).ServeHTTP)

	wsPath := ""
	if wsHandler != nil {
		wsPath = "/graphql/ws"
		router.Get(wsPath, wsHandler.ServeHTTP)
	}

	if AllowIntrospection() {
		path := "/graphql"
		if config.Service.Subpath != "" {
			path = fmt.Sprintf("/%v/graphql", config.Service.Subpath)
			if wsPath != "" {
				wsPath = fmt.Sprintf("/%v%v", config.Service.Subpath, wsPath)
			}
		}
		router.Get("/graphql", graphiql.New(path, wsPath))
	}

	return Serve(ctx, router, config)
}

// Construct an http relay that handles graphql requests
func GraphQLRelay(resolver Resolver) (*relay.Handler, error) {
	finalSchema := resolver.Schema()

	config := resolver.Config()
	config.Service.Schema = finalSchema

	opts := []graphql.SchemaOpt{
		graphql.MaxDepth(15),
		graphql.UseFieldResolvers(),
	}
	if !AllowIntrospection() {
		opts = append(opts, graphql.DisableIntrospection())
	}

	schema, err := graphql.ParseSchema(finalSchema, resolver, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse schema: %w", err)
	}

	return &relay.Handler{Schema: schema}, nil
}

// Construct a chi router with the common useful middleware
func DefaultRouter(logger zerolog.Logger) chi.Router {
	router := chi.NewRouter()
	router.Use(
		middleware.Logger,
		WithCORS(),
		WithLogger(logger),
		middleware.Recoverer,
	)
	return router
}

// Serve runs the gateway's http server until ctx is cancelled, then drains
// in-flight requests. Websocket connections unwind through their request
// contexts during the drain.
func Serve(ctx context.Context, router chi.Router, config *BaseConfig) error {
	addr := fmt.Sprintf(":%v", nexuscli.CommonOpts.Port)
	if config.Service.Subpath != "" {
		newRouter := chi.NewRouter()
		newRouter.Mount(fmt.Sprintf("/%v", config.Service.Subpath), router)
		router = newRouter
	}
	server := &http.Server{Addr: addr, Handler: router}

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()

	config.Logger.Info().Str("addr", addr).Msgf("starting %v", config.Service.Name)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
