package graphiql

import (
	"bytes"
	_ "embed"
	"net/http"
	"text/template"

	"github.com/rs/zerolog"
)

//go:embed graphiql.html
var graphiql string

// New serves the GraphiQL playground. endpoint is the url where the graphql
// api is hosted; wsEndpoint is the graphql-ws url for subscriptions and may
// be empty to disable them.
func New(endpoint, wsEndpoint string) http.HandlerFunc {
	templ, err := template.New("graphiql").Parse(graphiql)
	if err != nil {
		panic(err)
	}
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		var variables struct {
			Route   string
			WsRoute string
		}
		variables.Route = endpoint
		variables.WsRoute = wsEndpoint

		var buffer bytes.Buffer
		if err := templ.Execute(&buffer, variables); err != nil {
			zerolog.Ctx(req.Context()).Err(err).Msg("unable to render playground")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(buffer.Bytes())
	}
}
