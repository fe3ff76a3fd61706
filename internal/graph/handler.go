package graph

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

const maxRequestBody = 1 << 20 // 1MB

type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Response tiene la forma de graphql.Result; se usa para los errores de
// transporte que no llegan al engine.
type Response struct {
	Data   map[string]interface{} `json:"data,omitempty"`
	Errors []ResponseError        `json:"errors,omitempty"`
}

type ResponseError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Handler godoc
// @Summary GraphQL operation
// @Tags graphql
// @Accept json
// @Produce json
// @Param request body Request true "GraphQL request"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Router /graphql [post]
//
// Sirve POST /graphql (JSON) y GET /graphql?query=... (GET solo queries).
// Cada request tiene su propio OwnerLoader.
func (s *Schema) Handler(graphiql bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if graphiql && r.Method == http.MethodGet && r.URL.Query().Get("query") == "" && acceptsHTML(r) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, graphiqlPage)
			return
		}

		req, err := parseRequest(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Response{
				Errors: []ResponseError{{
					Message:    err.Error(),
					Extensions: map[string]interface{}{"code": "BAD_REQUEST"},
				}},
			})
			return
		}
		if r.Method == http.MethodGet && isMutation(req) {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, Response{
				Errors: []ResponseError{{
					Message:    "mutations are only allowed over POST",
					Extensions: map[string]interface{}{"code": "BAD_REQUEST"},
				}},
			})
			return
		}

		ctx := withOwnerLoader(r.Context(), NewOwnerLoader(s.identity))
		res := graphql.Do(graphql.Params{
			Schema:         s.schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        ctx,
		})

		writeJSON(w, http.StatusOK, res)
	})
}

func parseRequest(r *http.Request) (Request, error) {
	var req Request

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				return Request{}, errBadRequest("variables must be a JSON object")
			}
		}
	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			return Request{}, errBadRequest("could not read body")
		}
		ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if ct == "application/graphql" {
			req.Query = string(body)
			break
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return Request{}, errBadRequest("body must be a JSON object")
		}
	default:
		return Request{}, errBadRequest("method not allowed")
	}

	if strings.TrimSpace(req.Query) == "" {
		return Request{}, errBadRequest("query is required")
	}
	return req, nil
}

// isMutation indica si la operación a ejecutar es una mutation. Si el
// documento no parsea devuelve false y el error lo reporta graphql.Do.
func isMutation(req Request) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return false
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if req.OperationName != "" && (op.Name == nil || op.Name.Value != req.OperationName) {
			continue
		}
		if op.Operation == ast.OperationTypeMutation {
			return true
		}
	}
	return false
}

type errBadRequest string

func (e errBadRequest) Error() string { return string(e) }

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const graphiqlPage = `<!DOCTYPE html>
<html>
<head>
  <title>cats-graphql</title>
  <link rel="stylesheet" href="https://unpkg.com/graphiql/graphiql.min.css" />
</head>
<body style="margin:0">
  <div id="graphiql" style="height:100vh"></div>
  <script crossorigin src="https://unpkg.com/react/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: window.location.pathname });
    ReactDOM.render(React.createElement(GraphiQL, { fetcher }), document.getElementById('graphiql'));
  </script>
</body>
</html>`
