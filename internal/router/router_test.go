package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cats-graphql/internal/adapters/identity"
	"cats-graphql/internal/platform/metrics"
	"cats-graphql/internal/router"
)

// fakeIdentityServer simula el servicio de identidad: /users/:id y /users/token.
func fakeIdentityServer(t *testing.T) *httptest.Server {
	t.Helper()
	users := map[string]map[string]any{
		"owner-1":    {"id": "owner-1", "user_name": "ana", "email": "ana@x.io", "role": "user"},
		"stranger-1": {"id": "stranger-1", "user_name": "bob", "email": "bob@x.io", "role": "user"},
		"admin-1":    {"id": "admin-1", "user_name": "root", "email": "root@x.io", "role": "admin"},
	}
	tokens := map[string]string{"tok-owner": "owner-1", "tok-admin": "admin-1"}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path == "/users/token" {
			uid, ok := tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "Token is valid", "user": users[uid]})
			return
		}

		u, ok := users[strings.TrimPrefix(r.URL.Path, "/users/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_ = json.NewEncoder(w).Encode(u)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newServer(t *testing.T, withVerifier bool) *httptest.Server {
	t.Helper()
	idp := fakeIdentityServer(t)

	client, err := identity.NewClient(identity.Config{BaseURL: idp.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("identity client: %v", err)
	}

	opts := router.Options{
		Identity: client,
		Metrics:  metrics.New(),
	}
	if withVerifier {
		opts.AuthVerifier = identity.NewVerifier(client)
	}

	h, err := router.NewRouter(opts)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_OwnershipAndAdmin(t *testing.T) {
	ts := newServer(t, false)

	owner := map[string]string{"X-Debug-User-ID": "owner-1"}
	stranger := map[string]string{"X-Debug-User-ID": "stranger-1"}
	admin := map[string]string{"X-Debug-User-ID": "admin-1", "X-Debug-User-Role": "admin"}

	// 1) Owner crea un cat; el owner enviado se ignora
	res := gql(t, ts.URL, owner, `mutation {
	  createCat(cat_name: "Milo", weight: 4, birthdate: "2020-01-01", filename: "milo.png",
	            owner: "someone-else", location: {coordinates: [24.94, 60.17]}) {
	    id owner { id user_name }
	  }
	}`, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("createCat errors: %v", res.Errors)
	}
	created := res.Data["createCat"].(map[string]any)
	catID := created["id"].(string)
	if got := created["owner"].(map[string]any)["id"]; got != "owner-1" {
		t.Fatalf("expected owner-1, got %v", got)
	}

	vars := map[string]any{"id": catID}

	// 2) Otro usuario no puede editar
	res = gql(t, ts.URL, stranger, `mutation($id: ID!) { updateCat(id: $id, cat_name: "Stolen") { id } }`, vars)
	if code := firstCode(res); code != "NOT_AUTHORIZED" {
		t.Fatalf("expected NOT_AUTHORIZED for stranger, got %q", code)
	}

	// 3) Owner edita
	res = gql(t, ts.URL, owner, `mutation($id: ID!) { updateCat(id: $id, cat_name: "Milo II") { cat_name } }`, vars)
	if len(res.Errors) != 0 {
		t.Fatalf("updateCat errors: %v", res.Errors)
	}
	if got := res.Data["updateCat"].(map[string]any)["cat_name"]; got != "Milo II" {
		t.Fatalf("expected renamed cat, got %v", got)
	}

	// 4) Búsqueda por área lo encuentra
	res = gql(t, ts.URL, nil, `{ catsByArea(topRight: {lat: 61, lng: 25}, bottomLeft: {lat: 60, lng: 24}) { id } }`, nil)
	if list := res.Data["catsByArea"].([]any); len(list) != 1 {
		t.Fatalf("expected 1 cat in area, got %d", len(list))
	}

	// 5) Owner no puede usar la variante admin
	res = gql(t, ts.URL, owner, `mutation($id: ID!) { deleteCatAsAdmin(id: $id) { id } }`, vars)
	if code := firstCode(res); code != "NOT_AUTHORIZED" {
		t.Fatalf("expected NOT_AUTHORIZED for non-admin, got %q", code)
	}

	// 6) Admin borra
	res = gql(t, ts.URL, admin, `mutation($id: ID!) { deleteCatAsAdmin(id: $id) { id cat_name } }`, vars)
	if len(res.Errors) != 0 {
		t.Fatalf("deleteCatAsAdmin errors: %v", res.Errors)
	}

	// 7) Ya no existe
	res = gql(t, ts.URL, nil, `query($id: ID!) { catById(id: $id) { id } }`, vars)
	if res.Data["catById"] != nil {
		t.Fatalf("expected null after delete, got %v", res.Data["catById"])
	}
}

func TestHTTP_VerifierMode(t *testing.T) {
	ts := newServer(t, true)

	// Sin token válido no hay Caller: los headers de debug se ignoran
	res := gql(t, ts.URL, map[string]string{"X-Debug-User-ID": "owner-1"}, createMilo, nil)
	if code := firstCode(res); code != "NOT_AUTHORIZED" {
		t.Fatalf("expected NOT_AUTHORIZED without token, got %q", code)
	}

	res = gql(t, ts.URL, map[string]string{"Authorization": "Bearer bad"}, createMilo, nil)
	if code := firstCode(res); code != "NOT_AUTHORIZED" {
		t.Fatalf("expected NOT_AUTHORIZED with bad token, got %q", code)
	}

	res = gql(t, ts.URL, map[string]string{"Authorization": "Bearer tok-owner"}, createMilo, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("createCat errors: %v", res.Errors)
	}
	if got := res.Data["createCat"].(map[string]any)["owner"].(map[string]any)["user_name"]; got != "ana" {
		t.Fatalf("expected owner ana, got %v", got)
	}

	res = gql(t, ts.URL, map[string]string{"Authorization": "Bearer tok-admin"}, `{ checkToken { message user { role } } }`, nil)
	if len(res.Errors) != 0 {
		t.Fatalf("checkToken errors: %v", res.Errors)
	}
}

func TestHTTP_OpsEndpoints(t *testing.T) {
	ts := newServer(t, false)

	st, body := doReq(t, ts.URL, http.MethodGet, "/health", nil, nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("health: %d %s", st, body)
	}

	// una operación para que aparezca el contador
	gql(t, ts.URL, nil, `{ cats { id } }`, nil)

	st, body = doReq(t, ts.URL, http.MethodGet, "/metrics", nil, nil)
	if st != http.StatusOK {
		t.Fatalf("metrics: %d", st)
	}
	if !strings.Contains(string(body), `cats_graphql_graphql_operations_total{field="cats",outcome="ok"} 1`) {
		t.Fatalf("metrics missing operations counter:\n%s", body)
	}

	st, body = doReq(t, ts.URL, http.MethodGet, "/swagger/doc.json", nil, nil)
	if st != http.StatusOK || !strings.Contains(string(body), "/graphql") {
		t.Fatalf("swagger doc: %d %s", st, body)
	}
}

func TestNewRouter_RequiresIdentity(t *testing.T) {
	if _, err := router.NewRouter(router.Options{}); err == nil {
		t.Fatalf("expected error without identity client")
	}
}

const createMilo = `mutation {
  createCat(cat_name: "Milo", weight: 4, birthdate: "2020-01-01", filename: "milo.png",
            location: {coordinates: [24.94, 60.17]}) {
    id owner { user_name }
  }
}`

type gqlResponse struct {
	Data   map[string]any   `json:"data"`
	Errors []map[string]any `json:"errors"`
}

func gql(t *testing.T, baseURL string, headers map[string]string, query string, vars map[string]any) gqlResponse {
	t.Helper()

	st, body := doReq(t, baseURL, http.MethodPost, "/graphql", headers, map[string]any{
		"query":     query,
		"variables": vars,
	})
	if st != http.StatusOK {
		t.Fatalf("graphql status %d body=%s", st, string(body))
	}

	var out gqlResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, string(body))
	}
	return out
}

func firstCode(res gqlResponse) string {
	if len(res.Errors) == 0 {
		return ""
	}
	ext, _ := res.Errors[0]["extensions"].(map[string]any)
	code, _ := ext["code"].(string)
	return code
}

func doReq(t *testing.T, baseURL, method, path string, headers map[string]string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
