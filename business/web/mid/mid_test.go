package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/utxochain/business/web/errs"
	"github.com/ardanlabs/utxochain/business/web/mid"
	"github.com/ardanlabs/utxochain/foundation/web"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func Test_Errors(t *testing.T) {
	log := zap.NewNop().Sugar()

	app := web.NewApp(make(chan os.Signal, 1), mid.Logger(log), mid.Errors(log), mid.Metrics(), mid.Panics())

	app.Handle(http.MethodGet, "v1", "/trusted", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errs.NewTrusted(errors.New("bad owner"), http.StatusBadRequest)
	})
	app.Handle(http.MethodGet, "v1", "/panic", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		panic("boom")
	})
	app.Handle(http.MethodGet, "v1", "/ok/:name", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, web.Param(r, "name"), http.StatusOK)
	})

	type table struct {
		path   string
		status int
		body   string
	}

	tt := []table{
		{path: "/v1/trusted", status: http.StatusBadRequest, body: "bad owner"},
		{path: "/v1/panic", status: http.StatusInternalServerError, body: http.StatusText(http.StatusInternalServerError)},
	}

	for _, tst := range tt {
		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tst.path, nil))

		require.Equal(t, tst.status, w.Code, tst.path)

		var resp errs.Response
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Equal(t, tst.body, resp.Error)
	}

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/ok/alice", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `"alice"`, w.Body.String())
}
