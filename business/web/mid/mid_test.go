package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/business/web/mid"
	"github.com/ardanlabs/powledger/foundation/validate"
	"github.com/ardanlabs/powledger/foundation/web"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestErrors(t *testing.T) {
	type table struct {
		name    string
		handler web.Handler
		status  int
		message string
		fields  bool
	}

	tt := []table{
		{
			name: "trusted",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errs.NewTrusted(errors.New("bad amount"), http.StatusBadRequest)
			},
			status:  http.StatusBadRequest,
			message: "bad amount",
		},
		{
			name: "fields",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return validate.FieldErrors{{Field: "sender", Error: "sender is a required field"}}
			},
			status:  http.StatusBadRequest,
			message: "data validation error",
			fields:  true,
		},
		{
			name: "untrusted",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errors.New("disk on fire")
			},
			status:  http.StatusInternalServerError,
			message: http.StatusText(http.StatusInternalServerError),
		},
		{
			name: "panic",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				panic("boom")
			},
			status:  http.StatusInternalServerError,
			message: http.StatusText(http.StatusInternalServerError),
		},
	}

	t.Log("Given the need to respond to handler errors in a uniform way.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s error.", testID, tst.name)
			{
				f := func(t *testing.T) {
					shutdown := make(chan os.Signal, 1)

					app := web.NewApp(shutdown, mid.Logger(zap.NewNop().Sugar()), mid.Errors(zap.NewNop().Sugar()), mid.Metrics(), mid.Panics())
					app.Handle(http.MethodGet, "v1", "/test", tst.handler)

					w := httptest.NewRecorder()
					app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/test", nil))

					if w.Code != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould get status %d, got %d.", failed, testID, tst.status, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould get status %d.", success, testID, tst.status)

					var er errs.Response
					if err := json.NewDecoder(w.Body).Decode(&er); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to decode the response: %s", failed, testID, err)
					}

					if er.Error != tst.message {
						t.Fatalf("\t%s\tTest %d:\tShould get message %q, got %q.", failed, testID, tst.message, er.Error)
					}
					t.Logf("\t%s\tTest %d:\tShould get message %q.", success, testID, tst.message)

					if tst.fields && er.Fields["sender"] == "" {
						t.Fatalf("\t%s\tTest %d:\tShould get the field errors.", failed, testID)
					}

					select {
					case <-shutdown:
						t.Fatalf("\t%s\tTest %d:\tShould not signal a shutdown.", failed, testID)
					default:
					}
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestShutdownError(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	app := web.NewApp(shutdown, mid.Errors(zap.NewNop().Sugar()))
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity failure")
	}
	app.Handle(http.MethodGet, "", "/test", h)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	select {
	case <-shutdown:
	default:
		t.Fatalf("Should signal a shutdown.")
	}
}
