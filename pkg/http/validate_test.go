package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type sampleRequest struct {
	Name  string    `json:"name" validate:"required"`
	Limit int       `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
	Items []float64 `json:"items" validate:"omitempty,min=2"`
	Mode  string    `json:"mode" default:"fixed" validate:"oneof=fixed segmented"`
}

func TestReadAndValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCodes []string
		wantField string
		check     func(t *testing.T, r *sampleRequest)
	}{
		{
			name: "defaults applied",
			body: `{"name":"a"}`,
			check: func(t *testing.T, r *sampleRequest) {
				if r.Limit != 10 || r.Mode != "fixed" {
					t.Fatalf("defaults not applied: %+v", r)
				}
			},
		},
		{name: "required", body: `{}`, wantCodes: []string{"ERR_REQUIRED"}, wantField: "name"},
		{name: "bounds", body: `{"name":"a","limit":500}`, wantCodes: []string{"ERR_LTE"}, wantField: "limit"},
		{name: "slice min", body: `{"name":"a","items":[1]}`, wantCodes: []string{"ERR_MIN"}, wantField: "items"},
		{name: "oneof", body: `{"name":"a","mode":"x"}`, wantCodes: []string{"ERR_ONEOF"}, wantField: "mode"},
		{name: "malformed", body: `{`, wantCodes: []string{"ERR_UNKNOWN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			c := e.NewContext(req, httptest.NewRecorder())

			r := &sampleRequest{}
			errs := ReadAndValidateRequest(c, r)
			if len(tt.wantCodes) == 0 {
				if errs != nil {
					t.Fatalf("unexpected errors %+v", errs)
				}
				tt.check(t, r)
				return
			}
			if len(errs) != len(tt.wantCodes) {
				t.Fatalf("got %+v", errs)
			}
			for i, code := range tt.wantCodes {
				if errs[i].Code != code {
					t.Errorf("code %q want %q", errs[i].Code, code)
				}
			}
			if tt.wantField != "" && errs[0].Field != tt.wantField {
				t.Errorf("field %q want %q", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestAppErrorResponse(t *testing.T) {
	e := echo.New()
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"app error", BadRequestError("bad"), http.StatusBadRequest},
		{"wrapped", NotFoundErrorf("run %s", "x").WithError(errors.New("miss")), http.StatusNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			if err := AppErrorResponse(c, tt.err); err != nil {
				t.Fatalf("AppErrorResponse: %v", err)
			}
			if rec.Code != tt.status {
				t.Fatalf("status %d want %d", rec.Code, tt.status)
			}
		})
	}
}
