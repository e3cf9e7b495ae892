package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/usecase/notify"
)

type stubService struct {
	dispatchErr error
	lastKind    entity.Kind
	lastIDs     []int64
}

func (s *stubService) Dispatch(_ context.Context, kind entity.Kind, recipients []int64, _ map[string]any) error {
	s.lastKind = kind
	s.lastIDs = recipients
	return s.dispatchErr
}

func (s *stubService) Shutdown(context.Context) error { return nil }

func TestDispatchHandler_Accepted(t *testing.T) {
	svc := &stubService{}
	handler := dispatchHandler(svc, nil)

	body := `{"kind": "FOLLOWED", "recipients": [42], "properties": {"url": "/people/42"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, entity.KindFollowed, svc.lastKind)
	assert.Equal(t, []int64{42}, svc.lastIDs)
	assert.JSONEq(t, `{"status": "accepted"}`, rec.Body.String())
}

func TestDispatchHandler_UnknownKind(t *testing.T) {
	svc := &stubService{dispatchErr: notify.ErrUnknownKind}
	handler := dispatchHandler(svc, nil)

	body := `{"kind": "NOT_A_KIND", "recipients": [42]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDispatchHandler_InvalidBody(t *testing.T) {
	svc := &stubService{}
	handler := dispatchHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/notifications", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.lastKind)
}

func TestDispatchHandler_MethodNotAllowed(t *testing.T) {
	svc := &stubService{}
	handler := dispatchHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
