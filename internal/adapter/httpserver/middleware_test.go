package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/energypatrikhu/obs-ui/internal/platform/correlation"
	apperrors "github.com/energypatrikhu/obs-ui/internal/platform/errors"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runWithErrorHandling passes handlerErr through ErrorHandlingMiddleware.
func runWithErrorHandling(t *testing.T, handlerErr error) (*httptest.ResponseRecorder, error) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/widgets/settings", nil), rec)

	err := ErrorHandlingMiddleware()(func(echo.Context) error { return handlerErr })(c)
	return rec, err
}

func TestErrorHandling_StatusAndType(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   apperrors.ErrorType
		wantMsg    string
	}{
		{"validation", apperrors.ValidationError("No metadata provided"), http.StatusBadRequest, apperrors.TypeValidation, "No metadata provided"},
		{"unauthorized", apperrors.UnauthorizedError("reauthorize", errors.New("revoked")), http.StatusUnauthorized, apperrors.TypeUnauthorized, "reauthorize"},
		{"not found", apperrors.NotFoundError("missing"), http.StatusNotFound, apperrors.TypeNotFound, "missing"},
		{"internal", apperrors.InternalError("failed to save widget settings", errors.New("disk full")), http.StatusInternalServerError, apperrors.TypeInternal, "failed to save widget settings"},
		{"external", apperrors.ExternalError("Twitch rejected the authorization code", errors.New("400")), http.StatusBadGateway, apperrors.TypeExternal, "Twitch rejected the authorization code"},
		{"plain error", errors.New("standard error"), http.StatusInternalServerError, apperrors.TypeInternal, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := runWithErrorHandling(t, tt.err)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantType, resp.Type)
			assert.Equal(t, tt.wantMsg, resp.Error)
		})
	}
}

func TestErrorHandling_Context(t *testing.T) {
	rec, err := runWithErrorHandling(t, apperrors.ValidationError("maxEvents must not be negative").WithField("maxEvents", -1))
	require.NoError(t, err)

	resp := decodeError(t, rec)
	assert.Len(t, resp.Context, 1)
	assert.InDelta(t, -1, resp.Context["maxEvents"], 0)
}

func TestErrorHandling_PassesEchoErrors(t *testing.T) {
	rec, err := runWithErrorHandling(t, echo.ErrMethodNotAllowed)

	httpErr, ok := errors.AsType[*echo.HTTPError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusMethodNotAllowed, httpErr.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestHandleError_Nil(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	assert.NoError(t, HandleError(c, nil))
	assert.Zero(t, rec.Body.Len())
}

func TestCorrelationMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"generates an id", ""},
		{"reuses the caller's id", "extension-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/nowPlaying", nil)
			if tt.incoming != "" {
				req.Header.Set(correlation.Header, tt.incoming)
			}
			rec := httptest.NewRecorder()

			var seen string
			handler := correlationMiddleware(func(c echo.Context) error {
				seen, _ = correlation.ID(c.Request().Context())
				return nil
			})
			require.NoError(t, handler(echo.New().NewContext(req, rec)))

			require.NotEmpty(t, seen)
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
			assert.Equal(t, seen, rec.Header().Get(correlation.Header))
		})
	}
}

func TestCorrelationHeaderOnResponses(t *testing.T) {
	srv := newTestServer(t, Handlers{})

	rec := serve(t, srv, http.MethodGet, "/nowPlaying", "")

	assert.NotEmpty(t, rec.Header().Get(correlation.Header))
}
