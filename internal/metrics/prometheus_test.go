package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/relay/internal/domain"
)

func scrape(t *testing.T, p *Provider) string {
	t.Helper()
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestPrometheusProvider_ServesInstruments(t *testing.T) {
	p, err := NewPrometheusProvider()
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	m, err := New(p)
	require.NoError(t, err)
	ctx := context.Background()
	m.ConnectionCountChanged(ctx, 1, 1)
	m.ConnectionCountChanged(ctx, 2, 1)
	m.UpdateBroadcast(ctx, domain.Category("user"), "created", 2)

	body := scrape(t, p)
	assert.Regexp(t, `(?m)^relay_connections_active(\{[^}]*\})? 2$`, body)
	assert.Regexp(t, `(?m)^relay_broadcasts_total\{[^}]*action="created"[^}]*\} 1$`, body)
	assert.Contains(t, body, "go_goroutines")
}

func TestPrometheusProvider_SeparateRegistries(t *testing.T) {
	a, err := NewPrometheusProvider()
	require.NoError(t, err)
	b, err := NewPrometheusProvider()
	require.NoError(t, err)

	ma, err := New(a)
	require.NoError(t, err)
	_, err = New(b)
	require.NoError(t, err)

	ma.ConnectionCountChanged(context.Background(), 1, 1)
	assert.Regexp(t, `(?m)^relay_connections_active(\{[^}]*\})? 1$`, scrape(t, a))
	assert.NotRegexp(t, `(?m)^relay_connections_active(\{[^}]*\})? 1$`, scrape(t, b))
}
