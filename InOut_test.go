package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutRender(t *testing.T) {
	in := NewIn(nil, nil)

	rec := httptest.NewRecorder()
	require.NoError(t, in.OutputJSON(map[string]bool{"success": true}).Render(rec))
	assert.Equal(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	require.NoError(t, in.OutputStatus(http.StatusTeapot, "short and stout").Render(rec))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())

	rec = httptest.NewRecorder()
	rec.Header().Set("Content-Type", "image/png")
	require.NoError(t, in.OutputBytes([]byte{1, 2}).Render(rec))
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{1, 2}, rec.Body.Bytes())

	// continue writes nothing
	rec = httptest.NewRecorder()
	require.NoError(t, in.Continue().Render(rec))
	assert.Equal(t, 0, rec.Body.Len())
}

func TestOutRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	err := NewIn(rec, r).OutputString("late").Render(rec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestOutContinue(t *testing.T) {
	var nilOut *Out
	assert.True(t, nilOut.IsContinue())
	assert.Equal(t, http.StatusOK, nilOut.Status())
	assert.Equal(t, "", nilOut.String())

	in := &In{}
	assert.True(t, in.Continue().IsContinue())
	assert.False(t, in.OutputString("x").IsContinue())
	assert.NotNil(t, in.Context())
}
