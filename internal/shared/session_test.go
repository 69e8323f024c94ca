package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfid-attendance/attendance/internal/shared"
)

func newSessionManager(t *testing.T) (*shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func requestWithCookie(name, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: name, Value: value})
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	mgr, mr := newSessionManager(t)
	ctx := context.Background()

	sess, err := mgr.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("k", "v")
	sess.SetUser("42")
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "saved"})

	res := httptest.NewRecorder()
	require.NoError(t, mgr.Commit(ctx, res, sess))
	assert.True(t, mr.Exists("attendance:session:"+sess.ID))
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, mgr.CookieValue(sess), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	loaded, err := mgr.Load(ctx, requestWithCookie("test_session", cookies[0].Value))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "v", loaded.Get("k"))
	assert.Equal(t, "42", loaded.User())

	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "saved", flash.Message)
	assert.Nil(t, loaded.PopFlash())

	require.NoError(t, mgr.Commit(ctx, httptest.NewRecorder(), loaded))
	again, err := mgr.Load(ctx, requestWithCookie("test_session", cookies[0].Value))
	require.NoError(t, err)
	assert.Nil(t, again.PopFlash(), "flash shown once")
}

func TestSessionRejectsForgedCookie(t *testing.T) {
	mgr, _ := newSessionManager(t)
	ctx := context.Background()

	sess, err := mgr.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("1")
	require.NoError(t, mgr.Commit(ctx, httptest.NewRecorder(), sess))

	for _, value := range []string{sess.ID, sess.ID + ".bogus", "unknown.sig"} {
		loaded, err := mgr.Load(ctx, requestWithCookie("test_session", value))
		require.NoError(t, err)
		assert.NotEqual(t, sess.ID, loaded.ID)
		assert.Empty(t, loaded.User())
	}
}

func TestSessionExpiredKeyStartsFresh(t *testing.T) {
	mgr, mr := newSessionManager(t)
	ctx := context.Background()

	sess, err := mgr.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("1")
	require.NoError(t, mgr.Commit(ctx, httptest.NewRecorder(), sess))
	value := mgr.CookieValue(sess)

	mr.FastForward(2 * time.Hour)
	loaded, err := mgr.Load(ctx, requestWithCookie("test_session", value))
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, loaded.ID)
}

func TestSessionRenewAndDestroy(t *testing.T) {
	mgr, mr := newSessionManager(t)
	ctx := context.Background()

	sess, err := mgr.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, mgr.Commit(ctx, httptest.NewRecorder(), sess))
	oldID := sess.ID

	require.NoError(t, mgr.Renew(ctx, sess))
	assert.NotEqual(t, oldID, sess.ID)
	assert.False(t, mr.Exists("attendance:session:"+oldID))
	require.NoError(t, mgr.Commit(ctx, httptest.NewRecorder(), sess))
	assert.True(t, mr.Exists("attendance:session:"+sess.ID))

	mgr.Destroy(sess)
	res := httptest.NewRecorder()
	require.NoError(t, mgr.Commit(ctx, res, sess))
	assert.False(t, mr.Exists("attendance:session:"+sess.ID))
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestActorIDFromContext(t *testing.T) {
	mgr, _ := newSessionManager(t)
	sess, err := mgr.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.Zero(t, shared.ActorIDFromContext(context.Background()))
	ctx := shared.ContextWithSession(context.Background(), sess)
	assert.Zero(t, shared.ActorIDFromContext(ctx))
	sess.SetUser("17")
	assert.Equal(t, int64(17), shared.ActorIDFromContext(ctx))
}
