package router

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	_ "github.com/chai2010/webp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/gin-contest/config"
	"github.com/d60-Lab/gin-contest/internal/api/handler"
	"github.com/d60-Lab/gin-contest/internal/api/middleware"
	"github.com/d60-Lab/gin-contest/internal/deadline"
	"github.com/d60-Lab/gin-contest/internal/identity"
	"github.com/d60-Lab/gin-contest/internal/ratelimit"
	"github.com/d60-Lab/gin-contest/internal/repository"
	"github.com/d60-Lab/gin-contest/internal/service"
	"github.com/d60-Lab/gin-contest/internal/storage"
	"github.com/d60-Lab/gin-contest/internal/testutil"
	"github.com/d60-Lab/gin-contest/internal/upload"
	"github.com/d60-Lab/gin-contest/pkg/reconcile"
	"github.com/d60-Lab/gin-contest/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	r     *gin.Engine
	fs    afero.Fs
	clock time.Time
	gate  *deadline.Gate
}

func newTestServer(t *testing.T, uploadsPerMinute int) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      testutil.TestJWTSecret,
			CookieName:     "sb-access-token",
			CookieSecure:   true,
			LoginPath:      "/",
			ProtectedPaths: []string{"/submit", "/inbox"},
			ReviewerIDs:    []string{"reviewer"},
			AddressSalt:    "salt",
		},
	}

	s := &testServer{fs: afero.NewMemMapFs(), clock: time.Now()}
	s.gate = &deadline.Gate{Deadline: s.clock.Add(time.Hour), Now: func() time.Time { return s.clock }}

	subs := repository.NewSubmissionRepository(db)
	votes := repository.NewVoteRepository(db)
	notifier := service.NewNotificationService(repository.NewNotificationRepository(db), nil)
	resolver := identity.NewResolver(identity.NewJWTVerifier(testutil.TestJWTSecret, "", ""))
	auth := middleware.NewAuthenticator(resolver, cfg.Auth.CookieName)

	limits := upload.Limits{MaxFiles: 6, MaxFileBytes: 5 << 20, AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"}}
	store := storage.NewLocalStore(s.fs, "media", "http://localhost/media")

	h := handler.New(handler.Options{
		Submissions:   service.NewSubmissionService(subs, votes, notifier, s.gate, nil),
		Votes:         service.NewVoteService(votes, subs, s.gate, nil),
		Uploads:       service.NewUploadService(limits, "useful", upload.NewTranscoder(1600, 82), store, 2),
		Notifications: notifier,
		Auth:          auth,
		Resolver:      resolver,
		Gate:          s.gate,
		DB:            db,
		CookieSecure:  true,
		MaxUploadBody: limits.MaxBodyBytes(),
	})
	s.r = Setup(Deps{
		Config:        cfg,
		Handler:       h,
		Auth:          auth,
		UploadLimiter: ratelimit.NewMemoryLimiter(uploadsPerMinute, time.Minute),
		VoteThrottle:  ratelimit.NewKeyedThrottle(100, 100),
		Gate:          s.gate,
	})
	return s
}

func token(t *testing.T, user string) string {
	return testutil.MintToken(t, user, time.Hour)
}

func submission(title string) map[string]any {
	return map[string]any{
		"title":       title,
		"author_name": "Ann",
		"description": "does useful things",
		"demo_url":    "https://demo.example.com",
	}
}

func (s *testServer) createWork(t *testing.T, owner string) string {
	t.Helper()
	w := testutil.MakeRequest(s.r, http.MethodPost, "/submissions", submission("work of "+owner), token(t, owner))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct{ ID string }
	testutil.DecodeJSON(t, w, &body)
	return body.ID
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body response.ErrorBody
	testutil.DecodeJSON(t, w, &body)
	return body.Error
}

func TestSubmissionEndpoints(t *testing.T) {
	s := newTestServer(t, 100)

	w := testutil.MakeRequest(s.r, http.MethodPost, "/submissions", submission("x"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	missing := submission("")
	w = testutil.MakeRequest(s.r, http.MethodPost, "/submissions", missing, token(t, "owner-a"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_fields", errorCode(t, w))

	id := s.createWork(t, "owner-a")

	w = testutil.MakeRequest(s.r, http.MethodPost, "/submissions", submission("again"), token(t, "owner-a"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already_submitted", errorCode(t, w))

	w = testutil.MakeRequest(s.r, http.MethodPut, "/submissions/"+id, submission("stolen"), token(t, "owner-b"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.MakeRequest(s.r, http.MethodPut, "/submissions/"+id, submission("renamed"), token(t, "owner-a"))
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.MakeRequest(s.r, http.MethodGet, "/submissions/mine", nil, token(t, "owner-a"))
	require.Equal(t, http.StatusOK, w.Code)
	var mine []map[string]any
	testutil.DecodeJSON(t, w, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "renamed", mine[0]["title"])
	assert.Equal(t, "pending", mine[0]["status"])
	assert.EqualValues(t, 0, mine[0]["vote_count"])
	assert.NotContains(t, mine[0], "OwnerID")

	s.clock = s.gate.Deadline
	w = testutil.MakeRequest(s.r, http.MethodPost, "/submissions", submission("late"), token(t, "owner-c"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "contest_closed", errorCode(t, w))
}

func TestVoteEndpoint(t *testing.T) {
	s := newTestServer(t, 100)
	work := s.createWork(t, "author")
	path := "/votes/" + work + "/toggle"

	w := testutil.MakeRequest(s.r, http.MethodPost, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var res struct {
		IsVoted   bool  `json:"isVoted"`
		VoteCount int64 `json:"voteCount"`
	}
	w = testutil.MakeRequest(s.r, http.MethodPost, path, nil, token(t, "V"))
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeJSON(t, w, &res)
	assert.True(t, res.IsVoted)
	assert.Equal(t, int64(1), res.VoteCount)

	// 带幂等键的重试返回首次结果
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "U"))
	req.Header.Set("Idempotency-Key", "click-42")
	w = testutil.Do(s.r, req)
	require.Equal(t, http.StatusOK, w.Code)
	req = httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "U"))
	req.Header.Set("Idempotency-Key", "click-42")
	w = testutil.Do(s.r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
	testutil.DecodeJSON(t, w, &res)
	assert.True(t, res.IsVoted)
	assert.Equal(t, int64(2), res.VoteCount)

	w = testutil.MakeRequest(s.r, http.MethodPost, "/votes/missing/toggle", nil, token(t, "V"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.clock = s.gate.Deadline.Add(time.Second)
	w = testutil.MakeRequest(s.r, http.MethodPost, path, nil, token(t, "V"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type part struct {
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, field string, parts []part, bearer string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, p.name))
		h.Set("Content-Type", p.contentType)
		pw, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.RemoteAddr = "198.51.100.7:4567"
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req
}

func jpegBytes(t *testing.T, w, h int) []byte {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestUploadEndpoint(t *testing.T) {
	s := newTestServer(t, 100)
	img := jpegBytes(t, 2000, 1000)

	seven := make([]part, 7)
	for i := range seven {
		seven[i] = part{name: fmt.Sprintf("%d.jpg", i), contentType: "image/jpeg", data: img}
	}
	// 数量规则先于身份
	w := testutil.Do(s.r, multipartRequest(t, "files", seven, ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "too_many_files", errorCode(t, w))

	gif := []part{{name: "a.gif", contentType: "image/gif", data: []byte("GIF89a")}}
	w = testutil.Do(s.r, multipartRequest(t, "files", gif, token(t, "owner")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unsupported_type", errorCode(t, w))

	two := []part{
		{name: "one.jpg", contentType: "image/jpeg", data: img},
		{name: "two.jpg", contentType: "image/jpeg", data: img},
	}
	w = testutil.Do(s.r, multipartRequest(t, "files", two, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.Do(s.r, multipartRequest(t, "files", two, token(t, "owner")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.IngestResult
	testutil.DecodeJSON(t, w, &res)
	require.Len(t, res.URLs, 2)
	for _, u := range res.URLs {
		assert.True(t, strings.HasPrefix(u, "http://localhost/media/useful/owner/"), u)
		data, err := afero.ReadFile(s.fs, "media/"+strings.TrimPrefix(u, "http://localhost/media/"))
		require.NoError(t, err)
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 1600, cfg.Width)
	}

	// 单个 file 字段兼容
	w = testutil.Do(s.r, multipartRequest(t, "file", two[:1], token(t, "owner")))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUploadRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	gif := []part{{name: "a.gif", contentType: "image/gif", data: []byte("GIF89a")}}

	for i := 0; i < 2; i++ {
		w := testutil.Do(s.r, multipartRequest(t, "files", gif, ""))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w := testutil.Do(s.r, multipartRequest(t, "files", gif, ""))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	var body response.ErrorBody
	testutil.DecodeJSON(t, w, &body)
	assert.Equal(t, "rate_limited", body.Error)
	assert.Greater(t, body.RetryAfter, 0)

	// 另一个来源地址不受影响
	req := multipartRequest(t, "files", gif, "")
	req.RemoteAddr = "203.0.113.9:1000"
	w = testutil.Do(s.r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedPagesRedirect(t *testing.T) {
	s := newTestServer(t, 100)

	w := testutil.MakeRequest(s.r, http.MethodGet, "/submit", nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/?next=%2Fsubmit", w.Header().Get("Location"))

	w = testutil.MakeRequest(s.r, http.MethodGet, "/inbox?tab=unread", nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/?next=%2Finbox%3Ftab%3Dunread", w.Header().Get("Location"))

	w = testutil.MakeRequest(s.r, http.MethodGet, "/inbox", nil, token(t, "someone"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.MakeRequest(s.r, http.MethodGet, "/works", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionCookieBridging(t *testing.T) {
	s := newTestServer(t, 100)

	w := testutil.MakeRequest(s.r, http.MethodPost, "/auth/session", map[string]any{"accessToken": "garbage", "expiresIn": 3600}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok := token(t, "owner")
	w = testutil.MakeRequest(s.r, http.MethodPost, "/auth/session", map[string]any{"accessToken": tok, "expiresIn": 3600}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "sb-access-token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, tok, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.InDelta(t, 3600, cookie.MaxAge, 5)

	// cookie 与 Bearer 等价
	req := httptest.NewRequest(http.MethodGet, "/submit", nil)
	req.AddCookie(&http.Cookie{Name: "sb-access-token", Value: tok})
	w = testutil.Do(s.r, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.MakeRequest(s.r, http.MethodDelete, "/auth/session", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestReviewAndGallery(t *testing.T) {
	s := newTestServer(t, 100)
	work := s.createWork(t, "author")
	decision := map[string]any{"decision": "approved", "note": "nice"}

	w := testutil.MakeRequest(s.r, http.MethodPost, "/admin/submissions/"+work+"/review", decision, token(t, "author"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.MakeRequest(s.r, http.MethodPost, "/admin/submissions/"+work+"/review", decision, token(t, "reviewer"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.MakeRequest(s.r, http.MethodPost, "/votes/"+work+"/toggle", nil, token(t, "fan"))
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.MakeRequest(s.r, http.MethodGet, "/works", nil, token(t, "fan"))
	require.Equal(t, http.StatusOK, w.Code)
	var gallery struct {
		Works []struct {
			ID        string `json:"id"`
			VoteCount int64  `json:"vote_count"`
			HasVoted  bool   `json:"has_voted"`
		} `json:"works"`
		Closed bool `json:"closed"`
	}
	testutil.DecodeJSON(t, w, &gallery)
	require.Len(t, gallery.Works, 1)
	assert.Equal(t, work, gallery.Works[0].ID)
	assert.Equal(t, int64(1), gallery.Works[0].VoteCount)
	assert.True(t, gallery.Works[0].HasVoted)
	assert.False(t, gallery.Closed)

	w = testutil.MakeRequest(s.r, http.MethodGet, "/notifications", nil, token(t, "author"))
	require.Equal(t, http.StatusOK, w.Code)
	var inbox []map[string]any
	testutil.DecodeJSON(t, w, &inbox)
	require.Len(t, inbox, 2)
	assert.Equal(t, "審核通過", inbox[0]["title"])

	id, _ := inbox[0]["id"].(string)
	w = testutil.MakeRequest(s.r, http.MethodPost, "/notifications/"+id+"/read", nil, token(t, "fan"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = testutil.MakeRequest(s.r, http.MethodPost, "/notifications/"+id+"/read", nil, token(t, "author"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 100)
	w := testutil.MakeRequest(s.r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClosedContestAnswersBeforeIdentity(t *testing.T) {
	s := newTestServer(t, 100)
	work := s.createWork(t, "author")
	s.clock = s.gate.Deadline

	w := testutil.MakeRequest(s.r, http.MethodPost, "/votes/"+work+"/toggle", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "contest_closed", errorCode(t, w))

	w = testutil.MakeRequest(s.r, http.MethodPost, "/submissions", submission("late"), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "contest_closed", errorCode(t, w))

	// 请求体格式错误也不先于截止判断
	req := httptest.NewRequest(http.MethodPut, "/submissions/"+work, strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token(t, "author"))
	w = testutil.Do(s.r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "contest_closed", errorCode(t, w))

	// 读取不受截止影响
	w = testutil.MakeRequest(s.r, http.MethodGet, "/votes/"+work, nil, token(t, "V"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadCountReportedUnderBodyCap(t *testing.T) {
	s := newTestServer(t, 100)
	// 每张都低于单张上限
	big := bytes.Repeat([]byte{0xff}, (49<<20)/10)

	parts := func(n int) []part {
		ps := make([]part, n)
		for i := range ps {
			ps[i] = part{name: fmt.Sprintf("%d.jpg", i), contentType: "image/jpeg", data: big}
		}
		return ps
	}

	w := testutil.Do(s.r, multipartRequest(t, "files", parts(7), token(t, "owner")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "too_many_files", errorCode(t, w))

	w = testutil.Do(s.r, multipartRequest(t, "files", parts(9), token(t, "owner")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "upload_too_large", errorCode(t, w))
}

func TestVoteStateForPendingWork(t *testing.T) {
	s := newTestServer(t, 100)
	work := s.createWork(t, "author")

	w := testutil.MakeRequest(s.r, http.MethodPost, "/votes/"+work+"/toggle", nil, token(t, "V"))
	require.Equal(t, http.StatusOK, w.Code)

	// 作品仍是 pending：作品墙 404，投票状态可读
	w = testutil.MakeRequest(s.r, http.MethodGet, "/works/"+work, nil, token(t, "V"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.MakeRequest(s.r, http.MethodGet, "/votes/"+work, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutil.MakeRequest(s.r, http.MethodGet, "/votes/"+work, nil, token(t, "V"))
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		IsVoted   bool  `json:"isVoted"`
		VoteCount int64 `json:"voteCount"`
	}
	testutil.DecodeJSON(t, w, &res)
	assert.True(t, res.IsVoted)
	assert.Equal(t, int64(1), res.VoteCount)

	w = testutil.MakeRequest(s.r, http.MethodGet, "/votes/missing", nil, token(t, "V"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBoardRefreshAgainstServer(t *testing.T) {
	s := newTestServer(t, 100)
	work := s.createWork(t, "author")
	srv := httptest.NewServer(s.r)
	defer srv.Close()

	b := reconcile.NewBoard(reconcile.NewHTTPToggler(srv.URL, token(t, "V")))
	b.Seed(work, reconcile.VoteState{})

	got, err := b.Toggle(context.Background(), work)
	require.NoError(t, err)
	assert.Equal(t, reconcile.VoteState{HasVoted: true, VoteCount: 1}, got)

	// 另一个投票人的变更通过 Refresh 对齐
	w := testutil.MakeRequest(s.r, http.MethodPost, "/votes/"+work+"/toggle", nil, token(t, "U"))
	require.Equal(t, http.StatusOK, w.Code)

	got, err = b.Refresh(context.Background(), work)
	require.NoError(t, err)
	assert.Equal(t, reconcile.VoteState{HasVoted: true, VoteCount: 2}, got)
	snap, _ := b.Snapshot(work)
	assert.Equal(t, reconcile.PhaseSettled, snap.Phase)
}
