package routes

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/utils"
)

func TestMain(m *testing.M) {
	utils.PBKDF2Iterations = 1000
	os.Exit(m.Run())
}

type testApp struct {
	srv *httptest.Server
	db  *gorm.DB
}

func newTestApp(t *testing.T, policy string) *testApp {
	t.Helper()
	return newTestAppWithRedis(t, policy, nil)
}

// newTestAppWithRedis keeps sessions in rc when it is not nil.
func newTestAppWithRedis(t *testing.T, policy string, rc *redis.Client) *testApp {
	t.Helper()
	cfg := config.AppConfig{
		SecretKey:            "test-secret-key",
		DatabaseURL:          filepath.Join(t.TempDir(), "blog.db"),
		GinMode:              "test",
		RateLimitPerMinute:   1000,
		AllowedOrigins:       []string{"*"},
		SessionName:          "blog_session",
		SessionMaxAgeMinutes: 60,
		CommentDeletePolicy:  policy,
		LogLevel:             "silent",
	}
	db, err := config.InitDatabase(cfg, models.All()...)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r, err := SetupRouter(db, rc, cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testApp{srv: srv, db: db}
}

// client returns a browser-like client that keeps cookies and does not follow redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (int, string) {
	t.Helper()
	resp, err := c.Get(a.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// post submits a form and returns the status code and the redirect target, if any.
func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := c.PostForm(a.srv.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, resp.Header.Get("Location")
}

func (a *testApp) register(t *testing.T, c *http.Client, email, name string) {
	t.Helper()
	status, location := a.post(t, c, "/register", url.Values{"email": {email}, "password": {"pw-" + name}, "name": {name}})
	require.Equal(t, http.StatusFound, status)
	require.Equal(t, "/", location)
}

func (a *testApp) createPost(t *testing.T, c *http.Client, title string) *models.BlogPost {
	t.Helper()
	status, location := a.post(t, c, "/new-post", url.Values{
		"title":    {title},
		"subtitle": {"A subtitle"},
		"img_url":  {"https://example.com/cover.jpg"},
		"body":     {"<p>Some body</p>"},
	})
	require.Equal(t, http.StatusFound, status)
	require.Equal(t, "/", location)

	var post models.BlogPost
	require.NoError(t, a.db.Where("title = ?", title).First(&post).Error)
	return &post
}

func (a *testApp) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.Model(model).Count(&n).Error)
	return n
}

func TestRegisterLogsInFirstUserAsAdmin(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	alice := app.client(t)

	app.register(t, alice, "alice@example.com", "Alice")

	status, body := app.get(t, alice, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Log Out")
	assert.Contains(t, body, "Create New Post")

	var user models.User
	require.NoError(t, app.db.Where("email = ?", "alice@example.com").First(&user).Error)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, strings.HasPrefix(user.Password, "pbkdf2:sha256:"))
}

func TestDuplicateRegistrationRedirectsToLogin(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	app.register(t, app.client(t), "alice@example.com", "Alice")

	other := app.client(t)
	status, location := app.post(t, other, "/register", url.Values{"email": {"alice@example.com"}, "password": {"x"}, "name": {"Again"}})
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "/login", location)

	_, body := app.get(t, other, "/login")
	assert.Contains(t, body, "An account with this email already exists")
	assert.EqualValues(t, 1, app.count(t, &models.User{}))
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	c := app.client(t)

	resp, err := c.PostForm(app.srv.URL+"/register", url.Values{"email": {"bad"}, "password": {"x"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid email address.")
	assert.Contains(t, string(body), "This field is required.")
	assert.EqualValues(t, 0, app.count(t, &models.User{}))
}

func TestLogin(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	app.register(t, app.client(t), "alice@example.com", "Alice")
	c := app.client(t)

	status, location := app.post(t, c, "/login", url.Values{"email": {"nobody@example.com"}, "password": {"pw"}})
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "/login", location)
	_, body := app.get(t, c, "/login")
	assert.Contains(t, body, "An account with this email does not exist.")

	status, location = app.post(t, c, "/login", url.Values{"email": {"alice@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "/login", location)
	_, body = app.get(t, c, "/login")
	assert.Contains(t, body, "Password incorrect, please try again.")
	assert.NotContains(t, body, "Log Out")

	status, location = app.post(t, c, "/login", url.Values{"email": {"Alice@Example.com"}, "password": {"pw-Alice"}})
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "/", location)
	_, body = app.get(t, c, "/")
	assert.Contains(t, body, "You have logged in.")
	assert.Contains(t, body, "Log Out")

	// flashes are shown once
	_, body = app.get(t, c, "/")
	assert.NotContains(t, body, "You have logged in.")
}

func TestLogout(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	c := app.client(t)
	app.register(t, c, "alice@example.com", "Alice")

	resp, err := c.Get(app.srv.URL + "/logout")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := app.get(t, c, "/")
	assert.Contains(t, body, "You have been logged out.")
	assert.Contains(t, body, `href="/login"`)
	assert.NotContains(t, body, "Log Out")

	status, _ := app.get(t, c, "/new-post")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAdminRoutesRefuseOthers(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	admin := app.client(t)
	app.register(t, admin, "admin@example.com", "Admin")
	post := app.createPost(t, admin, "Guarded")

	reader := app.client(t)
	app.register(t, reader, "reader@example.com", "Reader")
	anonymous := app.client(t)

	for _, c := range []*http.Client{reader, anonymous} {
		for _, path := range []string{"/new-post", "/edit-post/" + itoa(post.ID), "/delete/" + itoa(post.ID)} {
			status, body := app.get(t, c, path)
			assert.Equal(t, http.StatusForbidden, status, path)
			assert.Contains(t, body, "You do not have permission")
		}
		status, _ := app.post(t, c, "/new-post", url.Values{"title": {"Sneaky"}, "subtitle": {"s"}, "img_url": {"https://example.com"}, "body": {"b"}})
		assert.Equal(t, http.StatusForbidden, status)
		status, _ = app.post(t, c, "/edit-post/"+itoa(post.ID), url.Values{"title": {"Defaced"}, "subtitle": {"s"}, "img_url": {"https://example.com"}, "body": {"b"}})
		assert.Equal(t, http.StatusForbidden, status)
	}

	assert.EqualValues(t, 1, app.count(t, &models.BlogPost{}))
	var reloaded models.BlogPost
	require.NoError(t, app.db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "Guarded", reloaded.Title)
}

func TestCreateAndShowPost(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	admin := app.client(t)
	app.register(t, admin, "admin@example.com", "Admin")

	before := time.Now().Format(models.DateLayout)
	post := app.createPost(t, admin, "First Post")
	after := time.Now().Format(models.DateLayout)
	assert.Contains(t, []string{before, after}, post.Date)

	_, body := app.get(t, app.client(t), "/")
	assert.Contains(t, body, "First Post")
	assert.Contains(t, body, "Posted by Admin")

	status, body := app.get(t, app.client(t), "/post/"+itoa(post.ID))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<p>Some body</p>")
	assert.NotContains(t, body, "Edit Post")

	_, body = app.get(t, admin, "/post/"+itoa(post.ID))
	assert.Contains(t, body, "Edit Post")
}

func TestCreatePostValidation(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	admin := app.client(t)
	app.register(t, admin, "admin@example.com", "Admin")

	status, _ := app.post(t, admin, "/new-post", url.Values{"title": {"No image"}, "subtitle": {"s"}, "img_url": {"not a url"}, "body": {"b"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.EqualValues(t, 0, app.count(t, &models.BlogPost{}))

	app.createPost(t, admin, "Taken")
	status, _ = app.post(t, admin, "/new-post", url.Values{"title": {"Taken"}, "subtitle": {"s"}, "img_url": {"https://example.com"}, "body": {"b"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.EqualValues(t, 1, app.count(t, &models.BlogPost{}))
}

func TestEditPost(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	admin := app.client(t)
	app.register(t, admin, "admin@example.com", "Admin")
	post := app.createPost(t, admin, "Before")

	status, body := app.get(t, admin, "/edit-post/"+itoa(post.ID))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `value="Before"`)

	status, location := app.post(t, admin, "/edit-post/"+itoa(post.ID), url.Values{
		"title":    {"After"},
		"subtitle": {"Changed"},
		"img_url":  {"https://example.com/new.jpg"},
		"body":     {"<p>Rewritten</p>"},
	})
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "/post/"+itoa(post.ID), location)

	var reloaded models.BlogPost
	require.NoError(t, app.db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "After", reloaded.Title)
	assert.Equal(t, "Changed", reloaded.Subtitle)
	assert.Equal(t, "<p>Rewritten</p>", reloaded.Body)
	assert.Equal(t, post.Date, reloaded.Date)
	assert.Equal(t, post.AuthorID, reloaded.AuthorID)
	assert.EqualValues(t, 1, app.count(t, &models.BlogPost{}))
}

func TestComments(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	admin := app.client(t)
	app.register(t, admin, "admin@example.com", "Admin")
	post := app.createPost(t, admin, "Open for comments")
	path := "/post/" + itoa(post.ID)

	anonymous := app.client(t)
	status, location := app.post(t, anonymous, path, url.Values{"comment": {"drive-by"}})
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "/login", location)
	_, body := app.get(t, anonymous, "/login")
	assert.Contains(t, body, "You need to login or register to comment.")
	assert.EqualValues(t, 0, app.count(t, &models.Comment{}))

	reader := app.client(t)
	app.register(t, reader, "reader@example.com", "Reader")
	status, location = app.post(t, reader, path, url.Values{"comment": {"Great read"}})
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, path, location)

	_, body = app.get(t, anonymous, path)
	assert.Contains(t, body, "Great read")
	assert.Contains(t, body, "Reader")
	avatar, _, _ := strings.Cut(utils.Gravatar("reader@example.com"), "?")
	assert.Contains(t, body, avatar)

	status, _ = app.post(t, reader, path, url.Values{"comment": {""}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.EqualValues(t, 1, app.count(t, &models.Comment{}))
}

func TestMarkupOnlyInputIsRequiredFieldError(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	admin := app.client(t)
	app.register(t, admin, "admin@example.com", "Admin")

	resp, err := admin.PostForm(app.srv.URL+"/new-post", url.Values{
		"title":    {"Scripted"},
		"subtitle": {"s"},
		"img_url":  {"https://example.com/a.jpg"},
		"body":     {"<script>x</script>"},
	})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "This field is required.")
	assert.EqualValues(t, 0, app.count(t, &models.BlogPost{}))

	post := app.createPost(t, admin, "Real post")
	path := "/post/" + itoa(post.ID)

	resp, err = admin.PostForm(app.srv.URL+path, url.Values{"comment": {"<script>alert(1)</script>"}})
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "This field is required.")
	assert.EqualValues(t, 0, app.count(t, &models.Comment{}))

	status, _ := app.post(t, admin, "/edit-post/"+itoa(post.ID), url.Values{
		"title":    {"Real post"},
		"subtitle": {"s"},
		"img_url":  {"https://example.com/a.jpg"},
		"body":     {"<script>x</script>"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	var reloaded models.BlogPost
	require.NoError(t, app.db.First(&reloaded, post.ID).Error)
	assert.Equal(t, "<p>Some body</p>", reloaded.Body)
}

func TestDeletePost(t *testing.T) {
	tests := []struct {
		policy       string
		wantLocation string
		postsLeft    int64
		commentsLeft int64
	}{
		{config.CommentPolicyCascade, "/", 0, 0},
		{config.CommentPolicyKeep, "/", 0, 1},
		{config.CommentPolicyRestrict, "/post/1", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			app := newTestApp(t, tt.policy)
			admin := app.client(t)
			app.register(t, admin, "admin@example.com", "Admin")
			post := app.createPost(t, admin, "Short lived")
			require.EqualValues(t, 1, post.ID)
			status, _ := app.post(t, admin, "/post/1", url.Values{"comment": {"bye"}})
			require.Equal(t, http.StatusFound, status)

			resp, err := admin.Get(app.srv.URL + "/delete/1")
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.wantLocation, resp.Header.Get("Location"))

			assert.Equal(t, tt.postsLeft, app.count(t, &models.BlogPost{}))
			assert.Equal(t, tt.commentsLeft, app.count(t, &models.Comment{}))
		})
	}
}

func TestRedisBackedSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	app := newTestAppWithRedis(t, config.CommentPolicyCascade, rc)
	alice := app.client(t)

	app.register(t, alice, "alice@example.com", "Alice")
	status, body := app.get(t, alice, "/")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Log Out")
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "session:"))

	status, location := app.post(t, alice, "/login", url.Values{"email": {"alice@example.com"}, "password": {"pw-Alice"}})
	require.Equal(t, http.StatusFound, status)
	require.Equal(t, "/", location)
	renewed := mr.Keys()
	require.Len(t, renewed, 1)
	assert.NotEqual(t, keys[0], renewed[0])

	status, location = app.post(t, alice, "/login", url.Values{"email": {"alice@example.com"}, "password": {"wrong"}})
	require.Equal(t, http.StatusFound, status)
	require.Equal(t, "/login", location)
	_, body = app.get(t, alice, "/login")
	assert.Contains(t, body, "Password incorrect, please try again.")

	status, _ = app.get(t, alice, "/logout")
	require.Equal(t, http.StatusFound, status)
	_, body = app.get(t, alice, "/")
	assert.Contains(t, body, "Login")
	assert.NotContains(t, body, "Log Out")
}

func TestNotFound(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	admin := app.client(t)
	app.register(t, admin, "admin@example.com", "Admin")

	for _, path := range []string{"/post/999", "/post/abc", "/edit-post/999", "/delete/999", "/no-such-page"} {
		status, body := app.get(t, admin, path)
		assert.Equal(t, http.StatusNotFound, status, path)
		assert.Contains(t, body, "does not exist", path)
	}

	status, _ := app.post(t, app.client(t), "/post/999", url.Values{"comment": {"hello"}})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeletedAccountEndsSession(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	c := app.client(t)
	app.register(t, c, "alice@example.com", "Alice")

	require.NoError(t, app.db.Where("email = ?", "alice@example.com").Delete(&models.User{}).Error)

	status, body := app.get(t, c, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "Log Out")
}

func TestStaticPages(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	c := app.client(t)

	for _, path := range []string{"/", "/about", "/contact", "/register", "/login", "/static/css/styles.css"} {
		status, _ := app.get(t, c, path)
		assert.Equal(t, http.StatusOK, status, path)
	}

	status, body := app.get(t, c, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"status":"ok"}}`, body)
}

func TestPageViewsAreCounted(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)
	c := app.client(t)

	app.get(t, c, "/about")
	app.get(t, c, "/about")
	app.get(t, c, "/post/42")
	app.get(t, c, "/health")

	assert.Eventually(t, func() bool {
		var pv models.PageView
		if err := app.db.Where("path = ?", "/about").First(&pv).Error; err != nil {
			return false
		}
		return pv.Views == 2
	}, 2*time.Second, 20*time.Millisecond)

	var others int64
	require.NoError(t, app.db.Model(&models.PageView{}).Where("path <> ?", "/about").Count(&others).Error)
	assert.Zero(t, others)
}

func TestCORSAndRequestID(t *testing.T) {
	app := newTestApp(t, config.CommentPolicyCascade)

	req, err := http.NewRequest(http.MethodGet, app.srv.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://elsewhere.example")
	resp, err := app.client(t).Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
