package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"todolist/internal/config"
	"todolist/internal/domain/todo"
	"todolist/internal/repository/memory"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "tr0ub4dor&3"

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{AppName: "todolist", Environment: "test", HTTPPort: "8080"},
		Database: config.DatabaseConfig{
			Driver: config.DriverMemory,
		},
		Session: config.SessionConfig{
			Secret:     "test-secret",
			TTL:        time.Hour,
			CookieName: "todolist_session",
			BcryptCost: bcrypt.MinCost,
		},
	}
}

func newTestApp(t *testing.T) (*App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	c := Wire(testConfig(), zap.NewNop(), MemoryRepositories(store), nil)
	return New(c), store
}

// browser keeps cookies between requests the way a user agent would.
type browser struct {
	t       *testing.T
	app     *App
	cookies map[string]string
}

func newBrowser(t *testing.T, a *App) *browser {
	return &browser{t: t, app: a, cookies: map[string]string{}}
}

func (b *browser) do(method, path string, form url.Values) (*http.Response, string) {
	b.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := b.app.Fiber.Test(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	for _, ck := range resp.Cookies() {
		expired := ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now()))
		if ck.Value == "" || expired {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck.Value
	}

	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(raw)
}

func (b *browser) get(path string) (*http.Response, string) {
	return b.do(fiber.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	if form == nil {
		form = url.Values{}
	}
	return b.do(fiber.MethodPost, path, form)
}

func (b *browser) register(username string) {
	b.t.Helper()
	resp, body := b.post("/accounts/register/", url.Values{
		"username":  {username},
		"email":     {username + "@example.com"},
		"password1": {testPassword},
		"password2": {testPassword},
	})
	require.Equal(b.t, fiber.StatusFound, resp.StatusCode, body)
	require.Equal(b.t, "/todos/", resp.Header.Get(fiber.HeaderLocation))
}

func (b *browser) createTodo(title, description string) {
	b.t.Helper()
	resp, body := b.post("/todos/new/", url.Values{"title": {title}, "description": {description}})
	require.Equal(b.t, fiber.StatusFound, resp.StatusCode, body)
}

func onlyTodo(t *testing.T, store *memory.Store, username string) todo.Todo {
	t.Helper()
	u, err := store.GetUserByUsername(context.Background(), username)
	require.NoError(t, err)
	items, err := store.ListTodosByOwner(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	return items[0]
}

func TestRootRedirectsToList(t *testing.T) {
	a, _ := newTestApp(t)
	resp, _ := newBrowser(t, a).get("/")

	assert.Equal(t, fiber.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/todos/", resp.Header.Get(fiber.HeaderLocation))
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)

	for _, path := range []string{"/todos/", "/todos/new/", "/profile/", "/admin/todos/"} {
		resp, _ := b.get(path)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/accounts/login/?next="+url.QueryEscape(path), resp.Header.Get(fiber.HeaderLocation), path)
	}
}

func TestTodoLifecycle(t *testing.T) {
	a, store := newTestApp(t)
	b := newBrowser(t, a)
	b.register("alice")

	resp, body := b.get("/todos/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No TODO items yet.")

	b.createTodo("A", "")
	item := onlyTodo(t, store, "alice")
	assert.Equal(t, "A", item.Title)
	assert.False(t, item.Completed)
	assert.False(t, item.CreatedAt.IsZero())

	resp, body = b.get("/todos/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/todos/"+item.ID.String()+"/")

	resp, _ = b.post("/todos/"+item.ID.String()+"/edit/", url.Values{"title": {"A"}, "completed": {"on"}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/todos/", resp.Header.Get(fiber.HeaderLocation))

	resp, body = b.get("/todos/" + item.ID.String() + "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<dd>Yes</dd>")
	updated := onlyTodo(t, store, "alice")
	assert.Equal(t, "A", updated.Title)
	assert.True(t, updated.Completed)

	resp, body = b.get("/todos/" + item.ID.String() + "/delete/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Are you sure")

	resp, _ = b.post("/todos/"+item.ID.String()+"/delete/", nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	_, body = b.get("/todos/")
	assert.Contains(t, body, "No TODO items yet.")
	resp, _ = b.get("/todos/" + item.ID.String() + "/")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateRoundTrip(t *testing.T) {
	a, store := newTestApp(t)
	b := newBrowser(t, a)
	b.register("alice")
	b.createTodo("Buy milk", "2%")

	item := onlyTodo(t, store, "alice")
	assert.Equal(t, "Buy milk", item.Title)
	assert.Equal(t, "2%", item.Description)
	assert.False(t, item.Completed)

	_, body := b.get("/todos/")
	assert.Contains(t, body, "Buy milk")
}

func TestStoredValuesSurviveLaterRequests(t *testing.T) {
	a, store := newTestApp(t)
	alice := newBrowser(t, a)
	alice.register("alice")
	alice.createTodo("Buy milk", "2%")

	newBrowser(t, a).register("bobbybob")
	newBrowser(t, a).register("carlcarl")

	u, err := store.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	item := onlyTodo(t, store, "alice")
	assert.Equal(t, "Buy milk", item.Title)
	assert.Equal(t, "2%", item.Description)
	assert.Equal(t, u.ID, item.OwnerID)

	_, body := alice.get("/todos/")
	assert.Contains(t, body, "Buy milk")
}

func TestCreateValidationRerenders(t *testing.T) {
	a, store := newTestApp(t)
	b := newBrowser(t, a)
	b.register("alice")

	resp, body := b.post("/todos/new/", url.Values{"title": {"   "}, "description": {"kept"}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, "kept")

	u, err := store.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	items, err := store.ListTodosByOwner(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOwnerCannotBeSetFromInput(t *testing.T) {
	a, store := newTestApp(t)
	bob := newBrowser(t, a)
	bob.register("bob")
	alice := newBrowser(t, a)
	alice.register("alice")

	bobUser, err := store.GetUserByUsername(context.Background(), "bob")
	require.NoError(t, err)

	resp, _ := alice.post("/todos/new/", url.Values{"title": {"mine"}, "user": {bobUser.ID.String()}, "owner_id": {bobUser.ID.String()}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	item := onlyTodo(t, store, "alice")
	resp, _ = alice.post("/todos/"+item.ID.String()+"/edit/", url.Values{"title": {"mine"}, "user": {bobUser.ID.String()}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	assert.Equal(t, item.OwnerID, onlyTodo(t, store, "alice").OwnerID)
}

func TestCrossUserAccessIsForbidden(t *testing.T) {
	a, store := newTestApp(t)
	alice := newBrowser(t, a)
	alice.register("alice")
	alice.createTodo("secret plan", "hidden details")
	item := onlyTodo(t, store, "alice")

	bob := newBrowser(t, a)
	bob.register("bob")
	base := "/todos/" + item.ID.String()

	cases := []struct {
		method string
		path   string
		msg    string
	}{
		{fiber.MethodGet, base + "/", "You don&#39;t have permission to view this TODO item."},
		{fiber.MethodGet, base + "/edit/", "You don&#39;t have permission to edit this TODO item."},
		{fiber.MethodPost, base + "/edit/", "You don&#39;t have permission to edit this TODO item."},
		{fiber.MethodGet, base + "/delete/", "You don&#39;t have permission to delete this TODO item."},
		{fiber.MethodPost, base + "/delete/", "You don&#39;t have permission to delete this TODO item."},
	}
	for _, tc := range cases {
		var form url.Values
		if tc.method == fiber.MethodPost {
			form = url.Values{"title": {"pwned"}, "completed": {"on"}}
		}
		resp, body := bob.do(tc.method, tc.path, form)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "%s %s", tc.method, tc.path)
		assert.Contains(t, body, tc.msg)
		assert.NotContains(t, body, "hidden details")
	}

	after := onlyTodo(t, store, "alice")
	assert.Equal(t, "secret plan", after.Title)
	assert.False(t, after.Completed)
}

func TestUnknownAndMalformedIDsAreNotFound(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.register("alice")

	for _, path := range []string{
		"/todos/" + uuid.NewString() + "/",
		"/todos/" + uuid.NewString() + "/edit/",
		"/todos/" + uuid.NewString() + "/delete/",
		"/todos/not-a-uuid/",
	} {
		resp, _ := b.get(path)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, path)
	}
}

func TestRegistrationValidation(t *testing.T) {
	a, store := newTestApp(t)
	b := newBrowser(t, a)

	resp, body := b.post("/accounts/register/", url.Values{
		"username":  {"alice"},
		"email":     {"not-an-email"},
		"password1": {"12345678"},
		"password2": {"12345678"},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Enter a valid email address.")
	assert.Contains(t, body, "This password is entirely numeric.")
	assert.Empty(t, b.cookies)

	exists, err := store.ExistsByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, exists)

	b.register("alice")
	other := newBrowser(t, a)
	resp, body = other.post("/accounts/register/", url.Values{
		"username":  {"alice"},
		"email":     {"alice2@example.com"},
		"password1": {testPassword},
		"password2": {testPassword},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "A user with that username already exists.")
}

func TestLoginAndLogout(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.register("alice")

	resp, _ := b.get("/accounts/logout/")
	assert.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)
	resp, _ = b.get("/todos/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "a GET must not end the session")

	resp, _ = b.post("/accounts/logout/", nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/accounts/login/", resp.Header.Get(fiber.HeaderLocation))
	assert.Empty(t, b.cookies)

	resp, _ = b.get("/todos/")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	resp, body := b.post("/accounts/login/", url.Values{"username": {"alice"}, "password": {"wrong-password"}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Please enter a correct username and password.")

	resp, _ = b.post("/accounts/login/", url.Values{"username": {"alice"}, "password": {testPassword}, "next": {"/profile/"}})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/", resp.Header.Get(fiber.HeaderLocation))

	resp, _ = b.get("/todos/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLoginRejectsOffsiteNext(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.register("alice")
	b.post("/accounts/logout/", nil)

	for _, next := range []string{"//evil.example", "https://evil.example/", `/\evil.example`} {
		resp, _ := b.post("/accounts/login/", url.Values{"username": {"alice"}, "password": {testPassword}, "next": {next}})
		require.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/todos/", resp.Header.Get(fiber.HeaderLocation), next)
	}
}

func TestProfileUpdate(t *testing.T) {
	a, store := newTestApp(t)
	b := newBrowser(t, a)
	b.register("alice")
	u, err := store.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)

	resp, _ := b.get("/profile/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	_, ok := store.Profile(u.ID)
	assert.True(t, ok, "viewing the profile creates it")

	resp, _ = b.post("/profile/", url.Values{
		"first_name": {"Alice"},
		"last_name":  {"Liddell"},
		"email":      {"alice@wonder.land"},
		"bio":        {"curious"},
		"location":   {"Oxford"},
		"birth_date": {"1852-05-04"},
	})
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/", resp.Header.Get(fiber.HeaderLocation))

	_, body := b.get("/profile/")
	assert.Contains(t, body, "Your profile was successfully updated!")
	assert.Contains(t, body, `value="Oxford"`)
	assert.Contains(t, body, `value="1852-05-04"`)

	_, body = b.get("/profile/")
	assert.NotContains(t, body, "Your profile was successfully updated!")
}

func TestProfileUpdateIsAtomic(t *testing.T) {
	a, store := newTestApp(t)
	b := newBrowser(t, a)
	b.register("alice")

	resp, body := b.post("/profile/", url.Values{
		"first_name": {"Alice"},
		"last_name":  {"Liddell"},
		"email":      {"alice@wonder.land"},
		"location":   {strings.Repeat("x", 101)},
		"birth_date": {"yesterday"},
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Please correct the error below.")
	assert.Contains(t, body, "Enter a valid date.")
	assert.Contains(t, body, "Ensure this value has at most 100 characters")

	u, err := store.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, u.FirstName)
	assert.Equal(t, "alice@example.com", u.Email)
	p, _ := store.Profile(u.ID)
	assert.Empty(t, p.Location)
}

func TestAdminListingRequiresStaff(t *testing.T) {
	a, store := newTestApp(t)
	alice := newBrowser(t, a)
	alice.register("alice")
	alice.createTodo("Water plants", "")

	resp, _ := alice.get("/admin/todos/")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	op := newBrowser(t, a)
	op.register("operator")
	_, err := a.Container.Auth.GrantStaff(context.Background(), "operator", true)
	require.NoError(t, err)

	resp, body := op.get("/admin/todos/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Water plants")
	assert.Contains(t, body, "alice")

	_, body = op.get("/admin/todos/?completed=yes")
	assert.NotContains(t, body, "Water plants")

	_, body = op.get("/admin/todos/?q=PLANTS&created=today")
	assert.Contains(t, body, "Water plants")

	item := onlyTodo(t, store, "alice")
	resp, _ = op.get("/todos/" + item.ID.String() + "/")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "staff do not bypass ownership")
}

func TestHealthAndMetrics(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)

	resp, body := b.get("/health")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":200,"message":"ok","data":{"database":"up"}}`, body)

	b.register("alice")
	b.createTodo("A", "")

	resp, body = b.get("/metrics")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "todos_created_total 1")
	assert.Contains(t, body, "users_registered_total 1")
	assert.Contains(t, body, `route="/todos/new/"`)
}

func TestNotFoundPage(t *testing.T) {
	a, _ := newTestApp(t)
	resp, body := newBrowser(t, a).get("/nowhere")

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "404 Not Found")
}

func TestListenAddr(t *testing.T) {
	addr, err := ListenAddr("8080")
	require.NoError(t, err)
	assert.Equal(t, ":8080", addr)

	addr, err = ListenAddr(":9090")
	require.NoError(t, err)
	assert.Equal(t, ":9090", addr)

	_, err = ListenAddr(" ")
	assert.Error(t, err)
}
