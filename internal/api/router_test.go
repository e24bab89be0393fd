package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teovin/minipost/internal/api"
	"github.com/teovin/minipost/internal/auth"
	"github.com/teovin/minipost/internal/database"
	"github.com/teovin/minipost/internal/services"
)

func newTestServer(t *testing.T, strictOwnership bool) *httptest.Server {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	tokens := auth.NewTokenService([]byte("test-secret"))
	router := api.NewRouter(tokens, services.NewUserService(db), services.NewPostService(db), strictOwnership)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

type apiResponse struct {
	status int
	header http.Header
	body   map[string]any
	raw    string
}

func do(t *testing.T, method, url, token string, payload any) apiResponse {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	out := apiResponse{status: res.StatusCode, header: res.Header, raw: string(raw)}
	var body map[string]any
	if json.Unmarshal(raw, &body) == nil {
		out.body = body
	}
	return out
}

func signup(t *testing.T, srv *httptest.Server, name, password string) {
	t.Helper()
	res := do(t, http.MethodPost, srv.URL+"/users", "", map[string]string{"name": name, "password": password})
	require.Equal(t, http.StatusOK, res.status)
	require.Equal(t, "New user created: "+name+".", res.body["message"])
}

func login(t *testing.T, srv *httptest.Server, name, password string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/users/login", nil)
	require.NoError(t, err)
	req.SetBasicAuth(name, password)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	require.NotEmpty(t, payload["token"])
	return payload["token"]
}

func TestSignupLoginAndUserListing(t *testing.T) {
	srv := newTestServer(t, false)

	signup(t, srv, "alice", "pw1")
	token := login(t, srv, "alice", "pw1")

	res := do(t, http.MethodGet, srv.URL+"/users", token, nil)
	require.Equal(t, http.StatusOK, res.status)

	users, ok := res.body["users"].([]any)
	require.True(t, ok)
	require.Len(t, users, 1)

	record := users[0].(map[string]any)
	assert.Equal(t, "alice", record["name"])
	assert.Equal(t, float64(1), record["id"])
	// The listing exposes the stored password hash, as the original
	// API did.
	assert.NotEmpty(t, record["password"])
	assert.NotEqual(t, "pw1", record["password"])
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t, false)
	signup(t, srv, "alice", "pw1")

	tests := []struct {
		name        string
		setAuth     bool
		user        string
		password    string
		wantMessage string
	}{
		{
			name:        "missing authorization header",
			wantMessage: "Could not verify. No authorization header provided.",
		},
		{
			name:        "unknown user",
			setAuth:     true,
			user:        "ghost",
			password:    "pw",
			wantMessage: "Could not verify. No user found.",
		},
		{
			name:        "wrong password",
			setAuth:     true,
			user:        "alice",
			password:    "wrong",
			wantMessage: "Could not verify, Wrong password for alice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/users/login", nil)
			require.NoError(t, err)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.password)
			}

			res, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
			assert.Equal(t, `Basic realm="Login required!"`, res.Header.Get("WWW-Authenticate"))

			raw, err := io.ReadAll(res.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMessage, strings.TrimSpace(string(raw)))
		})
	}
}

func TestGetUserIsPublic(t *testing.T) {
	srv := newTestServer(t, false)
	signup(t, srv, "alice", "pw1")

	res := do(t, http.MethodGet, srv.URL+"/users/1", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	user, ok := res.body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), user["id"])
	assert.Equal(t, "alice", user["name"])

	res = do(t, http.MethodGet, srv.URL+"/users/999", "", nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "No user found.", res.body["message"])
}

func TestUserEditAndDeleteHaveNoOwnershipCheck(t *testing.T) {
	srv := newTestServer(t, false)
	signup(t, srv, "alice", "pw1")
	signup(t, srv, "bob", "pw2")
	bobToken := login(t, srv, "bob", "pw2")

	// bob can modify and delete alice's account.
	res := do(t, http.MethodPut, srv.URL+"/users/1", bobToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "User alice has been modified.", res.body["message"])

	res = do(t, http.MethodDelete, srv.URL+"/users/1", bobToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "User alice has been deleted.", res.body["message"])

	res = do(t, http.MethodGet, srv.URL+"/users/1", "", nil)
	assert.Equal(t, "No user found.", res.body["message"])

	res = do(t, http.MethodPut, srv.URL+"/users/999", bobToken, nil)
	assert.Equal(t, "No user found with that id.", res.body["message"])
}

func TestStrictOwnershipMode(t *testing.T) {
	srv := newTestServer(t, true)
	signup(t, srv, "alice", "pw1")
	signup(t, srv, "bob", "pw2")
	aliceToken := login(t, srv, "alice", "pw1")
	bobToken := login(t, srv, "bob", "pw2")

	res := do(t, http.MethodPut, srv.URL+"/users/1", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "Forbidden.", res.body["message"])

	res = do(t, http.MethodDelete, srv.URL+"/users/1", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = do(t, http.MethodPut, srv.URL+"/users/1", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "User alice has been modified.", res.body["message"])
}

func TestProtectedRoutesRejectMissingAndInvalidTokens(t *testing.T) {
	srv := newTestServer(t, false)

	for _, path := range []string{"/users", "/myposts", "/allposts", "/myposts/1"} {
		res := do(t, http.MethodGet, srv.URL+path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, res.status, "path %s", path)
		assert.Equal(t, "Token is missing.", res.body["message"], "path %s", path)
	}

	res := do(t, http.MethodGet, srv.URL+"/myposts", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, "Token is invalid.", res.body["message"])
}

func TestPostLifecycleAndOwnershipIsolation(t *testing.T) {
	srv := newTestServer(t, false)
	signup(t, srv, "alice", "pw1")
	signup(t, srv, "bob", "pw2")
	aliceToken := login(t, srv, "alice", "pw1")
	bobToken := login(t, srv, "bob", "pw2")

	res := do(t, http.MethodPost, srv.URL+"/myposts", aliceToken, map[string]string{"title": "hello", "content": "first post"})
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Post successfully created.", res.body["message"])

	// alice sees her post.
	res = do(t, http.MethodGet, srv.URL+"/myposts", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	posts := res.body["posts"].([]any)
	require.Len(t, posts, 1)
	post := posts[0].(map[string]any)
	assert.Equal(t, "hello", post["title"])
	assert.Equal(t, "first post", post["content"])
	assert.Equal(t, float64(1), post["user_id"])

	// bob's scoped listing is empty, but the unscoped one is not.
	res = do(t, http.MethodGet, srv.URL+"/myposts", bobToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Empty(t, res.body["posts"])

	res = do(t, http.MethodGet, srv.URL+"/allposts", bobToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, res.body["posts"], 1)

	// bob cannot fetch, update, or delete alice's post.
	res = do(t, http.MethodGet, srv.URL+"/myposts/1", bobToken, nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "No post found. (Logged in as bob).", res.body["message"])

	res = do(t, http.MethodPut, srv.URL+"/myposts/1", bobToken, nil)
	assert.Equal(t, "No post found.", res.body["message"])

	res = do(t, http.MethodDelete, srv.URL+"/myposts/1", bobToken, nil)
	assert.Equal(t, "No post found.", res.body["message"])

	// alice marks it complete and reads it back flat.
	res = do(t, http.MethodPut, srv.URL+"/myposts/1", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Post has been updated.", res.body["message"])

	res = do(t, http.MethodGet, srv.URL+"/myposts/1", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, float64(1), res.body["id"])
	assert.Equal(t, "hello", res.body["title"])
	assert.Equal(t, "first post", res.body["content"])
	assert.Equal(t, true, res.body["complete"])

	res = do(t, http.MethodDelete, srv.URL+"/myposts/1", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Post deleted!", res.body["message"])

	res = do(t, http.MethodGet, srv.URL+"/myposts", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Empty(t, res.body["posts"])
}

func TestStaleTokenAfterUserDeletion(t *testing.T) {
	srv := newTestServer(t, false)
	signup(t, srv, "alice", "pw1")
	signup(t, srv, "bob", "pw2")
	aliceToken := login(t, srv, "alice", "pw1")

	res := do(t, http.MethodDelete, srv.URL+"/users/1", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "User alice has been deleted.", res.body["message"])

	// The token still verifies; auth-only routes keep working.
	res = do(t, http.MethodGet, srv.URL+"/users", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, res.body["users"], 1)

	res = do(t, http.MethodGet, srv.URL+"/allposts", aliceToken, nil)
	assert.Equal(t, http.StatusOK, res.status)

	// Routes that need the resolved identity surface the failure.
	res = do(t, http.MethodGet, srv.URL+"/myposts", aliceToken, nil)
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.Equal(t, "Internal server error.", res.body["message"])
}
