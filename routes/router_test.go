package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cppla/autoblog/config"
	"github.com/cppla/autoblog/services"
	"github.com/cppla/autoblog/store/storetest"
	"github.com/cppla/autoblog/tasks"
	"github.com/cppla/autoblog/utils"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	runner *tasks.MemoryRunner
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, delayUnit time.Duration) *testServer {
	t.Helper()
	utils.SetRedis(nil)
	st := storetest.Open(t)

	tokens, err := utils.NewTokenManager("router-test-secret")
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	gate := services.NewAuthGate(st, tokens, utils.BcryptHasher{Cost: bcrypt.MinCost}, 15*time.Minute)
	runner := tasks.NewMemoryRunner(nil)
	autoreply := services.NewAutoreplyScheduler(st, st, runner, nil)
	autoreply.DelayUnit = delayUnit

	cfg := config.AppConfig{GinMode: "test", RateLimitPerMinute: 1000, AllowedOrigins: []string{"*"}}
	engine := SetupRouter(cfg, Dependencies{
		Store:     st,
		Gate:      gate,
		Autoreply: autoreply,
		Reporter:  services.NewBreakdownReporter(st, nil),
		Moderator: services.NewWordListModerator([]string{"spam"}),
		AccessLog: zap.NewNop(),
	})
	return &testServer{t: t, engine: engine, runner: runner}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		s.t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func (s *testServer) mustDo(method, path, token string, body interface{}, wantStatus int, out interface{}) {
	s.t.Helper()
	status, env := s.do(method, path, token, body)
	if status != wantStatus {
		s.t.Fatalf("%s %s: expected %d, got %d (%s)", method, path, wantStatus, status, env.Message)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			s.t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
}

type userView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Active   bool   `json:"active"`
}

type postView struct {
	ID             uint   `json:"id"`
	OwnerID        uint   `json:"owner_id"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	Autoreply      bool   `json:"autoreply"`
	AutoreplyDelay int    `json:"autoreply_delay"`
	AutoreplyMsg   string `json:"autoreply_msg"`
}

type commentView struct {
	ID        uint   `json:"id"`
	PostID    uint   `json:"post_id"`
	AuthorID  uint   `json:"author_id"`
	Content   string `json:"content"`
	IsBlocked bool   `json:"is_blocked"`
}

// signup registers name and returns its id and a bearer token.
func (s *testServer) signup(name string) (uint, string) {
	s.t.Helper()
	var reg struct {
		User userView `json:"user"`
	}
	s.mustDo(http.MethodPost, "/users/", "", gin.H{
		"username": name, "email": name + "@example.com", "password": name + "-pw",
	}, http.StatusCreated, &reg)

	var tok services.Token
	s.mustDo(http.MethodPost, "/login/", "", gin.H{
		"email": name + "@example.com", "password": name + "-pw",
	}, http.StatusOK, &tok)
	if tok.TokenType != "bearer" || tok.AccessToken == "" {
		s.t.Fatalf("unexpected token %+v", tok)
	}
	return reg.User.ID, tok.AccessToken
}

func (s *testServer) createPost(token string, body gin.H) postView {
	s.t.Helper()
	var out struct {
		Post postView `json:"post"`
	}
	s.mustDo(http.MethodPost, "/posts/", token, body, http.StatusCreated, &out)
	return out.Post
}

func (s *testServer) createComment(token string, postID uint, content string) commentView {
	s.t.Helper()
	var out struct {
		Comment commentView `json:"comment"`
	}
	s.mustDo(http.MethodPost, "/comments/", token, gin.H{"content": content, "post_id": postID}, http.StatusCreated, &out)
	return out.Comment
}

func (s *testServer) listComments(token string, postID uint) []commentView {
	s.t.Helper()
	var out struct {
		Items []commentView `json:"items"`
	}
	s.mustDo(http.MethodGet, fmt.Sprintf("/comments/?post_id=%d", postID), token, nil, http.StatusOK, &out)
	return out.Items
}

func TestAutoreplyScenario(t *testing.T) {
	s := newTestServer(t, 20*time.Millisecond)
	aliceID, token := s.signup("alice")

	post := s.createPost(token, gin.H{
		"title": "T", "content": "body", "autoreply": true, "autoreply_delay": 1, "autoreply_msg": "thanks",
	})
	if post.OwnerID != aliceID || !post.Autoreply || post.AutoreplyDelay != 1 {
		t.Fatalf("unexpected post %+v", post)
	}

	first := s.createComment(token, post.ID, "hi")
	if first.AuthorID != aliceID || first.IsBlocked {
		t.Fatalf("unexpected comment %+v", first)
	}
	s.runner.Wait()

	comments := s.listComments(token, post.ID)
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %+v", comments)
	}
	if comments[0].Content != "hi" {
		t.Fatalf("expected the original comment first, got %+v", comments[0])
	}
	if comments[1].AuthorID != aliceID || comments[1].Content != "thanks" {
		t.Fatalf("expected alice's autoreply, got %+v", comments[1])
	}
}

func TestAutoreplySkippedWhenPostDeleted(t *testing.T) {
	s := newTestServer(t, 300*time.Millisecond)
	_, token := s.signup("alice")
	post := s.createPost(token, gin.H{
		"title": "T", "content": "body", "autoreply": true, "autoreply_delay": 1, "autoreply_msg": "thanks",
	})
	s.createComment(token, post.ID, "hi")
	s.mustDo(http.MethodDelete, fmt.Sprintf("/posts/%d", post.ID), token, nil, http.StatusOK, nil)
	s.runner.Wait()

	comments := s.listComments(token, post.ID)
	if len(comments) != 1 || comments[0].Content != "hi" {
		t.Fatalf("expected only the original comment, got %+v", comments)
	}
}

func TestCommentOnPostWithoutAutoreply(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	_, alice := s.signup("alice")
	bobID, bob := s.signup("bob")
	post := s.createPost(alice, gin.H{"title": "T", "content": "body"})

	c := s.createComment(bob, post.ID, "buy SPAM now")
	if !c.IsBlocked || c.AuthorID != bobID {
		t.Fatalf("expected a blocked comment by bob, got %+v", c)
	}
	if s.runner.Pending() != 0 {
		t.Fatalf("no autoreply expected")
	}

	status, _ := s.do(http.MethodPost, "/comments/", bob, gin.H{"content": "x", "post_id": 9999})
	if status != http.StatusNotFound {
		t.Fatalf("comment on a missing post: expected 404, got %d", status)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	aliceID, alice := s.signup("alice")
	bobID, bob := s.signup("bob")
	post := s.createPost(alice, gin.H{"title": "mine", "content": "body"})
	comment := s.createComment(alice, post.ID, "alice's comment")

	postPath := fmt.Sprintf("/posts/%d", post.ID)
	commentPath := fmt.Sprintf("/comments/%d", comment.ID)
	for _, tc := range []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, postPath, nil},
		{http.MethodPut, postPath, gin.H{"title": "stolen"}},
		{http.MethodDelete, postPath, nil},
		{http.MethodGet, commentPath, nil},
		{http.MethodPut, fmt.Sprintf("%s?post_id=%d&author_id=%d", commentPath, post.ID, bobID), gin.H{"content": "x"}},
		{http.MethodPut, fmt.Sprintf("%s?post_id=%d&author_id=%d", commentPath, post.ID, aliceID), gin.H{"content": "x"}},
		{http.MethodDelete, commentPath, nil},
		{http.MethodPut, fmt.Sprintf("/users/%d", aliceID), gin.H{"username": "mallory"}},
		{http.MethodDelete, fmt.Sprintf("/users/%d", aliceID), gin.H{"password": "bob-pw"}},
	} {
		if status, _ := s.do(tc.method, tc.path, bob, tc.body); status != http.StatusNotFound {
			t.Fatalf("%s %s as bob: expected 404, got %d", tc.method, tc.path, status)
		}
	}

	var listed struct {
		Items []postView `json:"items"`
	}
	s.mustDo(http.MethodGet, "/posts/", bob, nil, http.StatusOK, &listed)
	if len(listed.Items) != 0 {
		t.Fatalf("bob should not see alice's posts: %+v", listed.Items)
	}

	var still struct {
		Post postView `json:"post"`
	}
	s.mustDo(http.MethodGet, postPath, alice, nil, http.StatusOK, &still)
	if still.Post.Title != "mine" {
		t.Fatalf("alice's post was modified: %+v", still.Post)
	}
}

func TestPartialUpdates(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	aliceID, alice := s.signup("alice")
	post := s.createPost(alice, gin.H{"title": "T", "content": "C", "autoreply": true, "autoreply_delay": 3, "autoreply_msg": "m"})
	postPath := fmt.Sprintf("/posts/%d", post.ID)

	var got struct {
		Post postView `json:"post"`
	}
	s.mustDo(http.MethodPut, postPath, alice, gin.H{}, http.StatusOK, &got)
	if got.Post != post {
		t.Fatalf("empty update changed the post: %+v vs %+v", got.Post, post)
	}
	s.mustDo(http.MethodPut, postPath, alice, nil, http.StatusOK, &got)
	if got.Post != post {
		t.Fatalf("update without body changed the post: %+v vs %+v", got.Post, post)
	}

	s.mustDo(http.MethodPut, postPath, alice, gin.H{"title": "T2", "autoreply": false}, http.StatusOK, &got)
	want := post
	want.Title, want.Autoreply = "T2", false
	if got.Post != want {
		t.Fatalf("partial update: got %+v, want %+v", got.Post, want)
	}
	if status, _ := s.do(http.MethodPut, postPath, alice, gin.H{"autoreply_delay": -1}); status != http.StatusBadRequest {
		t.Fatalf("negative delay: expected 400, got %d", status)
	}

	comment := s.createComment(alice, post.ID, "first")
	commentPath := fmt.Sprintf("/comments/%d?post_id=%d&author_id=%d", comment.ID, post.ID, aliceID)
	var gotComment struct {
		Comment commentView `json:"comment"`
	}
	s.mustDo(http.MethodPut, commentPath, alice, gin.H{}, http.StatusOK, &gotComment)
	if gotComment.Comment != comment {
		t.Fatalf("empty update changed the comment: %+v", gotComment.Comment)
	}
	s.mustDo(http.MethodPut, commentPath, alice, gin.H{"content": "spam!"}, http.StatusOK, &gotComment)
	if gotComment.Comment.Content != "spam!" || !gotComment.Comment.IsBlocked {
		t.Fatalf("edited comment should be re-moderated: %+v", gotComment.Comment)
	}
	if status, _ := s.do(http.MethodPut, fmt.Sprintf("/comments/%d", comment.ID), alice, gin.H{"content": "x"}); status != http.StatusBadRequest {
		t.Fatalf("missing filters: expected 400, got %d", status)
	}
}

func TestUserLifecycle(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	aliceID, token := s.signup("alice")

	if status, env := s.do(http.MethodPost, "/users/", "", gin.H{
		"username": "alice", "email": "other@example.com", "password": "x",
	}); status != http.StatusBadRequest {
		t.Fatalf("duplicate username: expected 400, got %d (%s)", status, env.Message)
	}
	if status, _ := s.do(http.MethodPost, "/login/", "", gin.H{"email": "alice@example.com", "password": "nope"}); status != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", status)
	}

	var profile struct {
		User userView `json:"user"`
	}
	s.mustDo(http.MethodGet, fmt.Sprintf("/users/%d", aliceID), "", nil, http.StatusOK, &profile)
	if profile.User.Username != "alice" || !profile.User.Active {
		t.Fatalf("unexpected profile %+v", profile.User)
	}
	if status, _ := s.do(http.MethodGet, "/users/999", "", nil); status != http.StatusNotFound {
		t.Fatalf("missing user: expected 404, got %d", status)
	}

	userPath := fmt.Sprintf("/users/%d", aliceID)
	if status, _ := s.do(http.MethodPut, userPath, token, gin.H{"password": "new-pw"}); status != http.StatusBadRequest {
		t.Fatalf("password change without current_password: expected 400, got %d", status)
	}
	if status, _ := s.do(http.MethodPut, userPath, token, gin.H{"password": "new-pw", "current_password": "wrong"}); status != http.StatusBadRequest {
		t.Fatalf("password change with wrong current_password: expected 400, got %d", status)
	}
	s.mustDo(http.MethodPut, userPath, token, gin.H{"password": "new-pw", "current_password": "alice-pw"}, http.StatusOK, nil)
	s.mustDo(http.MethodPost, "/login/", "", gin.H{"email": "alice@example.com", "password": "new-pw"}, http.StatusOK, nil)

	if status, _ := s.do(http.MethodDelete, userPath, token, gin.H{"password": "alice-pw"}); status != http.StatusBadRequest {
		t.Fatalf("delete with wrong password: expected 400, got %d", status)
	}
	s.mustDo(http.MethodDelete, userPath, token, gin.H{"password": "new-pw"}, http.StatusOK, nil)
	if status, _ := s.do(http.MethodGet, "/posts/", token, nil); status != http.StatusUnauthorized {
		t.Fatalf("token of a deleted user: expected 401, got %d", status)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	_, token := s.signup("alice")
	s.mustDo(http.MethodGet, "/posts/", token, nil, http.StatusOK, nil)
	s.mustDo(http.MethodPost, "/logout/", token, nil, http.StatusOK, nil)
	if status, _ := s.do(http.MethodGet, "/posts/", token, nil); status != http.StatusUnauthorized {
		t.Fatalf("revoked token: expected 401, got %d", status)
	}
}

func TestLoginAfterLogoutGetsUsableToken(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	_, first := s.signup("alice")
	s.mustDo(http.MethodPost, "/logout/", first, nil, http.StatusOK, nil)

	var tok services.Token
	s.mustDo(http.MethodPost, "/login/", "", gin.H{
		"email": "alice@example.com", "password": "alice-pw",
	}, http.StatusOK, &tok)
	if tok.AccessToken == first {
		t.Fatal("login after logout returned the revoked token")
	}
	s.mustDo(http.MethodGet, "/posts/", tok.AccessToken, nil, http.StatusOK, nil)
}

func TestOverlongPasswordsRejected(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	long := strings.Repeat("p", 80)
	if status, env := s.do(http.MethodPost, "/users/", "", gin.H{
		"username": "bob", "email": "bob@example.com", "password": long,
	}); status != http.StatusBadRequest {
		t.Fatalf("register with 80-byte password: expected 400, got %d (%s)", status, env.Message)
	}
	// 25 runes, 75 bytes
	if status, _ := s.do(http.MethodPost, "/users/", "", gin.H{
		"username": "bob", "email": "bob@example.com", "password": strings.Repeat("密", 25),
	}); status != http.StatusBadRequest {
		t.Fatalf("register with multibyte overlong password: expected 400, got %d", status)
	}

	aliceID, token := s.signup("alice")
	if status, env := s.do(http.MethodPut, fmt.Sprintf("/users/%d", aliceID), token, gin.H{
		"password": long, "current_password": "alice-pw",
	}); status != http.StatusBadRequest {
		t.Fatalf("update to 80-byte password: expected 400, got %d (%s)", status, env.Message)
	}
	s.mustDo(http.MethodPost, "/login/", "", gin.H{"email": "alice@example.com", "password": "alice-pw"}, http.StatusOK, nil)
}

func TestRenameReissuesToken(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	aliceID, old := s.signup("alice")

	var out struct {
		User  userView       `json:"user"`
		Token services.Token `json:"token"`
	}
	s.mustDo(http.MethodPut, fmt.Sprintf("/users/%d", aliceID), old, gin.H{"username": "alicia"}, http.StatusOK, &out)
	if out.User.Username != "alicia" || out.Token.AccessToken == "" {
		t.Fatalf("unexpected rename response %+v", out)
	}
	if status, _ := s.do(http.MethodGet, "/posts/", old, nil); status != http.StatusUnauthorized {
		t.Fatalf("token issued before rename: expected 401, got %d", status)
	}
	s.mustDo(http.MethodGet, "/posts/", out.Token.AccessToken, nil, http.StatusOK, nil)

	// a later account reusing the old name must not inherit the old token
	s.signup("alice")
	if status, _ := s.do(http.MethodGet, "/posts/", old, nil); status != http.StatusUnauthorized {
		t.Fatalf("old token after name reuse: expected 401, got %d", status)
	}

	var plain struct {
		Token *services.Token `json:"token"`
	}
	s.mustDo(http.MethodPut, fmt.Sprintf("/users/%d", aliceID), out.Token.AccessToken, gin.H{"email": "alicia@example.com"}, http.StatusOK, &plain)
	if plain.Token != nil {
		t.Fatal("email-only update should not reissue a token")
	}
	s.mustDo(http.MethodGet, "/posts/", out.Token.AccessToken, nil, http.StatusOK, nil)
}

func TestBreakdownEndpoint(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	_, alice := s.signup("alice")
	post := s.createPost(alice, gin.H{"title": "T", "content": "C"})
	s.createComment(alice, post.ID, "ok")
	s.createComment(alice, post.ID, "spam")

	today := time.Now().UTC().Format("2006-01-02")
	var out struct {
		Items []struct {
			Date            string `json:"date"`
			TotalComments   int    `json:"total_comments"`
			BlockedComments int    `json:"blocked_comments"`
		} `json:"items"`
	}
	s.mustDo(http.MethodGet, "/breakdown/?date_from="+today+"&date_to="+today, "", nil, http.StatusOK, &out)
	if len(out.Items) != 1 || out.Items[0].TotalComments != 2 || out.Items[0].BlockedComments != 1 {
		t.Fatalf("unexpected breakdown %+v", out.Items)
	}

	if status, _ := s.do(http.MethodGet, "/breakdown/?date_from=2024-13-40&date_to=2024-12-31", "", nil); status != http.StatusBadRequest {
		t.Fatalf("invalid date: expected 400, got %d", status)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, time.Millisecond)
	for _, path := range []string{"/posts/", "/comments/?post_id=1"} {
		if status, _ := s.do(http.MethodGet, path, "", nil); status != http.StatusUnauthorized {
			t.Fatalf("%s without token: expected 401, got %d", path, status)
		}
	}
	if status, _ := s.do(http.MethodGet, "/nope", "", nil); status != http.StatusNotFound {
		t.Fatalf("unknown route: expected 404, got %d", status)
	}
	s.mustDo(http.MethodGet, "/health", "", nil, http.StatusOK, nil)
}
