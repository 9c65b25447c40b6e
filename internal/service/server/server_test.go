package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cryptchat/internal/common"
	"cryptchat/internal/cryptographic/encryption"
	messageRepo "cryptchat/internal/repository/message"
	userRepo "cryptchat/internal/repository/user"
	"cryptchat/internal/service/conversation"
	"cryptchat/internal/service/credential"
	"cryptchat/internal/service/session"
)

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", common.ErrNotFound
	}
	return v, nil
}

func (f *fakeKV) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	users := userRepo.NewMemoryRepo()
	messages := messageRepo.NewMemoryRepo()
	key := common.GenerateRandByteArray(encryption.KeySize)

	srv := NewHttpServer(
		"unused",
		10*time.Millisecond,
		credential.NewService(users),
		conversation.NewService(messages, users, key),
		session.NewService(&fakeKV{data: map[string]string{}}, time.Hour),
	)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, url, token string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func register(t *testing.T, ts *httptest.Server, username, pass string) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/register", "", credentialsRequest{Username: username, Password: pass})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["id"]
}

func login(t *testing.T, ts *httptest.Server, username, pass string) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/login", "", credentialsRequest{Username: username, Password: pass})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["token"]
}

func TestRegisterLoginSendLoad(t *testing.T) {
	ts := newTestServer(t)

	register(t, ts, "alice", "p1")
	bobID := register(t, ts, "bob", "p2")

	aliceToken := login(t, ts, "alice", "p1")
	bobToken := login(t, ts, "bob", "p2")

	// alice -> bob
	resp := postJSON(t, ts.URL+"/messages", aliceToken, sendRequest{To: bobID, Text: "hi"})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var entries []conversation.Entry
	resp = getJSON(t, ts.URL+"/conversations/"+bobID, aliceToken, &entries)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []conversation.Entry{{Sender: "alice", Text: "hi"}}, entries)

	// bob replies and sees both sides in order
	var aliceID string
	var others []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	resp = getJSON(t, ts.URL+"/users", bobToken, &others)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, others, 1)
	aliceID = others[0].ID

	resp = postJSON(t, ts.URL+"/messages", bobToken, sendRequest{To: aliceID, Text: "hello"})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/conversations/"+aliceID, bobToken, &entries)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []conversation.Entry{
		{Sender: "alice", Text: "hi"},
		{Sender: "bob", Text: "hello"},
	}, entries)
}

func TestRegister_Duplicate(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "p1")

	resp := postJSON(t, ts.URL+"/register", "", credentialsRequest{Username: "alice", Password: "p2"})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin_BadCredentials(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "p1")

	resp := postJSON(t, ts.URL+"/login", "", credentialsRequest{Username: "alice", Password: "wrong"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_Required(t *testing.T) {
	ts := newTestServer(t)

	resp := getJSON(t, ts.URL+"/users", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/users", "bogus-token", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSend_EmptyMessage(t *testing.T) {
	ts := newTestServer(t)
	bobID := register(t, ts, "bob", "p2")
	register(t, ts, "alice", "p1")
	token := login(t, ts, "alice", "p1")

	resp := postJSON(t, ts.URL+"/messages", token, sendRequest{To: bobID, Text: "   "})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSend_UnknownRecipient(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "p1")
	token := login(t, ts, "alice", "p1")

	resp := postJSON(t, ts.URL+"/messages", token, sendRequest{To: primitive.NewObjectID().Hex(), Text: "hi"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/messages", token, sendRequest{To: "not-an-id", Text: "hi"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogout_RevokesToken(t *testing.T) {
	ts := newTestServer(t)
	register(t, ts, "alice", "p1")
	token := login(t, ts, "alice", "p1")

	resp := postJSON(t, ts.URL+"/logout", token, struct{}{})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/users", token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWatch_PushesUpdates(t *testing.T) {
	ts := newTestServer(t)

	register(t, ts, "alice", "p1")
	bobID := register(t, ts, "bob", "p2")
	token := login(t, ts, "alice", "p1")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/conversations/" + bobID + "/watch?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	sendResp := postJSON(t, ts.URL+"/messages", token, sendRequest{To: bobID, Text: "hi"})
	sendResp.Body.Close()
	require.Equal(t, http.StatusNoContent, sendResp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var entries []conversation.Entry
		require.NoError(t, conn.ReadJSON(&entries))
		if len(entries) == 1 {
			assert.Equal(t, conversation.Entry{Sender: "alice", Text: "hi"}, entries[0])
			return
		}
	}
}
