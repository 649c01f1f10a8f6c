package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Helllokittti/tiktok-prototip/internal/auth"
	"github.com/Helllokittti/tiktok-prototip/internal/events"
	"github.com/Helllokittti/tiktok-prototip/internal/models"
	"github.com/Helllokittti/tiktok-prototip/internal/repository"
)

// memDB is one in-memory database behind every fake repository, so
// handlers that touch several repositories see a consistent world.
type memDB struct {
	mu       sync.Mutex
	clock    time.Time
	users    []*models.User
	videos   []*models.Video
	comments []*models.Comment
	likes    map[[2]int64]bool
	messages []*models.Message
	shares   []*models.VideoShare

	// videoErr, when set, fails every video insert.
	videoErr error
}

func newMemDB() *memDB {
	return &memDB{
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		likes: make(map[[2]int64]bool),
	}
}

// tick returns strictly increasing timestamps.
func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *memDB) userLocked(id int64) *models.User {
	for _, u := range db.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (db *memDB) videoLocked(id int64) *models.Video {
	for _, v := range db.videos {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func (db *memDB) usernameLocked(id int64) string {
	if u := db.userLocked(id); u != nil {
		return u.Username
	}
	return "Unknown"
}

func (db *memDB) likeRows(videoID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for k := range db.likes {
		if k[1] == videoID {
			n++
		}
	}
	return n
}

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, username, email, hash string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == username {
			return nil, repository.ErrUsernameTaken
		}
		if u.Email == email {
			return nil, repository.ErrEmailTaken
		}
	}
	u := &models.User{
		ID:             int64(len(r.db.users) + 1),
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		ProfilePicture: "default_profile.png",
		CreatedAt:      r.db.tick(),
	}
	r.db.users = append(r.db.users, u)
	cp := *u
	return &cp, nil
}

func (r memUsers) find(match func(*models.User) bool) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r memUsers) GetByUsername(_ context.Context, name string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == name })
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r memUsers) UpdateBio(_ context.Context, id int64, bio string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u := r.db.userLocked(id)
	if u == nil {
		return nil, repository.ErrNotFound
	}
	u.Bio = bio
	cp := *u
	return &cp, nil
}

func (r memUsers) ListExcept(_ context.Context, id int64) ([]models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.User, 0)
	for _, u := range r.db.users {
		if u.ID != id {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

type memVideos struct{ db *memDB }

func (r memVideos) Create(_ context.Context, userID int64, filePath, description string) (*models.Video, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.videoErr != nil {
		return nil, r.db.videoErr
	}
	if r.db.userLocked(userID) == nil {
		return nil, repository.ErrNotFound
	}
	v := &models.Video{
		ID:          int64(len(r.db.videos) + 1),
		UserID:      userID,
		FilePath:    filePath,
		Description: description,
		UploadDate:  r.db.tick(),
	}
	r.db.videos = append(r.db.videos, v)
	cp := *v
	return &cp, nil
}

func (r memVideos) GetByID(_ context.Context, id int64) (*models.Video, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if v := r.db.videoLocked(id); v != nil {
		cp := *v
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r memVideos) Count(context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.videos), nil
}

func (r memVideos) ListFeed(_ context.Context, viewerID int64, offset, limit int) ([]models.FeedVideo, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.FeedVideo, 0)
	for i := len(r.db.videos) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		v := r.db.videos[i]
		out = append(out, models.FeedVideo{
			Video:       *v,
			Username:    r.db.usernameLocked(v.UserID),
			LikedByUser: r.db.likes[[2]int64{viewerID, v.ID}],
		})
	}
	return out, nil
}

type memComments struct{ db *memDB }

func (r memComments) Create(_ context.Context, userID, videoID int64, text string) (*models.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.videoLocked(videoID) == nil {
		return nil, repository.ErrNotFound
	}
	cm := &models.Comment{
		ID:          int64(len(r.db.comments) + 1),
		UserID:      userID,
		VideoID:     videoID,
		Text:        text,
		CommentDate: r.db.tick(),
	}
	r.db.comments = append(r.db.comments, cm)
	cp := *cm
	return &cp, nil
}

func (r memComments) ListByVideo(_ context.Context, videoID int64) ([]models.CommentView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.CommentView, 0)
	for _, cm := range r.db.comments {
		if cm.VideoID == videoID {
			out = append(out, models.CommentView{Comment: *cm, Username: r.db.usernameLocked(cm.UserID)})
		}
	}
	return out, nil
}

type memLikes struct{ db *memDB }

func (r memLikes) Like(_ context.Context, userID, videoID int64) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v := r.db.videoLocked(videoID)
	if v == nil {
		return 0, repository.ErrNotFound
	}
	key := [2]int64{userID, videoID}
	if r.db.likes[key] {
		return 0, repository.ErrAlreadyLiked
	}
	r.db.likes[key] = true
	v.LikesCount++
	return v.LikesCount, nil
}

func (r memLikes) Unlike(_ context.Context, userID, videoID int64) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	v := r.db.videoLocked(videoID)
	if v == nil {
		return 0, repository.ErrNotFound
	}
	key := [2]int64{userID, videoID}
	if !r.db.likes[key] {
		return 0, repository.ErrNotLiked
	}
	delete(r.db.likes, key)
	if v.LikesCount > 0 {
		v.LikesCount--
	}
	return v.LikesCount, nil
}

type memMessages struct{ db *memDB }

func (r memMessages) Create(_ context.Context, senderID, receiverID int64, text string) (*models.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.userLocked(senderID) == nil || r.db.userLocked(receiverID) == nil {
		return nil, repository.ErrNotFound
	}
	m := &models.Message{
		ID:         int64(len(r.db.messages) + 1),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Timestamp:  r.db.tick(),
	}
	r.db.messages = append(r.db.messages, m)
	cp := *m
	return &cp, nil
}

func (r memMessages) ListConversation(_ context.Context, a, b int64) ([]models.MessageView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.MessageView, 0)
	for _, m := range r.db.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, models.MessageView{
				Message:          *m,
				SenderUsername:   r.db.usernameLocked(m.SenderID),
				ReceiverUsername: r.db.usernameLocked(m.ReceiverID),
			})
		}
	}
	return out, nil
}

type memShares struct{ db *memDB }

func (r memShares) Create(_ context.Context, videoID, senderID, receiverID int64) (*models.VideoShare, error) {
	if senderID == receiverID {
		return nil, repository.ErrSelfShare
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.videoLocked(videoID) == nil || r.db.userLocked(receiverID) == nil {
		return nil, repository.ErrNotFound
	}
	s := &models.VideoShare{
		ID:         int64(len(r.db.shares) + 1),
		VideoID:    videoID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		ShareDate:  r.db.tick(),
	}
	r.db.shares = append(r.db.shares, s)
	cp := *s
	return &cp, nil
}

// memStorage keeps uploaded bytes by name.
type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (s *memStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = b
	return name, nil
}

func (s *memStorage) Remove(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, name)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type okPinger struct{ err error }

func (p okPinger) Health(context.Context) error { return p.err }

// testServer wires the real router to the in-memory world.
type testServer struct {
	t       *testing.T
	db      *memDB
	router  *gin.Engine
	codec   *auth.Codec
	storage *memStorage
	events  *recordingPublisher
}

const testMaxUpload = 1 << 20

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newMemDB()
	ts := &testServer{
		t:       t,
		db:      db,
		codec:   auth.NewCodec("test-secret", 24*time.Hour),
		storage: &memStorage{files: make(map[string][]byte)},
		events:  &recordingPublisher{},
	}
	ts.router = NewRouter(Deps{
		Users:          memUsers{db},
		Videos:         memVideos{db},
		Comments:       memComments{db},
		Likes:          memLikes{db},
		Messages:       memMessages{db},
		Shares:         memShares{db},
		Tokens:         ts.codec,
		Storage:        ts.storage,
		Events:         ts.events,
		DB:             okPinger{},
		MaxUploadBytes: testMaxUpload,
		Logger:         zap.NewNop(),
	})
	return ts
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatalf("encode body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// signup registers a user through the API and returns its id and token.
func (ts *testServer) signup(username string) (int64, string) {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/api/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "pw-" + username,
	})
	if w.Code != http.StatusCreated {
		ts.t.Fatalf("register %s: %d %s", username, w.Code, w.Body.String())
	}
	w = ts.do(http.MethodPost, "/api/login", "", gin.H{
		"username": username,
		"password": "pw-" + username,
	})
	if w.Code != http.StatusOK {
		ts.t.Fatalf("login %s: %d %s", username, w.Code, w.Body.String())
	}
	var resp struct {
		Token string      `json:"token"`
		User  userSummary `json:"user"`
	}
	decodeInto(ts.t, w, &resp)
	return resp.User.ID, resp.Token
}

// seedVideo adds a video directly, skipping the multipart upload.
func (ts *testServer) seedVideo(ownerID int64, path string) int64 {
	ts.t.Helper()
	v, err := memVideos{ts.db}.Create(context.Background(), ownerID, path, "")
	if err != nil {
		ts.t.Fatalf("seed video: %v", err)
	}
	return v.ID
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func bodyMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decodeInto(t, w, &body)
	return body.Message
}
