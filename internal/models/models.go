package models

import "time"

// User is an account. PasswordHash never leaves the server: it has no JSON
// name and the API shapes its own profile payloads.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	ProfilePicture string    `json:"profile_picture"`
	Bio            string    `json:"bio"`
	CreatedAt      time.Time `json:"created_at"`
}

// Video is an uploaded clip. FilePath is where the storage backend put the
// bytes; the bytes themselves are never in the database.
//
// LikesCount is a cached aggregate of the likes table. Only the like store
// writes it, in the same transaction as the like row.
type Video struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	FilePath    string    `json:"file_path"`
	Description string    `json:"description"`
	UploadDate  time.Time `json:"upload_date"`
	LikesCount  int       `json:"likes_count"`
}

// FeedVideo is a Video joined with its author and the viewer's like state.
type FeedVideo struct {
	Video
	Username    string `json:"username"`
	LikedByUser bool   `json:"is_liked_by_current_user"`
}

// Comment is a text comment on a video.
type Comment struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	VideoID     int64     `json:"video_id"`
	Text        string    `json:"text"`
	CommentDate time.Time `json:"comment_date"`
}

// CommentView is a Comment with its author's username.
type CommentView struct {
	Comment
	Username string `json:"username"`
}

// Like is the join row between a user and a video. (UserID, VideoID) is
// unique.
type Like struct {
	ID      int64 `json:"id"`
	UserID  int64 `json:"user_id"`
	VideoID int64 `json:"video_id"`
}

// Message is a direct message. A conversation between A and B is every
// message sent A->B or B->A.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// MessageView carries both participants' usernames so a client can render
// a message without another lookup.
type MessageView struct {
	Message
	SenderUsername   string `json:"sender_username"`
	ReceiverUsername string `json:"receiver_username"`
}

// VideoShare records one video sent from sender to receiver. The same
// video may be shared with the same user more than once.
type VideoShare struct {
	ID         int64     `json:"id"`
	VideoID    int64     `json:"video_id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	ShareDate  time.Time `json:"share_date"`
}
