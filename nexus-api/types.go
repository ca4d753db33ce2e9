package nexusapi

// User as served by the user api.
type User struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Status      string `json:"status"`
}

// Friendship statuses.
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
	FriendStatusBlocked  = "blocked"
)

// Friend is one edge in a user's friend list.
type Friend struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	FriendUserID string `json:"friendUserId"`
	Status       string `json:"status"`
}

// Group as served by the group api. AvatarFilePath is storage-relative; the
// gateway resolves it to a signed URL before returning it to clients.
type Group struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	AvatarFilePath string `json:"avatarFilePath"`
}

// ChannelMessage is one message in a group text channel.
type ChannelMessage struct {
	ID                  string   `json:"id"`
	ChannelID           string   `json:"channelId"`
	SenderUserID        string   `json:"senderUserId"`
	Content             string   `json:"content"`
	CreatedAt           string   `json:"createdAt"`
	Edited              bool     `json:"edited"`
	AttachmentFilePaths []string `json:"attachmentFilePaths"`
}

// Post is one feed channel post.
type Post struct {
	ID                  string   `json:"id"`
	ChannelID           string   `json:"channelId"`
	SenderUserID        string   `json:"senderUserId"`
	Content             string   `json:"content"`
	Upvotes             int32    `json:"upvotes"`
	CommentsCount       int32    `json:"commentsCount"`
	CreatedAt           string   `json:"createdAt"`
	AttachmentFilePaths []string `json:"attachmentFilePaths"`
}

// Comment is one comment on a post. Replies are fetched recursively by the
// group api.
type Comment struct {
	ID                  string    `json:"id"`
	PostID              string    `json:"postId"`
	ParentCommentID     string    `json:"parentCommentId"`
	SenderUserID        string    `json:"senderUserId"`
	Content             string    `json:"content"`
	CreatedAt           string    `json:"createdAt"`
	AttachmentFilePaths []string  `json:"attachmentFilePaths"`
	Replies             []Comment `json:"replies"`
}

// Conversation is a direct-message conversation between participants.
type Conversation struct {
	ID                  string   `json:"id"`
	ParticipantsUserIDs []string `json:"participantsUserIds"`
	CreatedAt           string   `json:"createdAt"`
}

// DirectMessage is one message within a conversation.
type DirectMessage struct {
	ID                  string   `json:"id"`
	ConversationID      string   `json:"conversationId"`
	SenderUserID        string   `json:"senderUserId"`
	Content             string   `json:"content"`
	CreatedAt           string   `json:"createdAt"`
	Edited              bool     `json:"edited"`
	AttachmentFilePaths []string `json:"attachmentFilePaths"`
}
