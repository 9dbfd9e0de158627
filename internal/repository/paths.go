// Package repository provides typed data access over the hierarchical
// store for every entity the engine owns.
package repository

import "ripple/internal/store"

// Collection roots. Entity blobs live one segment below the root; counter
// leaves live one segment below the entity; existence-only edges live in
// their own roots so collection listings never mix blobs and edges.
const (
	PostsRoot         = "posts"
	CommentsRoot      = "comments"
	ProductsRoot      = "products"
	CommunitiesRoot   = "communities"
	VibesRoot         = "vibes"
	ChatsRoot         = "chats"
	MessagesRoot      = "messages"
	NotificationsRoot = "notifications"
	UsersRoot         = "users"

	likeEdgesRoot       = "likes"
	followingRoot       = "following"
	followersRoot       = "followers"
	communityMemberRoot = "communityMembers"
	vibeSeenRoot        = "vibeSeen"
	notificationSeqRoot = "notificationSeq"
)

// edgePresent is the stored value of an existence-only edge.
var edgePresent = []byte("1")

func PostPath(id string) string    { return store.Join(PostsRoot, id) }
func ProductPath(id string) string { return store.Join(ProductsRoot, id) }

// PostCounterPath addresses one numeric engagement field of a post.
func PostCounterPath(id, counter string) string { return store.Join(PostsRoot, id, counter) }

// ProductLikesPath addresses a product's like counter.
func ProductLikesPath(id string) string { return store.Join(ProductsRoot, id, "likes") }

func CommentCollection(postID string) string   { return store.Join(CommentsRoot, postID) }
func CommentPath(postID, id string) string     { return store.Join(CommentsRoot, postID, id) }
func CommentLikesPath(postID, id string) string {
	return store.Join(CommentsRoot, postID, id, "likes")
}

func CommunityPath(id string) string { return store.Join(CommunitiesRoot, id) }

// CommunityMemberCountPath addresses a community's member counter.
func CommunityMemberCountPath(id string) string {
	return store.Join(CommunitiesRoot, id, "memberCount")
}

// CommunityMemberEdge marks userID's membership in community id.
func CommunityMemberEdge(id, userID string) string {
	return store.Join(communityMemberRoot, id, userID)
}

func CommunityMemberCollection(id string) string { return store.Join(communityMemberRoot, id) }

func VibePath(id string) string { return store.Join(VibesRoot, id) }

// VibeSeenEdge marks that viewerID has seen vibe id.
func VibeSeenEdge(id, viewerID string) string { return store.Join(vibeSeenRoot, id, viewerID) }

func VibeSeenCollection(id string) string { return store.Join(vibeSeenRoot, id) }

func ChatPath(id string) string { return store.Join(ChatsRoot, id) }

// ChatUnreadPath addresses one member's unread counter for a chat.
func ChatUnreadPath(chatID, userID string) string {
	return store.Join(ChatsRoot, chatID, "unread", userID)
}

func ChatUnreadCollection(chatID string) string { return store.Join(ChatsRoot, chatID, "unread") }

func MessageCollection(chatID string) string { return store.Join(MessagesRoot, chatID) }
func MessagePath(chatID, id string) string   { return store.Join(MessagesRoot, chatID, id) }

func NotificationCollection(recipientID string) string {
	return store.Join(NotificationsRoot, recipientID)
}
func NotificationPath(recipientID, id string) string {
	return store.Join(NotificationsRoot, recipientID, id)
}

// NotificationSeqPath addresses the per-recipient insertion sequence.
func NotificationSeqPath(recipientID string) string {
	return store.Join(notificationSeqRoot, recipientID)
}

func UserPath(id string) string { return store.Join(UsersRoot, id) }

// LikeEdge marks userID's like on the entity of the given kind.
func LikeEdge(kind, entityID, userID string) string {
	return store.Join(likeEdgesRoot, kind, entityID, userID)
}

func LikeEdgeCollection(kind, entityID string) string {
	return store.Join(likeEdgesRoot, kind, entityID)
}

// FollowingEdge is the forward follow edge a -> b.
func FollowingEdge(a, b string) string { return store.Join(followingRoot, a, b) }

// FollowerEdge is the reverse index b <- a.
func FollowerEdge(b, a string) string { return store.Join(followersRoot, b, a) }

func FollowingCollection(a string) string { return store.Join(followingRoot, a) }
func FollowersCollection(b string) string { return store.Join(followersRoot, b) }
