package common

type SessionState uint

const (
	CreateNoteView SessionState = iota
	ListNotesView
	CreateUserView
	UpdateNoteList
	FollowUserView        // New: Follow remote users
	FollowersView         // New: View followers/following
	FederatedTimelineView // New: View federated posts
	FollowingView         // View accounts you follow, local and remote
	LocalTimelineView     // Server-wide feed of local notes
	LocalUsersView        // Browse and follow other local users
	AdminView             // Moderation panel (mute/kick local users)
	DeleteAccountView     // Confirm and perform account deletion
)
