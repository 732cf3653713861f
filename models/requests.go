package models

// Request DTOs for the HTTP transaction gateway. The caller account itself
// arrives in the X-Caller-Address header, resolved by the execution host.

type TransferRequest struct {
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type RewardRequest struct {
	Account string `json:"account"`
	Action  string `json:"action"`
}

type CreateProfileRequest struct {
	Username  string `json:"username"`
	AvatarURI string `json:"avatar_uri"`
}

// UpdateProfileRequest uses pointers so absent fields stay untouched.
type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	Bio       *string `json:"bio"`
	AvatarURI *string `json:"avatar_uri"`
}

type CreatePostRequest struct {
	ContentURI string `json:"content_uri"`
}

type AddCommentRequest struct {
	ContentURI string `json:"content_uri"`
}
