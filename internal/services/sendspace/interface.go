package sendspace

import "context"

// ClientAPI defines the operations the rest of the app needs from Sendspace.
// It mirrors the concrete client so it can be mocked in tests.
type ClientAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
	CheckSession(ctx context.Context) error
	SetSessionID(ctx context.Context, sessionKey string) error
	Logout(ctx context.Context) error
	SessionKey() string
	GetUploadInfo(ctx context.Context, opts UploadOptions) (*UploadInfo, error)
	UploadFile(ctx context.Context, req UploadRequest) (*UploadResult, error)
}
