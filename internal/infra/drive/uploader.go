package drive

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"signbot/internal/domain"
	"signbot/internal/infra/logging"
)

// Scope limits the bot to files it created itself.
const Scope = drive.DriveFileScope

// Options selects the target folder and the credential kind. A service
// account JSON takes precedence over user OAuth refresh-token credentials.
type Options struct {
	FolderID           string
	ServiceAccountJSON string
	ClientID           string
	ClientSecret       string
	RefreshToken       string
}

// Uploader stores files in a single Drive folder. The Drive client is built on
// first use and cached; a failed build is retried on the next call.
type Uploader struct {
	opts Options

	mu         sync.Mutex
	svc        *drive.Service
	newService func(ctx context.Context) (*drive.Service, error)
}

// New creates an uploader. No network calls are made until Upload.
func New(opts Options) *Uploader {
	u := &Uploader{opts: opts}
	u.newService = u.buildService
	return u
}

// Configured reports whether a folder and credentials are present.
func (u *Uploader) Configured() bool {
	if u.opts.FolderID == "" {
		return false
	}
	return u.opts.ServiceAccountJSON != "" || u.opts.RefreshToken != ""
}

func (u *Uploader) buildService(ctx context.Context) (*drive.Service, error) {
	ts, err := u.tokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return drive.NewService(ctx, option.WithTokenSource(ts))
}

func (u *Uploader) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if u.opts.ServiceAccountJSON != "" {
		conf, err := google.JWTConfigFromJSON([]byte(u.opts.ServiceAccountJSON), Scope)
		if err != nil {
			return nil, fmt.Errorf("parse service account json: %w", err)
		}
		return conf.TokenSource(ctx), nil
	}
	if u.opts.RefreshToken != "" {
		conf := &oauth2.Config{
			ClientID:     u.opts.ClientID,
			ClientSecret: u.opts.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{Scope},
		}
		return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: u.opts.RefreshToken}), nil
	}
	return nil, domain.ErrDriveNotConfigured
}

func (u *Uploader) service() (*drive.Service, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.svc != nil {
		return u.svc, nil
	}
	// The client outlives the request that triggered its creation.
	svc, err := u.newService(context.Background())
	if err != nil {
		return nil, err
	}
	u.svc = svc
	return u.svc, nil
}

// Upload creates name in the configured folder and returns the new file id.
func (u *Uploader) Upload(ctx context.Context, name string, content []byte) (string, error) {
	if u.opts.FolderID == "" {
		return "", fmt.Errorf("%w: folder id is not set", domain.ErrDriveNotConfigured)
	}
	svc, err := u.service()
	if err != nil {
		return "", fmt.Errorf("init drive client: %w", err)
	}

	meta := &drive.File{
		Name:    name,
		Parents: []string{u.opts.FolderID},
	}
	created, err := svc.Files.Create(meta).
		Media(bytes.NewReader(content),
			googleapi.ContentType("application/octet-stream"),
			googleapi.ChunkSize(0),
		).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create drive file: %w", err)
	}

	logging.Info("Uploaded file to Drive", "id", created.Id, "name", name)
	return created.Id, nil
}
