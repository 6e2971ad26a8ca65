// Package cloud round-trips backups through a remote provider and tracks the
// sync cadence.
package cloud

import (
	"context"

	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/models"
)

// Account identifies the remote account a provider authorized.
type Account struct {
	UserID string
	Email  string
}

// Provider stores backup files remotely.
type Provider interface {
	Kind() models.CloudProvider
	Authorize(ctx context.Context) (Account, error)
	Upload(ctx context.Context, name string, data []byte) error
	Download(ctx context.Context, name string) ([]byte, error)
}

// NoopProvider stands in for providers that have no client in this build.
// It authorizes a synthetic account, discards uploads and has nothing to download.
type NoopProvider struct {
	kind models.CloudProvider
}

func NewNoopProvider(kind models.CloudProvider) *NoopProvider {
	return &NoopProvider{kind: kind}
}

func (p *NoopProvider) Kind() models.CloudProvider { return p.kind }

func (p *NoopProvider) Authorize(ctx context.Context) (Account, error) {
	return Account{
		UserID: "local-" + string(p.kind),
		Email:  "user@" + string(p.kind) + ".local",
	}, nil
}

func (p *NoopProvider) Upload(ctx context.Context, name string, data []byte) error {
	return nil
}

func (p *NoopProvider) Download(ctx context.Context, name string) ([]byte, error) {
	return nil, apperrors.NotFound("cloud.Download", "remote backup", name)
}
