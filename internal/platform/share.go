// Package platform adapts desktop facilities (clipboard, interactive prompts)
// to the backup manager's sharing and file picking hooks.
package platform

import (
	"context"

	"github.com/atotto/clipboard"

	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/logger"
)

// ClipboardSharer shares a backup by copying its JSON to the system clipboard.
type ClipboardSharer struct {
	write       func(string) error
	unsupported bool
}

func NewClipboardSharer() *ClipboardSharer {
	return &ClipboardSharer{
		write:       clipboard.WriteAll,
		unsupported: clipboard.Unsupported,
	}
}

func (s *ClipboardSharer) CanShare() bool {
	return !s.unsupported
}

func (s *ClipboardSharer) Share(ctx context.Context, path string, data []byte) error {
	if s.unsupported {
		return apperrors.New(apperrors.ErrSharingUnavailable, "platform.Share", "clipboard is not supported on this system")
	}
	if err := s.write(string(data)); err != nil {
		return apperrors.Wrap(apperrors.ErrSharingUnavailable, "platform.Share", "failed to copy backup to clipboard", err)
	}
	logger.Debug("Backup copied to clipboard", "file", path, "bytes", len(data))
	return nil
}
