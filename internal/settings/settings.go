// Package settings stores device preferences next to the habit document.
package settings

import (
	"context"
	"strconv"
	"time"

	"github.com/julianstephens/stronghabit/internal/constants"
	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/models"
	"github.com/julianstephens/stronghabit/internal/storage"
	"github.com/julianstephens/stronghabit/internal/utils"
)

// Service reads and writes settings through the key-value adapter.
type Service struct {
	kv storage.KV
}

func NewService(kv storage.KV) *Service {
	return &Service{kv: kv}
}

// TimezoneOffset returns the stored offset in minutes east of UTC.
// ok is false when no offset has been set.
func (s *Service) TimezoneOffset(ctx context.Context) (offset int, ok bool, err error) {
	raw, found, err := s.kv.Get(ctx, constants.StorageKeyTimezoneOffset)
	if err != nil {
		return 0, false, apperrors.Storage("settings.TimezoneOffset", err)
	}
	if !found || raw == "" {
		return 0, false, nil
	}
	offset, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, apperrors.Wrap(apperrors.ErrStorageRead, "settings.TimezoneOffset", "stored offset is not a number", err)
	}
	return offset, true, nil
}

// SetTimezoneOffset stores offset; nil clears it so the system zone is used.
func (s *Service) SetTimezoneOffset(ctx context.Context, offset *int) error {
	var err error
	if offset == nil {
		err = s.kv.Remove(ctx, constants.StorageKeyTimezoneOffset)
	} else {
		if *offset < -14*60 || *offset > 14*60 {
			return apperrors.Validation("settings.SetTimezoneOffset", "offset %d is outside -840..840 minutes", *offset)
		}
		err = s.kv.Set(ctx, constants.StorageKeyTimezoneOffset, strconv.Itoa(*offset))
	}
	if err != nil {
		return apperrors.Storage("settings.SetTimezoneOffset", err)
	}
	return nil
}

// Location resolves the zone used for "today": a fixed zone when an offset
// is stored, time.Local otherwise.
func (s *Service) Location(ctx context.Context) (*time.Location, error) {
	offset, ok, err := s.TimezoneOffset(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return time.Local, nil
	}
	return utils.FixedZone(offset), nil
}

// NotificationsEnabled defaults to true when unset.
func (s *Service) NotificationsEnabled(ctx context.Context) (bool, error) {
	raw, found, err := s.kv.Get(ctx, constants.StorageKeyNotificationsEnabled)
	if err != nil {
		return false, apperrors.Storage("settings.NotificationsEnabled", err)
	}
	if !found {
		return true, nil
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return true, nil
	}
	return enabled, nil
}

func (s *Service) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	if err := s.kv.Set(ctx, constants.StorageKeyNotificationsEnabled, strconv.FormatBool(enabled)); err != nil {
		return apperrors.Storage("settings.SetNotificationsEnabled", err)
	}
	return nil
}

// Get returns all settings as one value.
func (s *Service) Get(ctx context.Context) (models.Settings, error) {
	var out models.Settings
	offset, ok, err := s.TimezoneOffset(ctx)
	if err != nil {
		return out, err
	}
	if ok {
		out.TimezoneOffsetMinutes = &offset
	}
	out.NotificationsEnabled, err = s.NotificationsEnabled(ctx)
	return out, err
}
