package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/stronghabit/internal/calendar"
	apperrors "github.com/julianstephens/stronghabit/internal/errors"
	"github.com/julianstephens/stronghabit/internal/habits"
	"github.com/julianstephens/stronghabit/internal/models"
	"github.com/julianstephens/stronghabit/internal/storage"
)

type testEnv struct {
	mgr   *Manager
	store *habits.Store
	files *OSFileStore
	clock *calendar.FixedClock
	kv    *storage.MemoryStore
}

func setupManager(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	kv := storage.NewMemoryStore()
	clock := calendar.NewFixedClock(time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	store := habits.NewStore(kv, habits.WithClock(clock))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	files := NewOSFileStore(filepath.Join(t.TempDir(), "backups"))
	opts = append([]Option{WithClock(clock), WithAppVersion("1.2.3")}, opts...)
	return &testEnv{
		mgr:   NewManager(kv, files, store, opts...),
		store: store,
		files: files,
		clock: clock,
		kv:    kv,
	}
}

func (e *testEnv) addHabits(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		h, err := e.store.AddHabit(context.Background(), models.HabitInput{Name: name, Frequency: models.FrequencyDaily})
		if err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
		if err := e.store.UpdateHabitCompletion(context.Background(), h.ID, "2024-01-03", true); err != nil {
			t.Fatalf("UpdateHabitCompletion failed: %v", err)
		}
	}
}

func TestCreateBackupWithLabel(t *testing.T) {
	env := setupManager(t)
	env.addHabits(t, "Read", "Run")

	meta, err := env.mgr.CreateBackup(context.Background(), "My Report")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if !strings.Contains(meta.FileName, "My-Report") {
		t.Errorf("file name %q does not contain My-Report", meta.FileName)
	}
	if meta.HabitCount != 2 {
		t.Errorf("HabitCount = %d, want 2", meta.HabitCount)
	}
	if meta.ID != "1704283200000" {
		t.Errorf("ID = %q, want unix millis of export time", meta.ID)
	}
	if meta.Size <= 0 {
		t.Errorf("Size = %d", meta.Size)
	}
	if _, err := os.Stat(env.files.Path(meta.FileName)); err != nil {
		t.Errorf("backup file not written: %v", err)
	}
}

func TestBackupFileName(t *testing.T) {
	at := time.Date(2024, 1, 3, 12, 4, 5, 678000000, time.UTC)
	tests := []struct {
		label string
		want  string
	}{
		{label: "", want: "stronghabit-backup-2024-01-03T12-04-05-678Z.json"},
		{label: "auto", want: "auto-2024-01-03T12-04-05-678Z.json"},
		{label: "My Report", want: "My-Report-2024-01-03T12-04-05-678Z.json"},
		{label: "  weekly   review! ", want: "weekly-review-2024-01-03T12-04-05-678Z.json"},
		{label: "../../etc", want: "etc-2024-01-03T12-04-05-678Z.json"},
		{label: "!!!", want: "stronghabit-backup-2024-01-03T12-04-05-678Z.json"},
	}

	for _, tt := range tests {
		if got := backupFileName(tt.label, at); got != tt.want {
			t.Errorf("backupFileName(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestCreateBackupWithoutData(t *testing.T) {
	kv := storage.NewMemoryStore()
	mgr := NewManager(kv, NewOSFileStore(t.TempDir()), habits.NewStore(kv))

	_, err := mgr.CreateBackup(context.Background(), "")
	if !apperrors.Is(err, apperrors.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestCreateBackupRecordsLastBackupDate(t *testing.T) {
	env := setupManager(t)
	env.addHabits(t, "Read")

	if _, err := env.mgr.CreateBackup(context.Background(), "export"); err != nil {
		t.Fatal(err)
	}
	cfg, err := env.mgr.GetAutoBackupConfig(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LastBackupDate == nil || !cfg.LastBackupDate.Equal(env.clock.Now()) {
		t.Errorf("LastBackupDate = %v, want %v", cfg.LastBackupDate, env.clock.Now())
	}
}

func TestGetBackupsMissingDirectory(t *testing.T) {
	env := setupManager(t)
	backups, err := env.mgr.GetBackups(context.Background())
	if err != nil {
		t.Fatalf("GetBackups failed: %v", err)
	}
	if backups == nil || len(backups) != 0 {
		t.Errorf("expected empty list, got %#v", backups)
	}
}

func TestGetBackupsSkipsCorruptFiles(t *testing.T) {
	env := setupManager(t)
	env.addHabits(t, "Read")

	if _, err := env.mgr.CreateBackup(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.files.Path("broken.json"), []byte("{\"appVersion\": "), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.files.Path("notes.txt"), []byte("ignored"), 0600); err != nil {
		t.Fatal(err)
	}

	backups, err := env.mgr.GetBackups(context.Background())
	if err != nil {
		t.Fatalf("GetBackups failed: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(backups))
	}
	if backups[0].HabitCount != 1 {
		t.Errorf("HabitCount = %d, want 1", backups[0].HabitCount)
	}
}

func TestGetBackupsNewestFirst(t *testing.T) {
	env := setupManager(t)
	env.addHabits(t, "Read")

	var created []string
	for i := 0; i < 3; i++ {
		meta, err := env.mgr.CreateBackup(context.Background(), "")
		if err != nil {
			t.Fatal(err)
		}
		created = append(created, meta.FileName)
		env.clock.Advance(time.Minute)
	}

	backups, err := env.mgr.GetBackups(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}
	for i, b := range backups {
		if want := created[len(created)-1-i]; b.FileName != want {
			t.Errorf("backups[%d] = %s, want %s", i, b.FileName, want)
		}
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := setupManager(t)
	env.addHabits(t, "Read", "Run", "Stretch")

	before, err := env.store.GetHabits(ctx)
	if err != nil {
		t.Fatal(err)
	}
	meta, err := env.mgr.CreateBackup(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	// Diverge from the backup before restoring
	if err := env.store.DeleteHabit(ctx, before[0].ID); err != nil {
		t.Fatal(err)
	}
	env.addHabits(t, "Extra")

	ok, err := env.mgr.RestoreFromFile(ctx, meta.FileName)
	if err != nil || !ok {
		t.Fatalf("RestoreFromFile = %v, %v", ok, err)
	}

	after, err := env.store.GetHabits(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != len(before) {
		t.Fatalf("restored %d habits, want %d", len(after), len(before))
	}
	for i := range before {
		if !before[i].CreatedAt.Equal(after[i].CreatedAt) || !before[i].UpdatedAt.Equal(after[i].UpdatedAt) {
			t.Errorf("habit %d timestamps differ", i)
		}
		before[i].CreatedAt, after[i].CreatedAt = time.Time{}, time.Time{}
		before[i].UpdatedAt, after[i].UpdatedAt = time.Time{}, time.Time{}
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("restored habits differ:\nbefore: %+v\nafter:  %+v", before, after)
	}
}

func TestRestoreFromFileErrors(t *testing.T) {
	ctx := context.Background()
	env := setupManager(t)
	if err := env.mgr.InitializeBackupSystem(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := env.mgr.RestoreFromFile(ctx, "missing.json"); !apperrors.Is(err, apperrors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}
	if _, err := env.mgr.RestoreFromFile(ctx, "../escape.json"); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected ErrValidation for path traversal, got %v", err)
	}

	envelopes := map[string]string{
		"nodata.json":   `{"appVersion":"1","exportDate":"2024-01-01T00:00:00Z"}`,
		"nodate.json":   `{"appVersion":"1","data":{"habits":[],"version":1}}`,
		"notjson.json":  `habits`,
		"nullData.json": `{"appVersion":"1","exportDate":"2024-01-01T00:00:00Z","data":null}`,
	}
	for name, content := range envelopes {
		if err := os.WriteFile(env.files.Path(name), []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		ok, err := env.mgr.RestoreFromFile(ctx, name)
		if ok || !apperrors.Is(err, apperrors.ErrInvalidFormat) {
			t.Errorf("%s: RestoreFromFile = %v, %v; want ErrInvalidFormat", name, ok, err)
		}
		if !apperrors.Is(err, apperrors.ErrValidation) {
			t.Errorf("%s: ErrInvalidFormat should match ErrValidation", name)
		}
	}
}

func TestDeleteBackup(t *testing.T) {
	ctx := context.Background()
	env := setupManager(t)
	env.addHabits(t, "Read")

	meta, err := env.mgr.CreateBackup(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.mgr.DeleteBackup(ctx, meta.FileName); err != nil {
		t.Fatalf("DeleteBackup failed: %v", err)
	}
	if _, err := os.Stat(env.files.Path(meta.FileName)); !os.IsNotExist(err) {
		t.Error("backup file still exists")
	}

	if err := env.mgr.DeleteBackup(ctx, meta.FileName); err != nil {
		t.Errorf("deleting a missing backup should be a no-op, got %v", err)
	}
	if err := env.mgr.DeleteBackup(ctx, "sub/dir.json"); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

type fakeSharer struct {
	available bool
	shared    string
}

func (s *fakeSharer) CanShare() bool { return s.available }

func (s *fakeSharer) Share(_ context.Context, path string, _ []byte) error {
	s.shared = path
	return nil
}

func TestShareBackup(t *testing.T) {
	ctx := context.Background()
	sharer := &fakeSharer{available: true}
	env := setupManager(t, WithSharer(sharer))
	env.addHabits(t, "Read")

	meta, err := env.mgr.CreateBackup(ctx, "export")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.mgr.ShareBackup(ctx, meta.FileName); err != nil {
		t.Fatalf("ShareBackup failed: %v", err)
	}
	if sharer.shared != env.files.Path(meta.FileName) {
		t.Errorf("shared %q", sharer.shared)
	}

	if err := env.mgr.ShareBackup(ctx, "missing.json"); !apperrors.Is(err, apperrors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got %v", err)
	}

	sharer.available = false
	if err := env.mgr.ShareBackup(ctx, meta.FileName); !apperrors.Is(err, apperrors.ErrSharingUnavailable) {
		t.Errorf("expected ErrSharingUnavailable, got %v", err)
	}
}

func TestShareBackupWithoutSharer(t *testing.T) {
	ctx := context.Background()
	env := setupManager(t)
	env.addHabits(t, "Read")
	meta, err := env.mgr.CreateBackup(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.mgr.ShareBackup(ctx, meta.FileName); !apperrors.Is(err, apperrors.ErrSharingUnavailable) {
		t.Errorf("expected ErrSharingUnavailable, got %v", err)
	}
}

type fakePicker struct {
	path string
	ok   bool
	err  error
}

func (p fakePicker) PickFile(context.Context) (string, bool, error) {
	return p.path, p.ok, p.err
}

func TestImportBackupCancelled(t *testing.T) {
	env := setupManager(t, WithPicker(fakePicker{ok: false}))
	ok, err := env.mgr.ImportBackup(context.Background())
	if ok || err != nil {
		t.Errorf("ImportBackup = %v, %v; want false, nil", ok, err)
	}
}

func TestImportBackup(t *testing.T) {
	ctx := context.Background()
	source := setupManager(t)
	source.addHabits(t, "Read", "Run")
	meta, err := source.mgr.CreateBackup(ctx, "export")
	if err != nil {
		t.Fatal(err)
	}

	env := setupManager(t, WithPicker(fakePicker{path: source.files.Path(meta.FileName), ok: true}))
	ok, err := env.mgr.ImportBackup(ctx)
	if err != nil || !ok {
		t.Fatalf("ImportBackup = %v, %v", ok, err)
	}

	got, err := env.store.GetHabits(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 imported habits, got %d", len(got))
	}
	kept := backupFileName("import", env.clock.Now())
	if exists, _ := env.files.Exists(kept); !exists {
		t.Errorf("imported backup not kept as %s", kept)
	}
}

func TestImportBackupSameNameAsExisting(t *testing.T) {
	ctx := context.Background()
	source := setupManager(t)
	source.addHabits(t, "Read")
	meta, err := source.mgr.CreateBackup(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	// Same clock, so the local backup carries the picked file's name.
	env := setupManager(t, WithPicker(fakePicker{path: source.files.Path(meta.FileName), ok: true}))
	env.addHabits(t, "Write", "Walk")
	local, err := env.mgr.CreateBackup(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if local.FileName != meta.FileName {
		t.Fatalf("expected matching names, got %s and %s", local.FileName, meta.FileName)
	}
	before, err := env.files.ReadFile(local.FileName)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := env.mgr.ImportBackup(ctx)
	if err != nil || !ok {
		t.Fatalf("ImportBackup = %v, %v", ok, err)
	}

	got, _ := env.store.GetHabits(ctx)
	if len(got) != 1 || got[0].Name != "Read" {
		t.Errorf("expected the picked backup restored, got %+v", got)
	}
	after, err := env.files.ReadFile(local.FileName)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(before) {
		t.Error("existing backup overwritten by import")
	}
}

func TestImportBackupDottedFileName(t *testing.T) {
	ctx := context.Background()
	source := setupManager(t)
	source.addHabits(t, "Read")
	meta, err := source.mgr.CreateBackup(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	data, err := source.files.ReadFile(meta.FileName)
	if err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(t.TempDir(), "my..export.json")
	if err := os.WriteFile(src, data, 0600); err != nil {
		t.Fatal(err)
	}

	env := setupManager(t, WithPicker(fakePicker{path: src, ok: true}))
	ok, err := env.mgr.ImportBackup(ctx)
	if err != nil || !ok {
		t.Fatalf("ImportBackup = %v, %v", ok, err)
	}
	got, _ := env.store.GetHabits(ctx)
	if len(got) != 1 {
		t.Errorf("expected 1 imported habit, got %d", len(got))
	}
}

func TestImportBackupMissingFile(t *testing.T) {
	env := setupManager(t, WithPicker(fakePicker{path: filepath.Join(t.TempDir(), "gone.json"), ok: true}))
	ok, err := env.mgr.ImportBackup(context.Background())
	if ok || !apperrors.Is(err, apperrors.ErrFileNotFound) {
		t.Errorf("ImportBackup = %v, %v; want ErrFileNotFound", ok, err)
	}
}

func TestImportBackupInvalidFile(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(src, []byte(`{"appVersion":"1"}`), 0600); err != nil {
		t.Fatal(err)
	}

	env := setupManager(t, WithPicker(fakePicker{path: src, ok: true}))
	env.addHabits(t, "Keep")

	ok, err := env.mgr.ImportBackup(ctx)
	if ok || !apperrors.Is(err, apperrors.ErrInvalidFormat) {
		t.Errorf("ImportBackup = %v, %v; want ErrInvalidFormat", ok, err)
	}
	if names, _ := env.files.ReadDir(); len(names) != 0 {
		t.Errorf("rejected import left files in backup directory: %v", names)
	}
	got, _ := env.store.GetHabits(ctx)
	if len(got) != 1 {
		t.Errorf("stored habits changed after rejected import: %d", len(got))
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		last time.Time
		freq models.BackupFrequency
		want bool
	}{
		{name: "daily within a day", last: now.Add(-23 * time.Hour), freq: models.BackupDaily, want: false},
		{name: "daily exactly a day", last: now.AddDate(0, 0, -1), freq: models.BackupDaily, want: false},
		{name: "daily over a day", last: now.Add(-25 * time.Hour), freq: models.BackupDaily, want: true},
		{name: "weekly six days", last: now.AddDate(0, 0, -6), freq: models.BackupWeekly, want: false},
		{name: "weekly eight days", last: now.AddDate(0, 0, -8), freq: models.BackupWeekly, want: true},
		{name: "monthly same month", last: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), freq: models.BackupMonthly, want: false},
		{name: "monthly previous month", last: time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC), freq: models.BackupMonthly, want: true},
		{name: "monthly same month last year", last: time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC), freq: models.BackupMonthly, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(tt.last, now, tt.freq); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRunAutoBackup(t *testing.T) {
	ctx := context.Background()
	env := setupManager(t)

	due, err := env.mgr.ShouldRunAutoBackup(ctx)
	if err != nil || due {
		t.Errorf("disabled by default: due=%v err=%v", due, err)
	}

	cfg := models.DefaultAutoBackupConfig()
	cfg.Enabled = true
	cfg.Frequency = models.BackupDaily
	if err := env.mgr.SetAutoBackupConfig(ctx, cfg); err != nil {
		t.Fatal(err)
	}
	if due, _ := env.mgr.ShouldRunAutoBackup(ctx); !due {
		t.Error("expected due when no backup was ever taken")
	}

	last := env.clock.Now().Add(-time.Hour)
	cfg.LastBackupDate = &last
	if err := env.mgr.SetAutoBackupConfig(ctx, cfg); err != nil {
		t.Fatal(err)
	}
	if due, _ := env.mgr.ShouldRunAutoBackup(ctx); due {
		t.Error("expected not due an hour after last backup")
	}
}

func TestSetAutoBackupConfigValidation(t *testing.T) {
	env := setupManager(t)
	err := env.mgr.SetAutoBackupConfig(context.Background(), models.AutoBackupConfig{Frequency: "hourly"})
	if !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestRunAutoBackupNotDue(t *testing.T) {
	env := setupManager(t)
	env.addHabits(t, "Read")

	ran, err := env.mgr.RunAutoBackupIfNeeded(context.Background())
	if err != nil || ran {
		t.Errorf("RunAutoBackupIfNeeded = %v, %v; want false, nil", ran, err)
	}
	if _, err := os.Stat(env.files.Dir()); !os.IsNotExist(err) {
		t.Error("backup directory created without a due backup")
	}
}

func TestAutoBackupRetention(t *testing.T) {
	tests := []struct {
		name      string
		retention int
		runs      int
		want      int
	}{
		{name: "keeps retention newest", retention: 3, runs: 6, want: 3},
		{name: "under retention keeps all", retention: 5, runs: 2, want: 2},
		{name: "zero retention keeps one", retention: 0, runs: 3, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := setupManager(t)
			env.addHabits(t, "Read")

			// A manual backup is never rotated
			if _, err := env.mgr.CreateBackup(ctx, "manual"); err != nil {
				t.Fatal(err)
			}
			if err := env.mgr.SetAutoBackupConfig(ctx, models.AutoBackupConfig{
				Enabled: true, Frequency: models.BackupDaily, Retention: tt.retention,
			}); err != nil {
				t.Fatal(err)
			}

			var created []string
			for i := 0; i < tt.runs; i++ {
				env.clock.Advance(25 * time.Hour)
				ran, err := env.mgr.RunAutoBackupIfNeeded(ctx)
				if err != nil || !ran {
					t.Fatalf("run %d: RunAutoBackupIfNeeded = %v, %v", i, ran, err)
				}
				backups, _ := env.mgr.GetBackups(ctx)
				created = append(created, backups[0].FileName)
			}

			backups, err := env.mgr.GetBackups(ctx)
			if err != nil {
				t.Fatal(err)
			}
			var auto []string
			manual := 0
			for _, b := range backups {
				switch b.Kind() {
				case models.BackupKindAuto:
					auto = append(auto, b.FileName)
				case models.BackupKindManual:
					manual++
				}
			}

			if manual != 1 {
				t.Errorf("manual backup count = %d, want 1", manual)
			}
			if len(auto) != tt.want {
				t.Fatalf("auto backups = %d, want %d", len(auto), tt.want)
			}
			for i, name := range auto {
				if want := created[len(created)-1-i]; name != want {
					t.Errorf("auto[%d] = %s, want %s", i, name, want)
				}
			}
		})
	}
}

// flakyFileStore fails Remove for one named file.
type flakyFileStore struct {
	*OSFileStore
	failName string
}

func (f *flakyFileStore) Remove(name string) error {
	if name == f.failName {
		return errors.New("device busy")
	}
	return f.OSFileStore.Remove(name)
}

func TestRetentionContinuesPastFailedDelete(t *testing.T) {
	ctx := context.Background()
	env := setupManager(t)
	env.addHabits(t, "Read")

	var names []string
	for i := 0; i < 4; i++ {
		meta, err := env.mgr.CreateBackup(ctx, "auto")
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, meta.FileName)
		env.clock.Advance(time.Minute)
	}

	flaky := &flakyFileStore{OSFileStore: env.files, failName: names[0]}
	mgr := NewManager(env.kv, flaky, env.store, WithClock(env.clock))
	if err := mgr.rotateAutoBackups(ctx, 1); err != nil {
		t.Fatalf("rotateAutoBackups failed: %v", err)
	}

	for i, name := range names {
		exists, _ := env.files.Exists(name)
		wantExists := i == 0 || i == len(names)-1
		if exists != wantExists {
			t.Errorf("%s exists = %v, want %v", name, exists, wantExists)
		}
	}

	if err := mgr.DeleteBackup(ctx, names[0]); !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected failed delete to wrap ErrNotFound, got %v", err)
	}
}
