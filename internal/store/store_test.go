package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)

	t.Run("get missing key returns ErrNotFound", func(t *testing.T) {
		_, err := s.Settings().Get("missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set and get round-trip", func(t *testing.T) {
		if err := s.Settings().Set(SettingActuatorURL, "http://10.0.0.9/led"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		value, err := s.Settings().Get(SettingActuatorURL)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if value != "http://10.0.0.9/led" {
			t.Errorf("Get() = %q, want %q", value, "http://10.0.0.9/led")
		}
	})

	t.Run("set overwrites existing value", func(t *testing.T) {
		s.Settings().Set(SettingCameraID, "0")
		s.Settings().Set(SettingCameraID, "2")

		value, err := s.Settings().Get(SettingCameraID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if value != "2" {
			t.Errorf("Get() = %q, want %q", value, "2")
		}
	})

	t.Run("GetFloat parses stored value", func(t *testing.T) {
		s.Settings().Set(SettingOpenThreshold, "1.85")

		value, err := s.Settings().GetFloat(SettingOpenThreshold, 1.7)
		if err != nil {
			t.Fatalf("GetFloat() error = %v", err)
		}
		if value != 1.85 {
			t.Errorf("GetFloat() = %f, want 1.85", value)
		}
	})

	t.Run("GetFloat falls back when missing", func(t *testing.T) {
		value, err := s.Settings().GetFloat("nope", 1.7)
		if err != nil {
			t.Fatalf("GetFloat() error = %v", err)
		}
		if value != 1.7 {
			t.Errorf("GetFloat() = %f, want fallback 1.7", value)
		}
	})

	t.Run("All returns every setting", func(t *testing.T) {
		all, err := s.Settings().All()
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		if len(all) < 3 {
			t.Errorf("expected at least 3 settings, got %d", len(all))
		}
	})

	t.Run("Delete removes a setting", func(t *testing.T) {
		s.Settings().Set("temp", "x")
		if err := s.Settings().Delete("temp"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := s.Settings().Get("temp"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestProfiles(t *testing.T) {
	s := newTestStore(t)

	t.Run("create and get round-trip", func(t *testing.T) {
		p := &Profile{
			ID:            uuid.NewString(),
			Name:          "desk lamp",
			OpenThreshold: 1.65,
		}
		if err := s.Profiles().Create(p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		got, err := s.Profiles().GetByID(p.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Name != p.Name || got.OpenThreshold != p.OpenThreshold {
			t.Errorf("GetByID() = %+v, want %+v", got, p)
		}
	})

	t.Run("get missing profile returns ErrNotFound", func(t *testing.T) {
		_, err := s.Profiles().GetByID("missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("activate marks exactly one profile active", func(t *testing.T) {
		a := &Profile{ID: uuid.NewString(), Name: "bright room", OpenThreshold: 1.7}
		b := &Profile{ID: uuid.NewString(), Name: "dim room", OpenThreshold: 1.5}
		if err := s.Profiles().Create(a); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := s.Profiles().Create(b); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if err := s.Profiles().Activate(a.ID); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		if err := s.Profiles().Activate(b.ID); err != nil {
			t.Fatalf("Activate() error = %v", err)
		}

		active, err := s.Profiles().Active()
		if err != nil {
			t.Fatalf("Active() error = %v", err)
		}
		if active.ID != b.ID {
			t.Errorf("active profile = %s, want %s", active.ID, b.ID)
		}

		profiles, err := s.Profiles().List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		count := 0
		for _, p := range profiles {
			if p.Active {
				count++
			}
		}
		if count != 1 {
			t.Errorf("expected exactly 1 active profile, got %d", count)
		}
	})

	t.Run("activate missing profile returns ErrNotFound", func(t *testing.T) {
		if err := s.Profiles().Activate("missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("update changes threshold", func(t *testing.T) {
		p := &Profile{ID: uuid.NewString(), Name: "garage", OpenThreshold: 1.7}
		if err := s.Profiles().Create(p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		p.OpenThreshold = 1.9
		if err := s.Profiles().Update(p); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, _ := s.Profiles().GetByID(p.ID)
		if got.OpenThreshold != 1.9 {
			t.Errorf("OpenThreshold = %f, want 1.9", got.OpenThreshold)
		}
	})

	t.Run("delete removes the profile", func(t *testing.T) {
		p := &Profile{ID: uuid.NewString(), Name: "old setup", OpenThreshold: 1.7}
		if err := s.Profiles().Create(p); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if err := s.Profiles().Delete(p.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := s.Profiles().GetByID(p.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.Profiles().Delete(p.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on double delete, got %v", err)
		}
	})
}
