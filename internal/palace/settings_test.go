package palace

import (
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestStore_Settings(t *testing.T) {
	type window struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}

	tests := map[string]struct {
		key      string
		value    any
		out      func() any
		expFound bool
		expValue any
		expErr   string
	}{
		"string": {
			key:      "image_mode",
			value:    "background",
			out:      func() any { return new(string) },
			expFound: true,
			expValue: "background",
		},
		"bool": {
			key:      "autopilot",
			value:    true,
			out:      func() any { return new(bool) },
			expFound: true,
			expValue: true,
		},
		"struct": {
			key:      "window",
			value:    window{Width: 80, Height: 24},
			out:      func() any { return new(window) },
			expFound: true,
			expValue: window{Width: 80, Height: 24},
		},
		"wrong type": {
			key:      "autopilot",
			value:    "yes",
			out:      func() any { return new(bool) },
			expFound: true,
			expErr:   `decoding setting "autopilot"`,
		},
		"missing": {
			key:      "theme",
			out:      func() any { return new(string) },
			expValue: "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s, _ := newTestStore(t)
			if tt.value != nil {
				if err := s.SetSetting(tt.key, tt.value); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			out := tt.out()
			found, err := s.Setting(tt.key, out)
			testutil.AssertEqual(t, "found", found, tt.expFound)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			switch v := out.(type) {
			case *string:
				testutil.AssertEqual(t, "value", *v, tt.expValue.(string))
			case *bool:
				testutil.AssertEqual(t, "value", *v, tt.expValue.(bool))
			case *window:
				testutil.AssertEqual(t, "value", *v, tt.expValue.(window))
			}
		})
	}
}

func TestStore_SettingsPersist(t *testing.T) {
	s, dir := newTestStore(t)

	if err := s.SetSetting("image_mode", "await"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetSetting("autopilot", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "delete", s.DeleteSetting("image_mode"), true)
	testutil.AssertEqual(t, "delete again", s.DeleteSetting("image_mode"), false)

	reloaded, err := NewStore(fileCollections(t, dir), nil)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	testutil.AssertEqual(t, "names", strings.Join(reloaded.Settings().Names(), ","), "autopilot")
}

func TestStore_SettingsAreCopies(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.SetSetting("theme", "dusk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := s.Settings()
	st["theme"][1] = 'X'
	delete(st, "theme")

	var theme string
	found, _ := s.Setting("theme", &theme)
	testutil.AssertEqual(t, "found", found, true)
	testutil.AssertEqual(t, "theme", theme, "dusk")
}

func TestStore_SetSettingWithoutName(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.SetSetting("", 1)
	testutil.AssertErrorContains(t, err, "setting name is required")
}
