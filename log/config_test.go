package log

import (
	"slices"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"trace", LevelTrace},
		{" TRACE ", LevelTrace},
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"info+2", Level(2)},
		{"bogus", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"json", FormatJSON},
		{" JSON", FormatJSON},
		{"text", FormatText},
		{"yaml", DefaultFormat},
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.input); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNames(t *testing.T) {
	if got := slices.Collect(Levels()); !slices.Equal(got, []string{"trace", "debug", "info", "warn", "error"}) {
		t.Errorf("unexpected levels %v", got)
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"text", "json"}) {
		t.Errorf("unexpected formats %v", got)
	}

	for name := range Levels() {
		if ParseLevel(name).String() != name {
			t.Errorf("level %q does not round trip", name)
		}
	}

	if s := Level(3).String(); s != "Level(3)" {
		t.Errorf("unexpected name for undefined level: %q", s)
	}

	if s := Format(7).String(); s != "Format(7)" {
		t.Errorf("unexpected name for undefined format: %q", s)
	}
}

func TestConfig_Options(t *testing.T) {
	c := apply(config{},
		WithLevel(LevelError),
		WithFormat(FormatJSON),
		WithCaller(true),
		nil,
		WithPretty(false),
		WithOutput(nil))

	if c.level != LevelError || c.format != FormatJSON || !c.caller || c.pretty {
		t.Errorf("options not applied: %+v", c)
	}

	if c.output == nil || c.mutex == nil {
		t.Error("expected discard output and an initialized mutex")
	}

	d := apply(c, WithDefaults(nil))
	if d.level != DefaultLevel || d.format != DefaultFormat || d.caller != DefaultCaller || d.pretty != DefaultPretty {
		t.Errorf("defaults not restored: %+v", d)
	}
}

func TestConfig_Clone_IsIndependent(t *testing.T) {
	a := makeConfig(nil, WithLevel(LevelDebug))
	b := a.clone(WithLevel(LevelError))

	if a.level != LevelDebug || b.level != LevelError {
		t.Errorf("clone shares state: a=%v b=%v", a.level, b.level)
	}

	if a.mutex == b.mutex {
		t.Error("clone shares mutex")
	}
}

func TestConfig_FormatTime(t *testing.T) {
	now := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "2023-10-15T14:30:45Z"},
		{"rfc3339nano", "2023-10-15T14:30:45.123456789Z"},
		{"Kitchen", "2:30PM"},
		{"DateTime", "2023-10-15 14:30:45"},
		{"ms", "Oct 15 14:30:45.123"},
		{"us", "Oct 15 14:30:45.123456"},
		{"15:04", "14:30"},
		{"none", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			if got := makeFormatTimeFunc(tt.layout)(now); got != tt.want {
				t.Errorf("layout %q: got %q, want %q", tt.layout, got, tt.want)
			}
		})
	}
}

func BenchmarkConfig_FormatTime(b *testing.B) {
	format := makeFormatTimeFunc("RFC3339Nano")
	now := time.Now()

	for b.Loop() {
		_ = format(now)
	}
}
