package shared

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestNormalizeKey(t *testing.T) {
	tc := []struct {
		name  string
		parts []string
		want  string
	}{
		{
			name:  "basic normalization",
			parts: []string{"Midterm 2023", "Algorithms"},
			want:  `"midterm 2023"|"algorithms"`,
		},
		{
			name:  "extra whitespace",
			parts: []string{"  Midterm   2023  ", "  Data   Structures "},
			want:  `"midterm 2023"|"data structures"`,
		},
		{
			name:  "mixed case",
			parts: []string{"OpErAtInG SyStEmS"},
			want:  "operating systems",
		},
		{
			name:  "empty part",
			parts: []string{"", "Algorithms"},
			want:  `""|"algorithms"`,
		},
		{
			name:  "separator inside a part",
			parts: []string{"a|b", "c"},
			want:  `"a|b"|"c"`,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeKey(tt.parts...)
			if got != tt.want {
				t.Errorf("NormalizeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeKeyKeepsTuplesDistinct(t *testing.T) {
	if NormalizeKey("a|b", "c") == NormalizeKey("a", "b|c") {
		t.Error("expected different tuples to produce different keys")
	}
	if NormalizeKey(`a"`, "b") == NormalizeKey("a", `"b`) {
		t.Error("expected quotes inside parts to be escaped")
	}
}

func TestSetLogLevelString(t *testing.T) {
	l := NewLogger(io.Discard)

	SetLogLevelString(l, "debug")
	if l.GetLevel() != log.DebugLevel {
		t.Errorf("expected debug level, got %v", l.GetLevel())
	}

	SetLogLevelString(l, "nonsense")
	if l.GetLevel() != log.InfoLevel {
		t.Errorf("expected fallback to info, got %v", l.GetLevel())
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Fatal("expected distinct ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a valid uuid, got %q: %v", a, err)
	}
}

func TestLogger(t *testing.T) {
	t.Run("SetLogLevelString", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		SetLogLevelString(logger, "warn")
		if logger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", logger.GetLevel())
		}

		SetLogLevelString(logger, "nonsense")
		if logger.GetLevel() != log.InfoLevel {
			t.Errorf("expected info level fallback, got %v", logger.GetLevel())
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "store")
		logger.Info("hello")

		if !strings.Contains(buf.String(), "component=store") {
			t.Errorf("expected key-value pair in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "nexus.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Info("written")
	})
}
