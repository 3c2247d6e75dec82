package pkg

import (
	"os"
	"regexp"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "brace" {
		t.Errorf("Expected Name to be %q, got %q", "brace", Name)
	}
}

func TestDescription(t *testing.T) {
	if Description == "" || strings.TrimSpace(Description) != Description {
		t.Errorf("Unexpected Description %q", Description)
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version)
	}

	if !regexp.MustCompile(`^\d+\.\d+\.\d+`).MatchString(Version) {
		t.Errorf("Version %q is not semantic", Version)
	}
}

func TestAuthor(t *testing.T) {
	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && a.Email == "andrew@ardnew.com"
	}) {
		t.Errorf("Expected Author to contain %q", "ardnew")
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestPrefix(t *testing.T) {
	p := Prefix()
	if p == "" || strings.HasPrefix(p, ".") {
		t.Errorf("Unexpected prefix %q", p)
	}

	if !strings.HasSuffix(ConfigDir(), p) || !strings.HasSuffix(CacheDir(), p) {
		t.Errorf("Directories %q and %q should end with %q", ConfigDir(), CacheDir(), p)
	}
}
