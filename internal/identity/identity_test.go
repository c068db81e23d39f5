package identity

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/samvad-hq/pulse-news/internal/domain"
)

// referenceHash mirrors the browser's `(h << 5) - h + c | 0` using int32 wraparound.
func referenceHash(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return "art_" + strconv.FormatInt(v, 10)
}

func TestRollingIDKnownValues(t *testing.T) {
	cases := map[string]string{
		"a":  "art_97",
		"ab": "art_3105",
		"😀":  "art_1772899",
		"":   "art_0",
	}
	for in, want := range cases {
		if got := RollingID(in); got != want {
			t.Errorf("RollingID(%q) = %s want %s", in, got, want)
		}
	}
}

func TestRollingIDMatchesSignedReference(t *testing.T) {
	inputs := []string{
		"https://example.com/news/2024/01/01/a-very-long-slug-that-overflows-int32-many-times",
		"Breaking: markets rally2024-01-01T00:00:00+00:00",
		"héllo wörld ✓",
		strings.Repeat("z", 500),
	}
	for _, in := range inputs {
		if got, want := RollingID(in), referenceHash(in); got != want {
			t.Errorf("RollingID(%q) = %s want %s", in, got, want)
		}
	}
}

func TestComputeIDDependsOnlyOnURL(t *testing.T) {
	a := domain.Article{URL: "https://x/1", Title: "A", PublishedAt: "2024-01-01T00:00:00Z"}
	b := domain.Article{URL: "https://x/1", Title: "A changed", PublishedAt: "2099-01-01T00:00:00Z", Description: "new"}

	if ComputeID(a) != ComputeID(b) {
		t.Fatalf("ids differ for same url: %s vs %s", ComputeID(a), ComputeID(b))
	}
	if ComputeID(a) != RollingID("https://x/1") {
		t.Fatalf("id not derived from url alone")
	}
}

func TestComputeIDFallsBackToTitleAndTimestamp(t *testing.T) {
	a := domain.Article{Title: "Headline", PublishedAt: "2024-05-01T10:00:00+00:00"}
	b := domain.Article{Title: "Headline", PublishedAt: "2024-05-01T10:00:00+00:00", Source: "other"}
	c := domain.Article{Title: "Headline", PublishedAt: "2024-05-02T10:00:00+00:00"}

	if ComputeID(a) != ComputeID(b) {
		t.Fatalf("expected deterministic id for same title+timestamp")
	}
	if ComputeID(a) == ComputeID(c) {
		t.Fatalf("expected different id for different timestamp")
	}
	if ComputeID(a) != RollingID("Headline2024-05-01T10:00:00+00:00") {
		t.Fatalf("unexpected basis for fallback id")
	}
}

func TestComputeIDRandomFallback(t *testing.T) {
	first := ComputeID(domain.Article{Description: "no identity"})
	second := ComputeID(domain.Article{Description: "no identity"})

	if !strings.HasPrefix(first, Prefix) || !strings.HasPrefix(second, Prefix) {
		t.Fatalf("random ids missing prefix: %s %s", first, second)
	}
	if first == second {
		t.Fatalf("expected random fallback ids to differ, both %s", first)
	}
}

func TestDigestScheme(t *testing.T) {
	ident, err := New(SchemeSHA1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a := domain.Article{URL: "https://x/1", Title: "A"}
	b := domain.Article{URL: "https://x/1", Title: "B"}

	id := ident.ID(a)
	if id != ident.ID(b) {
		t.Fatalf("digest ids differ for same url")
	}
	if len(id) != len(Prefix)+16 {
		t.Fatalf("unexpected digest id length %q", id)
	}
}

func TestNewRejectsUnknownScheme(t *testing.T) {
	if _, err := New("md5"); err == nil {
		t.Fatalf("expected error for unknown scheme")
	}
}
