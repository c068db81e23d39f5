package web

import (
	"strings"
	"testing"

	"github.com/samvad-hq/pulse-news/internal/domain"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"abcdefghijk", 10, "abcdefghi…"},
		{"ünïcödé-text", 5, "ünïc…"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.n); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestMetaLine(t *testing.T) {
	cases := []struct {
		a    domain.Article
		want string
	}{
		{domain.Article{Author: "A", PublishedAt: "2024-01-01T00:00:00+00:00", Source: "S"}, "A • Jan 1, 2024, 12:00 AM • S"},
		{domain.Article{Source: "S"}, "S"},
		{domain.Article{PublishedAt: "not a date"}, "not a date"},
		{domain.Article{}, ""},
	}
	for _, tc := range cases {
		if got := metaLine(tc.a); got != tc.want {
			t.Errorf("metaLine(%+v) = %q want %q", tc.a, got, tc.want)
		}
	}
}

func TestSafeReturn(t *testing.T) {
	for in, want := range map[string]string{
		"/saved":          "/saved",
		"":                "/",
		"https://evil":    "/",
		"//evil":          "/",
		"/\\evil":         "/",
		"/article?id=a_1": "/article?id=a_1",
	} {
		if got := safeReturn(in); got != want {
			t.Errorf("safeReturn(%q) = %q want %q", in, got, want)
		}
	}
}

func TestCardViewDefaults(t *testing.T) {
	v := newCardView("art_1", domain.Article{Description: strings.Repeat("x", 10)})
	if v.Title != "Untitled" || v.Href != "/article?id=art_1" || v.Description != strings.Repeat("x", 10) {
		t.Fatalf("unexpected card %+v", v)
	}
}
