package urlutil

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestBuildAbsolute_AppRoutes(t *testing.T) {
	cases := []struct {
		base, route, want string
	}{
		{"http://localhost:5173", "/#/inventory", "http://localhost:5173/#/inventory"},
		{"http://localhost:5173/", "/p/app", "http://localhost:5173/p/app"},
		{"http://localhost:5173", "#/inventory", "http://localhost:5173/#/inventory"},
		{"http://localhost:5173", "p/app", "http://localhost:5173/p/app"},
		{"http://localhost:5173", "", "http://localhost:5173"},
		{"http://localhost:5173", "https://other.test/x", "https://other.test/x"},
	}
	for _, tc := range cases {
		if got := BuildAbsolute(tc.base, tc.route); got != tc.want {
			t.Errorf("BuildAbsolute(%q, %q) = %q, want %q", tc.base, tc.route, got, tc.want)
		}
	}
}

func TestBuildAbsolute_NoDoubleSlash(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := fmt.Sprintf("http://%s:%d%s",
			rapid.StringMatching(`[a-z]{3,12}`).Draw(rt, "host"),
			rapid.IntRange(1024, 65535).Draw(rt, "port"),
			strings.Repeat("/", rapid.IntRange(0, 3).Draw(rt, "slashes")),
		)
		route := "/" + rapid.StringMatching(`[a-z]{1,8}(/[a-z]{1,8})?`).Draw(rt, "route")

		got := BuildAbsolute(base, route)
		if strings.Contains(strings.TrimPrefix(got, "http://"), "//") {
			rt.Fatalf("double slash in %q", got)
		}
		if !strings.HasSuffix(got, route) {
			rt.Fatalf("route lost: got=%q route=%q", got, route)
		}
	})
}

func TestValidateBaseURL(t *testing.T) {
	valid := []string{"http://localhost:5173", "https://staging.example.test/", " http://127.0.0.1:8080 "}
	for _, v := range valid {
		if err := ValidateBaseURL(v); err != nil {
			t.Errorf("ValidateBaseURL(%q) unexpected error: %v", v, err)
		}
	}

	invalid := []string{"", "localhost:5173", "ftp://localhost", "http://", "http://localhost:5173/#/inventory", "http://localhost?x=1"}
	for _, v := range invalid {
		if err := ValidateBaseURL(v); err == nil {
			t.Errorf("ValidateBaseURL(%q) expected error", v)
		}
	}
}
