package server

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCleanBase(t *testing.T) {
	for in, want := range map[string]string{
		"":              "",
		"/":             "",
		" // ":          "",
		"dumbmem":       "/dumbmem",
		"/dumbmem/":     "/dumbmem",
		"ops//dumbmem/": "/ops/dumbmem",
		"/a/./b":        "/a/b",
	} {
		if got := cleanBase(in); got != want {
			t.Fatalf("cleanBase(%q)=%q want %q", in, got, want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	writeJSON(c, 201, map[string]int{"n": 1})
	if rec.Code != 201 {
		t.Fatalf("code=%d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}
	if body := rec.Body.String(); body != "{\"n\":1}\n" {
		t.Fatalf("body=%q", body)
	}
}
