package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSplitIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "a", want: []string{"a"}},
		{name: "spaced", in: " a , b ,, c", want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitIDs(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest("GET", "/?page=3&bad=x&neg=-1", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if got := queryInt(c, "page", 1); got != 3 {
		t.Errorf("page = %d, want 3", got)
	}
	if got := queryInt(c, "missing", 7); got != 7 {
		t.Errorf("missing = %d, want fallback 7", got)
	}
	if got := queryInt(c, "bad", 7); got != 7 {
		t.Errorf("bad = %d, want fallback 7", got)
	}
	if got := queryInt(c, "neg", 7); got != 7 {
		t.Errorf("neg = %d, want fallback 7", got)
	}
}
