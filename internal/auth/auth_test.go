package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/levinOo/go-statistics-project/internal/models"
)

func TestVerify(t *testing.T) {
	a := NewStaticAuthenticator(map[string]string{"aUser": "aPassword"})

	tests := []struct {
		name  string
		cred  models.Credential
		owner string
		want  Verdict
	}{
		{
			name:  "valid credentials matching owner",
			cred:  models.Credential{Identity: "aUser", Secret: "aPassword"},
			owner: "aUser",
			want:  Authorized,
		},
		{
			name:  "valid credentials for another owner",
			cred:  models.Credential{Identity: "aUser", Secret: "aPassword"},
			owner: "anotherUser",
			want:  Forbidden,
		},
		{
			name:  "wrong secret",
			cred:  models.Credential{Identity: "aUser", Secret: "wrong"},
			owner: "aUser",
			want:  Unauthorized,
		},
		{
			name:  "unknown identity",
			cred:  models.Credential{Identity: "nobody", Secret: "aPassword"},
			owner: "nobody",
			want:  Unauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Verify(a, tt.cred, tt.owner)
			if err != nil {
				t.Fatalf("verify failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("verdict = %v, want %v", got, tt.want)
			}
		})
	}
}

type failingAuthenticator struct{}

func (failingAuthenticator) Authenticate(identity, secret string) (bool, error) {
	return false, errors.New("service unavailable")
}

func TestVerifyAuthenticatorError(t *testing.T) {
	cred := models.Credential{Identity: "aUser", Secret: "aPassword"}

	verdict, err := Verify(failingAuthenticator{}, cred, "aUser")
	if err == nil {
		t.Fatal("expected error from failing authenticator")
	}
	if verdict == Authorized {
		t.Error("failing authenticator must not authorize")
	}
}

func TestRESTAuthenticator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		ok := req.Username == "aUser" && req.Password == "aPassword"
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"authenticated": ok})
	}))
	defer srv.Close()

	a := NewRESTAuthenticator(srv.URL, 2*time.Second)

	ok, err := a.Authenticate("aUser", "aPassword")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if !ok {
		t.Error("valid credentials rejected")
	}

	ok, err = a.Authenticate("aUser", "wrong")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if ok {
		t.Error("invalid credentials accepted")
	}
}

func TestRESTAuthenticatorServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewRESTAuthenticator(srv.URL, 2*time.Second)

	if _, err := a.Authenticate("aUser", "aPassword"); err == nil {
		t.Error("expected error on non-200 response")
	}
}

func TestParseStaticUsers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{
			name: "single pair",
			in:   "aUser:aPassword",
			want: map[string]string{"aUser": "aPassword"},
		},
		{
			name: "multiple pairs with spaces",
			in:   "aUser:aPassword, anotherUser:anotherPassword",
			want: map[string]string{"aUser": "aPassword", "anotherUser": "anotherPassword"},
		},
		{
			name: "malformed entries skipped",
			in:   "aUser:aPassword,broken,:noidentity",
			want: map[string]string{"aUser": "aPassword"},
		},
		{
			name: "empty input",
			in:   "",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseStaticUsers(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parsed %v, want %v", got, tt.want)
			}
		})
	}
}
