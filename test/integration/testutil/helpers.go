//go:build integration

package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/turfease/platform/internal/service"
)

// Do sends a JSON request with an optional bearer token and decodes a JSON object reply.
func (env *TestEnv) Do(method, path string, body interface{}, token string) (int, map[string]interface{}) {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// OwnerRegistration is a complete owner sign-up body.
func OwnerRegistration(email string) map[string]interface{} {
	return map[string]interface{}{
		"firstName":       "Omar",
		"lastName":        "Khan",
		"email":           email,
		"phone":           "9876543210",
		"password":        "password123",
		"userType":        "owner",
		"businessName":    "Arena Sports",
		"businessAddress": "12 Stadium Road",
		"businessPhone":   "9123456780",
		"turfCount":       "2-5",
		"agreeToTerms":    true,
	}
}

// PlayerRegistration is a complete player sign-up body.
func PlayerRegistration(email string) map[string]interface{} {
	body := OwnerRegistration(email)
	body["userType"] = "player"
	body["preferredSports"] = []string{"Football", "Cricket"}
	body["skillLevel"] = "Intermediate"
	body["location"] = "Pune"
	return body
}

// Register signs up with the given body, queuing code as the emailed OTP.
func (env *TestEnv) Register(body map[string]interface{}, code string) uuid.UUID {
	env.t.Helper()
	env.Random.Push(code)
	status, out := env.Do(http.MethodPost, "/api/auth/register", body, "")
	if status != http.StatusCreated {
		env.t.Fatalf("register: expected 201, got %d: %v", status, out)
	}
	id, err := uuid.Parse(out["userId"].(string))
	if err != nil {
		env.t.Fatalf("register: bad userId: %v", err)
	}
	return id
}

// Login returns a session token for the credentials.
func (env *TestEnv) Login(email, password string) string {
	env.t.Helper()
	status, out := env.Do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, "")
	if status != http.StatusOK {
		env.t.Fatalf("login: expected 200, got %d: %v", status, out)
	}
	return out["token"].(string)
}

// AdminToken seeds the administrator and logs in.
func (env *TestEnv) AdminToken() string {
	env.t.Helper()
	if _, _, err := env.Services.Auth.EnsureAdmin(env.t.Context(), service.AdminInput{
		Email: "admin@turfease.test", Password: "admin-password", FirstName: "Site", LastName: "Admin",
	}); err != nil {
		env.t.Fatalf("ensure admin: %v", err)
	}
	return env.Login("admin@turfease.test", "admin-password")
}
