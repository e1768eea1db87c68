package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

type apiClient struct {
	baseURL string
	http    *http.Client
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

func (e *errorBody) String() string {
	if e == nil {
		return "no error body"
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Error, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Error, e.Message)
}

// do sends a JSON request and decodes a 2xx body into out. Non-2xx bodies are
// decoded into the returned errorBody.
func (c *apiClient) do(ctx context.Context, method, path, token string, in, out any) (int, *errorBody, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	if resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return resp.StatusCode, &eb, nil
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, nil, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil, nil
}

type session struct {
	ID      uuid.UUID
	Email   string
	Access  string
	Refresh string
}

type authBody struct {
	User struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	} `json:"user"`
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
}

type record struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func (c *apiClient) register(ctx context.Context, faker *gofakeit.Faker, tag string) (*session, error) {
	email := fmt.Sprintf("sim-%s-%s@clinic.test", tag, strings.ToLower(faker.LetterN(10)))
	var out authBody
	status, eb, err := c.do(ctx, http.MethodPost, "/api/auth/register", "", map[string]string{
		"first_name":       faker.FirstName(),
		"last_name":        faker.LastName(),
		"email":            email,
		"password":         "sim-password",
		"password_confirm": "sim-password",
	}, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("register: status %d (%s)", status, eb)
	}
	return &session{
		ID:      out.User.ID,
		Email:   out.User.Email,
		Access:  out.Tokens.Access,
		Refresh: out.Tokens.Refresh,
	}, nil
}

func fakePatient(faker *gofakeit.Faker, name string) map[string]any {
	if name == "" {
		name = faker.Name()
	}
	return map[string]any{
		"name":    name,
		"email":   fmt.Sprintf("%s@patients.test", uuid.NewString()),
		"phone":   faker.Phone(),
		"age":     faker.Number(0, 95),
		"gender":  []string{"M", "F", "O"}[faker.Number(0, 2)],
		"address": faker.Address().Address,
	}
}

func fakeDoctor(faker *gofakeit.Faker, name, speciality string) map[string]any {
	if name == "" {
		name = "Dr. " + faker.LastName()
	}
	if speciality == "" {
		speciality = faker.RandomString([]string{"Cardiology", "Dermatology", "Neurology", "Pediatrics"})
	}
	id := uuid.NewString()
	return map[string]any{
		"name":                name,
		"speciality":          speciality,
		"phone":               faker.Phone(),
		"email":               fmt.Sprintf("%s@doctors.test", id),
		"license_number":      "SIM-" + id[:18],
		"years_of_experience": faker.Number(0, 40),
		"consultation_fee":    fmt.Sprintf("%.2f", faker.Price(40, 400)),
	}
}
