package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/brianvoe/gofakeit/v7"
)

type checker struct {
	passed int
	failed int
}

func (c *checker) check(name string, ok bool, detail string) {
	if ok {
		c.passed++
		log.Printf("PASS %s", name)
		return
	}
	c.failed++
	log.Printf("FAIL %s: %s", name, detail)
}

func (c *checker) status(name string, got, want int, eb *errorBody) {
	c.check(name, got == want, fmt.Sprintf("status %d, want %d (%s)", got, want, eb))
}

// verifyScenario walks two users through the ownership and assignment
// lifecycle rules against a running API.
func verifyScenario(ctx context.Context, api *apiClient, faker *gofakeit.Faker) (*checker, error) {
	c := &checker{}

	u, err := api.register(ctx, faker, "u")
	if err != nil {
		return nil, err
	}
	v, err := api.register(ctx, faker, "v")
	if err != nil {
		return nil, err
	}

	var jane record
	st, eb, err := api.do(ctx, http.MethodPost, "/api/patients", u.Access, fakePatient(faker, "Jane Doe"), &jane)
	if err != nil {
		return nil, err
	}
	c.status("owner creates patient", st, http.StatusCreated, eb)

	var visible []record
	st, eb, err = api.do(ctx, http.MethodGet, "/api/patients", v.Access, nil, &visible)
	if err != nil {
		return nil, err
	}
	c.status("other user lists patients", st, http.StatusOK, eb)
	c.check("other user sees no patients", len(visible) == 0, fmt.Sprintf("saw %d", len(visible)))

	st, eb, err = api.do(ctx, http.MethodGet, "/api/patients/"+jane.ID.String(), v.Access, nil, nil)
	if err != nil {
		return nil, err
	}
	c.status("other user cannot read patient", st, http.StatusNotFound, eb)

	var smith record
	st, eb, err = api.do(ctx, http.MethodPost, "/api/doctors", u.Access, fakeDoctor(faker, "Dr. Smith", "Cardiology"), &smith)
	if err != nil {
		return nil, err
	}
	c.status("create doctor", st, http.StatusCreated, eb)

	var doctors []record
	st, eb, err = api.do(ctx, http.MethodGet, "/api/doctors/"+smith.ID.String(), v.Access, nil, nil)
	if err != nil {
		return nil, err
	}
	c.status("doctors are visible to every user", st, http.StatusOK, eb)
	_, _, err = api.do(ctx, http.MethodGet, "/api/doctors", v.Access, nil, &doctors)
	if err != nil {
		return nil, err
	}
	c.check("doctor list includes new doctor", containsID(doctors, smith), "missing")

	pair := map[string]string{"patient": jane.ID.String(), "doctor": smith.ID.String()}

	st, eb, err = api.do(ctx, http.MethodPost, "/api/mappings", v.Access, pair, nil)
	if err != nil {
		return nil, err
	}
	c.status("cannot assign to another user's patient", st, http.StatusBadRequest, eb)

	var mapping record
	st, eb, err = api.do(ctx, http.MethodPost, "/api/mappings", u.Access, pair, &mapping)
	if err != nil {
		return nil, err
	}
	c.status("assign doctor", st, http.StatusCreated, eb)

	st, eb, err = api.do(ctx, http.MethodPost, "/api/mappings", u.Access, pair, nil)
	if err != nil {
		return nil, err
	}
	c.status("duplicate assignment conflicts", st, http.StatusConflict, eb)

	st, eb, err = api.do(ctx, http.MethodDelete, "/api/mappings/"+mapping.ID.String(), v.Access, nil, nil)
	if err != nil {
		return nil, err
	}
	c.status("other user cannot remove assignment", st, http.StatusNotFound, eb)

	st, eb, err = api.do(ctx, http.MethodDelete, "/api/mappings/"+mapping.ID.String(), u.Access, nil, nil)
	if err != nil {
		return nil, err
	}
	c.status("remove assignment", st, http.StatusOK, eb)

	var active, byPatient, history []record
	if _, _, err = api.do(ctx, http.MethodGet, "/api/mappings", u.Access, nil, &active); err != nil {
		return nil, err
	}
	c.check("removed assignment leaves active list", !containsID(active, mapping), "still listed")

	if _, _, err = api.do(ctx, http.MethodGet, "/api/mappings/patient/"+jane.ID.String(), u.Access, nil, &byPatient); err != nil {
		return nil, err
	}
	c.check("removed assignment leaves patient list", !containsID(byPatient, mapping), "still listed")

	if _, _, err = api.do(ctx, http.MethodGet, "/api/mappings/history", u.Access, nil, &history); err != nil {
		return nil, err
	}
	c.check("removed assignment kept in history", containsStatus(history, mapping, "inactive"), "not found as inactive")

	st, eb, err = api.do(ctx, http.MethodPost, "/api/mappings", u.Access, pair, nil)
	if err != nil {
		return nil, err
	}
	c.status("removed pair still conflicts", st, http.StatusConflict, eb)

	return c, nil
}

func containsID(list []record, want record) bool {
	for _, r := range list {
		if r.ID == want.ID {
			return true
		}
	}
	return false
}

func containsStatus(list []record, want record, status string) bool {
	for _, r := range list {
		if r.ID == want.ID && r.Status == status {
			return true
		}
	}
	return false
}
