package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateLocation(t *testing.T) {
	for _, tc := range []struct {
		name   string
		loc    Location
		fields []string
	}{
		{"valid", Location{Name: "Rome", Lat: 41.9, Lng: 12.5}, nil},
		{"poles and antimeridian", Location{Name: "Edge", Lat: -90, Lng: 180}, nil},
		{"missing name", Location{Name: "  ", Lat: 1, Lng: 1}, []string{"name"}},
		{"lat out of range", Location{Name: "X", Lat: 91, Lng: 0}, []string{"lat"}},
		{"lng out of range", Location{Name: "X", Lat: 0, Lng: -180.5}, []string{"lng"}},
		{"everything wrong", Location{Lat: -100, Lng: 200}, []string{"name", "lat", "lng"}},
		{"name too long", Location{Name: strings.Repeat("a", 201)}, []string{"name"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLocation(tc.loc)
			if len(tc.fields) == 0 {
				if err != nil {
					t.Fatalf("ValidateLocation() = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("ValidateLocation() = %v, want *ValidationError", err)
			}
			if len(ve.Errors) != len(tc.fields) {
				t.Fatalf("got %d field errors (%v), want %d", len(ve.Errors), ve, len(tc.fields))
			}
			for i, f := range tc.fields {
				if ve.Errors[i].Field != f {
					t.Errorf("Errors[%d].Field = %q, want %q", i, ve.Errors[i].Field, f)
				}
			}
		})
	}
}

func TestValidateTask(t *testing.T) {
	task := &ResearchTask{
		Token:        "rs-abc123",
		LocationName: "Kyoto",
		LocationLat:  35.0,
		LocationLng:  135.8,
		Status:       TaskQueued,
		CreatedAt:    time.Now(),
	}
	if err := ValidateTask(task); err != nil {
		t.Fatalf("ValidateTask(valid) = %v", err)
	}

	task.Token = ""
	task.Status = "paused"
	err := ValidateTask(task)
	if err == nil {
		t.Fatal("expected error for missing token and bad status")
	}
	msg := err.Error()
	for _, want := range []string{"token: is required", `status: invalid value "paused"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestValidateTask_LocationFieldsArePrefixed(t *testing.T) {
	err := ValidateTask(&ResearchTask{Token: "rs-1", LocationLat: 95, Status: TaskQueued})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "location_name") || !strings.Contains(msg, "location_lat") {
		t.Errorf("error %q should mention location_name and location_lat", msg)
	}
}

func TestValidateInquiry(t *testing.T) {
	valid := Inquiry{
		CompanyName:  "Acme",
		ContactName:  "Sam",
		ContactEmail: "sam@acme.io",
		JobTitle:     "CTO",
		UseCase:      "Historical research for tours",
	}
	if err := ValidateInquiry(&valid); err != nil {
		t.Fatalf("ValidateInquiry(valid) = %v", err)
	}

	for _, tc := range []struct {
		name   string
		mutate func(*Inquiry)
		want   string
	}{
		{"missing company", func(q *Inquiry) { q.CompanyName = "" }, "company_name: is required"},
		{"missing use case", func(q *Inquiry) { q.UseCase = " " }, "use_case: is required"},
		{"bad email", func(q *Inquiry) { q.ContactEmail = "sam at acme" }, "contact_email: invalid email format"},
		{"email without tld", func(q *Inquiry) { q.ContactEmail = "sam@acme" }, "contact_email: invalid email format"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			q := valid
			tc.mutate(&q)
			err := ValidateInquiry(&q)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tc.want)
			}
		})
	}
}
