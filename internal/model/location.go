package model

import "fmt"

// Location is a point of interest on the globe.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// String returns the location formatted as "Name (lat, lng)".
func (l Location) String() string {
	return fmt.Sprintf("%s (%.4f, %.4f)", l.Name, l.Lat, l.Lng)
}

// PlaceholderName is shown while a deep-linked session is being resolved,
// and kept when resolution fails.
const PlaceholderName = "Loading research..."

// Placeholder returns the stand-in location used while a token resolves.
func Placeholder() Location {
	return Location{Name: PlaceholderName}
}

// Session is the location and research token backing the open research panel.
// Token is empty until a research task has been created for the location.
type Session struct {
	Location Location `json:"location"`
	Token    string   `json:"token,omitempty"`
}

// Candidate is a selection awaiting a gate decision. It has the same shape as
// a Session; Random marks a deferred "random location" request whose location
// is only picked once the gate lets it through.
type Candidate struct {
	Location Location `json:"location"`
	Token    string   `json:"token,omitempty"`
	Random   bool     `json:"random,omitempty"`
}

// Session converts the candidate into the session it would open.
func (c Candidate) Session() Session {
	return Session{Location: c.Location, Token: c.Token}
}

// Identity is the authenticated actor. A nil *Identity means anonymous.
type Identity struct {
	Actor string `json:"actor"`
}
