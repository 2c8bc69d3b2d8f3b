// Package globe provides the curated places offered by the "random
// location" action.
package globe

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/alfredjeanlab/history/internal/model"
)

// ErrEmpty is returned when picking from an empty catalog.
var ErrEmpty = errors.New("globe: catalog is empty")

// Places is the default catalog of historically notable locations.
var Places = []model.Location{
	{Name: "Rome, Italy", Lat: 41.9028, Lng: 12.4964},
	{Name: "Athens, Greece", Lat: 37.9838, Lng: 23.7275},
	{Name: "Giza, Egypt", Lat: 29.9792, Lng: 31.1342},
	{Name: "Petra, Jordan", Lat: 30.3285, Lng: 35.4444},
	{Name: "Machu Picchu, Peru", Lat: -13.1631, Lng: -72.5450},
	{Name: "Kyoto, Japan", Lat: 35.0116, Lng: 135.7681},
	{Name: "Angkor, Cambodia", Lat: 13.4125, Lng: 103.8670},
	{Name: "Istanbul, Turkey", Lat: 41.0082, Lng: 28.9784},
	{Name: "Timbuktu, Mali", Lat: 16.7666, Lng: -3.0026},
	{Name: "Teotihuacan, Mexico", Lat: 19.6925, Lng: -98.8438},
	{Name: "Xi'an, China", Lat: 34.3416, Lng: 108.9398},
	{Name: "Samarkand, Uzbekistan", Lat: 39.6270, Lng: 66.9750},
	{Name: "Great Zimbabwe, Zimbabwe", Lat: -20.2674, Lng: 30.9338},
	{Name: "Jerusalem", Lat: 31.7683, Lng: 35.2137},
	{Name: "Cusco, Peru", Lat: -13.5320, Lng: -71.9675},
	{Name: "Hampi, India", Lat: 15.3350, Lng: 76.4600},
	{Name: "Carthage, Tunisia", Lat: 36.8528, Lng: 10.3233},
	{Name: "Stonehenge, England", Lat: 51.1789, Lng: -1.8262},
	{Name: "Pompeii, Italy", Lat: 40.7497, Lng: 14.4869},
	{Name: "Berlin, Germany", Lat: 52.5200, Lng: 13.4050},
}

// Catalog picks random places. It is safe for concurrent use.
type Catalog struct {
	places []model.Location

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCatalog returns a catalog over places, or Places when none are given.
// seed fixes the pick sequence; zero seeds randomly.
func NewCatalog(seed uint64, places ...model.Location) *Catalog {
	if len(places) == 0 {
		places = Places
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Catalog{
		places: append([]model.Location(nil), places...),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// PickRandom returns a random place.
func (c *Catalog) PickRandom(ctx context.Context) (model.Location, error) {
	if err := ctx.Err(); err != nil {
		return model.Location{}, err
	}
	if len(c.places) == 0 {
		return model.Location{}, ErrEmpty
	}
	c.mu.Lock()
	i := c.rng.IntN(len(c.places))
	c.mu.Unlock()
	return c.places[i], nil
}

// Len returns the number of places.
func (c *Catalog) Len() int { return len(c.places) }
