package globe

import (
	"context"
	"errors"
	"testing"

	"github.com/alfredjeanlab/history/internal/model"
)

func TestPlacesAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range Places {
		if err := model.ValidateLocation(p); err != nil {
			t.Errorf("%s: %v", p.Name, err)
		}
		if seen[p.Name] {
			t.Errorf("duplicate place %s", p.Name)
		}
		seen[p.Name] = true
	}
}

func TestPickRandom_Deterministic(t *testing.T) {
	a := NewCatalog(42)
	b := NewCatalog(42)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		x, err := a.PickRandom(ctx)
		if err != nil {
			t.Fatal(err)
		}
		y, _ := b.PickRandom(ctx)
		if x != y {
			t.Fatalf("pick %d: %v != %v with the same seed", i, x, y)
		}
	}
}

func TestPickRandom_CoversCatalog(t *testing.T) {
	places := []model.Location{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	c := NewCatalog(7, places...)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		p, _ := c.PickRandom(context.Background())
		seen[p.Name] = true
	}
	if len(seen) != len(places) {
		t.Errorf("picked %v, want all of %v", seen, places)
	}
}

func TestPickRandom_Errors(t *testing.T) {
	c := &Catalog{}
	if _, err := c.PickRandom(context.Background()); !errors.Is(err, ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCatalog(1).PickRandom(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
