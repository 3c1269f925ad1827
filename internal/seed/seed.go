// Package seed loads a demo cart snapshot, handy for poking at the API
// without a storefront frontend in front of it.
package seed

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-session/internal/cartstore"
	"storefront-session/internal/domain"
)

// DemoSessionID is the session the demo snapshot is stored under.
const DemoSessionID = "demo-session"

// Apply writes the demo cart snapshot.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	store := cartstore.NewPostgres(pool)
	return store.Set(ctx, DemoSessionID, demoCart())
}

func demoCart() domain.Cart {
	return domain.Cart{
		{
			SKU:        "mug-classic-01",
			Name:       "Classic Mug",
			Image:      "https://cdn.example.com/p/mug-classic-01.jpg",
			PriceCents: 1200,
			Quantity:   2,
			Design: &domain.Customization{
				Title:      "Name engraving",
				PriceCents: 300,
				Quantity:   2,
			},
		},
		{
			SKU:        "tee-logo-04",
			Name:       "Logo Tee",
			PriceCents: 2500,
			Quantity:   1,
			Size:       "M",
		},
	}
}
