// README: Redis-backed availability tests; skipped unless FIXLY_TEST_REDIS is set.
package availability

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"fixly/internal/types"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("FIXLY_TEST_REDIS")
	if addr == "" {
		t.Skip("FIXLY_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		client.Del(context.Background(), providerGeoKey)
		client.Close()
	})
	return NewStore(client)
}

func TestNearbyOrdersByDistance(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// Taipei Main Station and two providers at increasing distance.
	origin := types.Point{Lat: 25.0478, Lng: 121.5170}
	near := types.Point{Lat: 25.0480, Lng: 121.5175}
	far := types.Point{Lat: 25.0330, Lng: 121.5654}

	if err := store.Add(ctx, "p-far", far); err != nil {
		t.Fatalf("add far: %v", err)
	}
	if err := store.Add(ctx, "p-near", near); err != nil {
		t.Fatalf("add near: %v", err)
	}

	ids, err := store.Nearby(ctx, &origin, 10, 5)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(ids) != 2 || ids[0] != "p-near" || ids[1] != "p-far" {
		t.Fatalf("ids = %v, want [p-near p-far]", ids)
	}
}

func TestNearbyWithoutPositionReturnsAnyMembers(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []types.ID{"p1", "p2", "p3"} {
		if err := store.Add(ctx, id, types.Point{Lat: 25.0, Lng: 121.5}); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	ids, err := store.Nearby(ctx, nil, 0, 2)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("len = %d, want 2", len(ids))
	}
}

func TestRemoveDropsProviderFromPool(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Add(ctx, "p1", types.Point{Lat: 25.0, Lng: 121.5}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Remove(ctx, "p1"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	ids, err := store.Nearby(ctx, nil, 0, 10)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	for _, id := range ids {
		if id == "p1" {
			t.Fatalf("p1 still present after remove")
		}
	}
}
