package resultstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"scrapekit/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	service, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "resultstore",
		DbSchema: Schema,
	})
	defer cleanup()

	store := NewStore(service.DB)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		products, err := store.Pull(ctx, "emag", "usb stick")
		require.NoError(t, err)
		require.Len(t, products, 0)
	}

	firstRun := time.Unix(1700000000, 0)
	secondRun := firstRun.Add(time.Hour)

	err := store.Push(ctx, PushRequest{
		Site:    "emag",
		Keyword: "usb stick",
		Time:    firstRun,
		Products: []Product{
			{ID: "DHSG3MBBM", Title: "Memorie USB 32GB", URL: "https://www.emag.ro/-/pd/DHSG3MBBM", Price: "49,99 Lei"},
			{ID: "D2RY9MBBM", Title: "Memorie USB 64GB", URL: "https://www.emag.ro/-/pd/D2RY9MBBM", Price: "79,99 Lei"},
		},
	})
	require.NoError(t, err)

	// the second run re-sees one product at a new price and discovers
	// another
	err = store.Push(ctx, PushRequest{
		Site:    "emag",
		Keyword: "usb stick",
		Time:    secondRun,
		Products: []Product{
			{ID: "DHSG3MBBM", Title: "Memorie USB 32GB", URL: "https://www.emag.ro/-/pd/DHSG3MBBM", Price: "44,99 Lei"},
			{ID: "DV1N3MBBM", Title: "Memorie USB 128GB", URL: "https://www.emag.ro/-/pd/DV1N3MBBM", Price: "129,99 Lei"},
		},
	})
	require.NoError(t, err)

	products, err := store.Pull(ctx, "emag", "usb stick")
	require.NoError(t, err)
	require.Len(t, products, 3)

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	if diff := cmp.Diff([]string{"DHSG3MBBM", "DV1N3MBBM", "D2RY9MBBM"}, ids); diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, "44,99 Lei", products[0].Price)
	require.Equal(t, firstRun.Unix(), products[0].FirstSeen.Unix())
	require.Equal(t, secondRun.Unix(), products[0].LastSeen.Unix())

	{
		products, err := store.Pull(ctx, "emag", "laptop")
		require.NoError(t, err)
		require.Len(t, products, 0)
	}

	keywords, err := store.Keywords(ctx)
	require.NoError(t, err)
	require.Len(t, keywords, 1)
	require.Equal(t, "emag", keywords[0].Site)
	require.Equal(t, "usb stick", keywords[0].Keyword)
	require.Equal(t, int64(2), keywords[0].Runs)
	require.Equal(t, int64(3), keywords[0].Products)
	require.Equal(t, secondRun.Unix(), keywords[0].LastRun.Unix())
}

func TestOpenReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	store, err := Open(path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err = store.Push(ctx, PushRequest{
		Site:    "amazon.us",
		Keyword: "usb stick",
		Time:    time.Unix(1700000000, 0),
		Products: []Product{
			{ID: "B0C2FG3HLC", Title: "USB Flash Drive 64GB", URL: "https://www.amazon.com/dp/B0C2FG3HLC"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	products, err := store.Pull(ctx, "amazon.us", "usb stick")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "USB Flash Drive 64GB", products[0].Title)
}
