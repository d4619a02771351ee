package segset_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/segset"
	"github.com/hupe1980/segset/segment"
	"github.com/hupe1980/segset/store"
)

// Example_bulkLoad demonstrates loading an index and querying it with
// set algebra.
func Example_bulkLoad() {
	ctx := context.Background()

	ix, err := segset.Open(store.NewMemoryAdapter(), segment.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}

	// Bulk-load associations; the session buffers them in memory and
	// merges into persisted segments on flush.
	bl := ix.NewBulkLoad()
	for rec := uint64(0); rec < 1000; rec++ {
		color := "red"
		if rec%2 == 1 {
			color = "blue"
		}
		if err := bl.Add(ctx, "color:"+color, rec); err != nil {
			log.Fatal(err)
		}
		if rec%5 == 0 {
			if err := bl.Add(ctx, "sale", rec); err != nil {
				log.Fatal(err)
			}
		}
	}
	if err := bl.Close(ctx); err != nil {
		log.Fatal(err)
	}

	// Records that are red AND on sale.
	sets, err := ix.RecordSets(ctx, "color:red", "sale")
	if err != nil {
		log.Fatal(err)
	}
	redSale := sets[0].Intersect(sets[1])
	fmt.Println("red on sale:", redSale.Count())

	// Records that are NOT on sale, against the loaded universe.
	exist, err := ix.Existence(ctx)
	if err != nil {
		log.Fatal(err)
	}
	noSale := sets[1].Complement(uint64(exist.Count()))
	fmt.Println("not on sale:", noSale.Count())

	// Iterate the first matches in ascending record order.
	c := redSale.Cursor()
	for rec, ok := c.First(); ok && rec < 50; rec, ok = c.Next() {
		fmt.Println("match:", rec)
	}

	// Output:
	// red on sale: 100
	// not on sale: 800
	// match: 0
	// match: 10
	// match: 20
	// match: 30
	// match: 40
}

// Example_compression stores segment blobs compressed, which pays off
// for large sparse bitmap segments.
func Example_compression() {
	ctx := context.Background()

	adapter := store.NewCompressingAdapter(store.NewMemoryAdapter(), store.CompressionZSTD)
	ix, err := segset.Open(adapter, segment.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}

	bl := ix.NewBulkLoad()
	for rec := uint64(0); rec < 100_000; rec += 7 {
		if err := bl.Add(ctx, "v", rec); err != nil {
			log.Fatal(err)
		}
	}
	if err := bl.Close(ctx); err != nil {
		log.Fatal(err)
	}

	rs, err := ix.RecordSet(ctx, "v")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("records:", rs.Count())

	// Output:
	// records: 14286
}
