// Package abekm embeds the abekm hybrid search engine in a Go process.
//
// The client reads chunks from Redis with the search module and container
// grants from a SQLite permission database. Queries fan out to dense, keyword,
// fulltext and image retrievers; the scores are fused, low-quality chunks are
// dropped and the best chunk of each file is returned.
//
//	client, _ := abekm.New(ctx,
//	    abekm.WithRedis("localhost:6379", ""),
//	    abekm.WithPermissionsDB("file:abekm.db", false),
//	    abekm.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	resp, _ := client.Search(ctx, "u42", "insulin pump calibration",
//	    abekm.InContainers("c1", "c7"),
//	    abekm.WithMode(abekm.ModeHybrid),
//	    abekm.WithLimit(10),
//	)
//
// The fluent builder covers the same parameters:
//
//	resp, _ := client.Query("u42").Text("pump diagram").Mode(abekm.ModeImage).Limit(5).Do(ctx)
package abekm
