package goSpace_test

import (
	"context"
	"fmt"

	goSpace "github.com/MrEthical07/goSpace"
	"github.com/MrEthical07/goSpace/space"
	"github.com/MrEthical07/goSpace/wallet"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// ExampleNew builds an engine over the Redis store backend.
func ExampleNew() {
	mr, _ := miniredis.Run()
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, err := goSpace.New().
		WithWallet(wallet.NewStatic("0xabc")).
		WithStore(space.NewStore(rdb, "gs")).
		WithRedis(rdb).
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer engine.Close()

	fmt.Println(engine.Step())
	// Output: disconnected
}

// ExampleEngine_Login walks a plugin through login and a private write.
func ExampleEngine_Login() {
	mr, _ := miniredis.Run()
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engine, _ := goSpace.New().
		WithWallet(wallet.NewStatic("0xabc")).
		WithStore(space.NewStore(rdb, "gs")).
		Build()
	defer engine.Close()
	engine.MarkLoaded()

	ctx := context.Background()
	if _, err := engine.Login(ctx, "pluginX"); err != nil {
		fmt.Println(err)
		return
	}
	_, _ = engine.SetPrivateValue(ctx, "pluginX", "theme", "dark")
	v, _ := engine.GetPrivateValue(ctx, "pluginX", "theme")

	fmt.Println(engine.Step(), engine.OpenSpaces(), v)
	// Output: authenticated [space-pluginX] dark
}

// ExampleEngine_MetricsSnapshot reads in-process counters.
func ExampleEngine_MetricsSnapshot() {
	engine, _ := goSpace.New().
		WithWallet(wallet.Unavailable{}).
		WithStore(space.NewStore(redis.NewClient(&redis.Options{}), "gs")).
		WithMetricsEnabled(true).
		Build()
	defer engine.Close()

	_, _ = engine.IsEnabled()
	fmt.Println(engine.MetricsSnapshot().Counters[goSpace.MetricGuardNotLoaded])
	// Output: 1
}
