package main

import (
	"context"
	"fmt"
	"time"

	"github.com/achu-1612/offcache"
	"github.com/achu-1612/offcache/network"
)

type student struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func main() {
	ctx := context.Background()

	monitor := network.NewManual(true)

	c, err := offcache.New(ctx, offcache.Options{
		Monitor: monitor,
		Replayer: offcache.ReplayFunc(func(_ context.Context, a offcache.PendingAction) error {
			fmt.Println("replaying", a.ID, string(a.Payload))

			return nil
		}),
		DefaultDuration: 10 * time.Minute,
	})
	if err != nil {
		panic(err)
	}
	defer c.Close()

	fetch := func(context.Context) ([]student, error) {
		return []student{{ID: 1, Name: "Asha"}, {ID: 2, Name: "Ravi"}}, nil
	}

	list, res, err := offcache.Fetch(ctx, c, "students:all", fetch, 0)
	fmt.Println(list, res.Source, err)

	monitor.SetOnline(false)

	list, res, err = offcache.Fetch(ctx, c, "students:all", fetch, 0)
	fmt.Println(list, res.Source, err)

	c.QueueAction(map[string]any{"op": "delete", "studentId": 2})
	fmt.Println("queued:", len(c.ListQueuedActions()))

	monitor.SetOnline(true)

	<-time.After(100 * time.Millisecond)

	fmt.Println("queued:", len(c.ListQueuedActions()))
}
