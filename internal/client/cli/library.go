package cli

import (
	"context"
	"fmt"
	"log"
	"sort"
)

func (a *App) list(ctx context.Context) {
	lib, err := a.library.List(ctx)
	if err != nil {
		log.Println(err.Error())
		return
	}
	if len(lib) == 0 {
		fmt.Println("No spaces yet, use 'create <title>'")
		return
	}

	ids := make([]string, 0, len(lib))
	for id := range lib {
		ids = append(ids, id)
	}
	// Pinned first, then by title.
	sort.Slice(ids, func(i, j int) bool {
		x, y := lib[ids[i]], lib[ids[j]]
		if x.IsPinned != y.IsPinned {
			return x.IsPinned
		}
		return x.Title < y.Title
	})

	for _, id := range ids {
		item := lib[id]
		pin := " "
		if item.IsPinned {
			pin = "*"
		}
		fmt.Printf("%s %s  %s\n", pin, id, item.Title)
	}
}

func (a *App) createSpace(ctx context.Context, title string) {
	space, err := a.library.CreateSpace(ctx, title)
	if err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Printf("Created space %s, open it with 'open %s'\n", space.ID, space.ID)
}

func (a *App) deleteSpace(ctx context.Context, spaceID string) {
	if a.hasOpenSpace() && a.engine.SpaceID() == spaceID {
		a.closeSpace()
	}
	if err := a.library.DeleteSpace(ctx, spaceID); err != nil {
		log.Println(err.Error())
		return
	}
	a.passwords.Clear(spaceID)
	fmt.Println("Deleted", spaceID)
}

func (a *App) setPinned(ctx context.Context, spaceID string, pinned bool) {
	if err := a.library.SetPinned(ctx, spaceID, pinned); err != nil {
		log.Println(err.Error())
	}
}
