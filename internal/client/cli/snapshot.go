package cli

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"
)

func (a *App) listSnapshots(ctx context.Context) {
	if !a.requireSpace() {
		return
	}

	refs, err := a.snapshots.List(ctx, a.engine.SpaceID())
	if err != nil {
		log.Println(err.Error())
		return
	}
	if len(refs) == 0 {
		fmt.Println("No snapshots yet")
		return
	}
	for i, ref := range refs {
		fmt.Printf("%d  %s\n", i+1, ref.CreatedAt.Local().Format(time.DateTime))
	}
}

// recoverSnapshot restores the open space from the n-th snapshot as printed
// by 'snapshots' (1 is the newest).
func (a *App) recoverSnapshot(ctx context.Context, arg string) {
	if !a.requireSpace() {
		return
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		fmt.Println("Usage: recover <n>   (n from 'snapshots')")
		return
	}

	refs, err := a.snapshots.List(ctx, a.engine.SpaceID())
	if err != nil {
		log.Println(err.Error())
		return
	}
	if n > len(refs) {
		fmt.Printf("Only %d snapshots available\n", len(refs))
		return
	}

	if err := a.engine.RecoverFromSnapshot(ctx, refs[n-1].Key); err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Println("Recovered from snapshot", n)
}
