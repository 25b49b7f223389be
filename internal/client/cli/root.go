package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.engine == nil {
		return ""
	}
	s := fmt.Sprintf("%s %s", a.engine.SpaceID(), a.engine.State())
	if a.engine.HasUnsavedChanges() {
		s += " *"
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {

	fmt.Println("Welcome to SpaceKeeper CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("sk %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.hasOpenSpace() {
				fmt.Println("Available commands: subjects, add, rename, save, retry, status, lock, unlock, snapshots, recover, close, exit")
			} else {
				fmt.Println("Available commands: (l)ist, open <id>, create <title>, delete <id>, pin <id>, unpin <id>, exit")
			}

		case "l", "list":
			a.list(ctx)
		case "create":
			if len(args) == 0 {
				fmt.Println("Usage: create <title>")
				continue
			}
			a.createSpace(ctx, strings.Join(args, " "))
		case "delete":
			if len(args) == 0 {
				fmt.Println("Usage: delete <id>")
				continue
			}
			a.deleteSpace(ctx, args[0])
		case "pin":
			if len(args) == 0 {
				fmt.Println("Usage: pin <id>")
				continue
			}
			a.setPinned(ctx, args[0], true)
		case "unpin":
			if len(args) == 0 {
				fmt.Println("Usage: unpin <id>")
				continue
			}
			a.setPinned(ctx, args[0], false)
		case "open":
			if len(args) == 0 {
				fmt.Println("Usage: open <id>")
				continue
			}
			a.openSpace(ctx, args[0])
		case "close":
			a.closeSpace()
		case "subjects":
			a.listSubjects()
		case "add":
			a.addSubject(ctx)
		case "rename":
			if len(args) == 0 {
				fmt.Println("Usage: rename <title>")
				continue
			}
			a.renameSpace(ctx, strings.Join(args, " "))
		case "save":
			a.save(ctx)
		case "retry":
			a.retry(ctx)
		case "status":
			a.status()
		case "lock":
			a.lock(ctx)
		case "unlock":
			a.unlock(ctx)
		case "snapshots":
			a.listSnapshots(ctx)
		case "recover":
			if len(args) == 0 {
				fmt.Println("Usage: recover <n>   (n from 'snapshots')")
				continue
			}
			a.recoverSnapshot(ctx, args[0])
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}
