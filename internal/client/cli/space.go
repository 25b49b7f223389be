package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/spacekeeper/internal/client/models"
	"github.com/dmitrijs2005/spacekeeper/internal/client/syncer"
	"github.com/dmitrijs2005/spacekeeper/internal/cryptox"
)

func (a *App) requireSpace() bool {
	if !a.hasOpenSpace() {
		fmt.Println("No space open, use 'open <id>'")
		return false
	}
	return true
}

func (a *App) openSpace(ctx context.Context, spaceID string) {
	a.closeSpace()

	engine := syncer.New(a.store, a.snapshots, a.passwords, a.guard, a.logger, syncer.Options{
		AutoSave:  a.config.AutoSave,
		SaveDelay: a.config.SaveDelay,
		OnStateChange: func(s syncer.State) {
			if s == syncer.StateError {
				fmt.Println("\nsync failed, type 'retry' to try again")
			}
		},
	})

	err := engine.Load(ctx, spaceID)
	// A locked space without a usable session password: prompt once and
	// retry. A wrong password has already been dropped from the cache.
	if errors.Is(err, syncer.ErrMissingEncryptionPassword) || errors.Is(err, cryptox.ErrDecryptionFailed) {
		pw, perr := GetPassword(os.Stdout, "Space password")
		if perr != nil {
			log.Println(perr.Error())
			return
		}
		a.passwords.Set(spaceID, pw)
		err = engine.Load(ctx, spaceID)
		if errors.Is(err, cryptox.ErrDecryptionFailed) {
			fmt.Println("Wrong password")
			return
		}
	}
	if err != nil {
		log.Println(err.Error())
		return
	}

	a.engine = engine
	space := engine.Space()
	fmt.Printf("Opened %q (%d subjects)\n", space.Title, len(space.Subjects))
}

func (a *App) listSubjects() {
	if !a.requireSpace() {
		return
	}
	space := a.engine.Space()
	if len(space.Subjects) == 0 {
		fmt.Println("No subjects yet, use 'add'")
		return
	}
	for _, s := range space.Subjects {
		line := s.TextContent
		if len(line) > 60 {
			line = line[:60] + "…"
		}
		fmt.Printf("%d  %s", s.ID, line)
		if len(s.Tags) > 0 {
			fmt.Printf("  [%s]", strings.Join(s.Tags, ", "))
		}
		fmt.Println()
	}
}

func (a *App) addSubject(ctx context.Context) {
	if !a.requireSpace() {
		return
	}

	content, err := GetMultiline(a.reader, "Enter subject text", os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return
	}
	if content == "" {
		fmt.Println("Nothing to add")
		return
	}
	tagLine, err := GetSimpleText(a.reader, "Tags (comma-separated, optional)", os.Stdout)
	if err != nil {
		log.Println(err.Error())
		return
	}

	subject := models.NewSubject(content, strings.Split(tagLine, ","))
	a.engine.Apply(func(s *models.Space) {
		subject.Order = float64(len(s.Subjects) + 1)
		s.Subjects = append(s.Subjects, subject)
	})
	fmt.Println("Added subject", subject.ID)
}

func (a *App) renameSpace(ctx context.Context, title string) {
	if !a.requireSpace() {
		return
	}
	a.engine.Apply(func(s *models.Space) { s.Title = title })
	if err := a.library.SetTitle(ctx, a.engine.SpaceID(), title); err != nil {
		log.Println(err.Error())
	}
}

func (a *App) save(ctx context.Context) {
	if !a.requireSpace() {
		return
	}
	err := a.engine.Save(ctx)
	if errors.Is(err, syncer.ErrMissingEncryptionPassword) {
		pw, perr := GetPassword(os.Stdout, "Space password")
		if perr != nil {
			log.Println(perr.Error())
			return
		}
		a.passwords.Set(a.engine.SpaceID(), pw)
		err = a.engine.Save(ctx)
	}
	if err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Println("Saved")
}

func (a *App) retry(ctx context.Context) {
	if !a.requireSpace() {
		return
	}
	if err := a.engine.Retry(ctx); err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Println("Saved")
}

func (a *App) status() {
	if !a.requireSpace() {
		return
	}
	space := a.engine.Space()
	fmt.Printf("space:    %s (%q)\n", space.ID, space.Title)
	fmt.Printf("state:    %s\n", a.engine.State())
	fmt.Printf("locked:   %v\n", space.IsLocked)
	fmt.Printf("unsaved:  %v\n", a.engine.HasUnsavedChanges())
	fmt.Printf("subjects: %d\n", len(space.Subjects))
}

func (a *App) lock(ctx context.Context) {
	if !a.requireSpace() {
		return
	}
	if a.engine.Space().IsLocked {
		fmt.Println("Space is already encrypted")
		return
	}

	pw, err := GetPassword(os.Stdout, "New space password")
	if err != nil {
		log.Println(err.Error())
		return
	}
	confirm, err := GetPassword(os.Stdout, "Repeat password")
	if err != nil {
		log.Println(err.Error())
		return
	}
	if pw == "" || pw != confirm {
		fmt.Println("Passwords are empty or do not match")
		return
	}

	if err := a.engine.EnableEncryption(ctx, pw); err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Println("Space is now encrypted")
}

func (a *App) unlock(ctx context.Context) {
	if !a.requireSpace() {
		return
	}
	if !a.engine.Space().IsLocked {
		fmt.Println("Space is not encrypted")
		return
	}
	if err := a.engine.DisableEncryption(ctx); err != nil {
		log.Println(err.Error())
		return
	}
	fmt.Println("Encryption disabled")
}
