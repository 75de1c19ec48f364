package lock_test

import (
	"errors"
	"testing"

	"github.com/0xRadioAc7iv/go-jewelstore/internal/lock"
)

func TestLockDirectory(t *testing.T) {
	t.Run("second lock on a held directory fails", func(t *testing.T) {
		dir := t.TempDir()

		f, err := lock.LockDirectory(dir)
		if err != nil {
			t.Fatalf("could not acquire initial lock: %v", err)
		}
		defer lock.UnlockDirectory(f)

		f2, err := lock.LockDirectory(dir)
		if err == nil {
			lock.UnlockDirectory(f2)
			t.Fatal("second lock was not supposed to succeed")
		}
		if !errors.Is(err, lock.ErrLocked) {
			t.Errorf("expected ErrLocked, got %v", err)
		}
	})

	t.Run("lock can be reacquired after unlock", func(t *testing.T) {
		dir := t.TempDir()

		f, err := lock.LockDirectory(dir)
		if err != nil {
			t.Fatalf("could not acquire lock: %v", err)
		}
		lock.UnlockDirectory(f)

		f2, err := lock.LockDirectory(dir)
		if err != nil {
			t.Fatalf("lock was supposed to be free: %v", err)
		}
		lock.UnlockDirectory(f2)
	})

	t.Run("missing directory", func(t *testing.T) {
		if _, err := lock.LockDirectory(t.TempDir() + "/nope"); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
