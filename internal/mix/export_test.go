package mix_test

import (
	"bytes"
	"errors"
	"testing"

	"mixshare/internal/encryption"
	"mixshare/internal/mix"
	"mixshare/internal/testutil"
)

func TestService_ExportRestore(t *testing.T) {
	t.Run("round trip to a fresh host", func(t *testing.T) {
		src := newFixture(t)
		for i, name := range []string{"a.mp4", "b.jpg", "c.mix_list"} {
			if _, err := src.svc.AddFavorite(testutil.Record(name, i+1)); err != nil {
				t.Fatalf("AddFavorite(%s) error = %v", name, err)
			}
		}
		src.svc.SetCategory(testutil.Record("", 2), "photos")

		res, err := src.svc.Export("host-1")
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if res.Records != 3 || res.Version != src.svc.Snapshot().Version() {
			t.Errorf("Export() = %+v", res)
		}
		remote, err := src.svc.RemoteVersion("host-1")
		if err != nil || remote != res.Version {
			t.Errorf("RemoteVersion() = %d, %v; want %d", remote, err, res.Version)
		}

		var stored bytes.Buffer
		if err := src.vault.GetMetadata("host-1", mix.ExportName, &stored); err != nil {
			t.Fatalf("GetMetadata() error = %v", err)
		}
		if int64(stored.Len()) != res.Bytes {
			t.Errorf("stored %d bytes, Export() reported %d", stored.Len(), res.Bytes)
		}

		dst := newFixtureWith(t, testutil.NewTestDatabase(t), src.vault, src.enc)
		if _, err := dst.svc.Restore("host-1", "any"); err != nil {
			t.Fatalf("Restore() error = %v", err)
		}

		want := src.svc.Favorites("")
		got := dst.svc.Favorites("")
		if len(got) != len(want) {
			t.Fatalf("restored %d favorites, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i].Name != want[i].Name || got[i].Category != want[i].Category ||
				got[i].ShareCode != want[i].ShareCode || !got[i].AddedAt.Equal(want[i].AddedAt) {
				t.Errorf("favorite %d = %+v, want %+v", i, got[i], want[i])
			}
		}
		if dst.svc.Snapshot().Version() < res.Version {
			t.Errorf("restored version %d is behind export %d", dst.svc.Snapshot().Version(), res.Version)
		}
	})

	t.Run("short codes survive", func(t *testing.T) {
		src := newFixture(t)
		short, err := src.svc.ShareCode(testutil.Record("", 7), true)
		if err != nil {
			t.Fatalf("ShareCode() error = %v", err)
		}
		rec := testutil.Record("short.bin", 7)
		rec.ShareCode = short
		if _, err := src.svc.AddFavorite(rec); err != nil {
			t.Fatalf("AddFavorite() error = %v", err)
		}
		if _, err := src.svc.Export("host-1"); err != nil {
			t.Fatalf("Export() error = %v", err)
		}

		dst := newFixtureWith(t, testutil.NewTestDatabase(t), src.vault, src.enc)
		if _, err := dst.svc.Restore("host-1", "any"); err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		view, err := dst.svc.Resolve(rec)
		if err != nil {
			t.Fatalf("Resolve(short) on restored host error = %v", err)
		}
		if !view.Favorite || view.Info != testutil.ShareInfo(7) {
			t.Errorf("view = %+v", view)
		}
		long, err := dst.db.ExpandShortCode(short)
		if err != nil || long != testutil.Record("", 7).ShareCode {
			t.Errorf("stored expansion = %q, %v; want the long code", long, err)
		}
	})

	t.Run("failed restore stores no short codes", func(t *testing.T) {
		src := newFixture(t)
		short, err := src.svc.ShareCode(testutil.Record("", 8), true)
		if err != nil {
			t.Fatalf("ShareCode() error = %v", err)
		}
		rec := testutil.Record("short.bin", 8)
		rec.ShareCode = short
		src.svc.AddFavorite(rec)
		if _, err := src.svc.Export("host-1"); err != nil {
			t.Fatalf("Export() error = %v", err)
		}

		dst := newFixtureWith(t, testutil.NewTestDatabase(t), src.vault, src.enc)
		if _, err := dst.svc.Restore("host-2", "any"); err == nil {
			t.Fatal("Restore() of another host's missing export error = nil")
		}
		if long, err := dst.db.ExpandShortCode(short); err != nil || long != "" {
			t.Errorf("ExpandShortCode() after failed restore = %q, %v; want empty", long, err)
		}
	})

	t.Run("restore replaces local favorites", func(t *testing.T) {
		src := newFixture(t)
		src.svc.AddFavorite(testutil.Record("remote", 1))
		if _, err := src.svc.Export("host-1"); err != nil {
			t.Fatalf("Export() error = %v", err)
		}

		dst := newFixtureWith(t, testutil.NewTestDatabase(t), src.vault, src.enc)
		for i := 0; i < 5; i++ {
			dst.svc.AddFavorite(testutil.Record("local", 100+i))
		}
		before := dst.svc.Snapshot().Version()

		if _, err := dst.svc.Restore("host-1", "any"); err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if got := favoriteNames(dst.svc); len(got) != 1 || got[0] != "remote" {
			t.Errorf("favorites = %v, want [remote]", got)
		}
		if dst.svc.Snapshot().Version() <= before {
			t.Errorf("version went from %d to %d", before, dst.svc.Snapshot().Version())
		}
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		enc := testutil.NewTestEncryptor()
		if err := enc.Setup("right"); err != nil {
			t.Fatal(err)
		}
		f := newFixtureWith(t, testutil.NewTestDatabase(t), testutil.NewTestVault(), enc)
		f.svc.AddFavorite(testutil.Record("a", 1))
		if _, err := f.svc.Export("host-1"); err != nil {
			t.Fatalf("Export() error = %v", err)
		}

		if _, err := f.svc.Restore("host-1", "wrong"); !errors.Is(err, encryption.ErrWrongPassphrase) {
			t.Errorf("Restore() error = %v, want ErrWrongPassphrase", err)
		}
		if len(f.svc.Favorites("")) != 1 {
			t.Error("failed restore changed the registry")
		}
	})

	t.Run("export needs keys", func(t *testing.T) {
		f := newFixtureWith(t, testutil.NewTestDatabase(t), testutil.NewTestVault(), encryption.NewUnconfiguredTestEncryptor())
		if _, err := f.svc.Export("host-1"); err == nil {
			t.Error("Export() expected error without keys")
		}
	})

	t.Run("restore of a missing export", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.Restore("nobody", "any"); err == nil {
			t.Error("Restore() expected error for missing export")
		}
		if v, err := f.svc.RemoteVersion("nobody"); err != nil || v != 0 {
			t.Errorf("RemoteVersion() = %d, %v; want 0, nil", v, err)
		}
	})
}

func TestService_History(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"AddFavorite", "Rename", "RemoveFavorite"} {
		if _, err := f.db.CreateOperation(name, ""); err != nil {
			t.Fatalf("CreateOperation() error = %v", err)
		}
	}

	ops, err := f.svc.History(2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(ops) != 2 || ops[0].Operation != "RemoveFavorite" {
		t.Errorf("History(2) = %+v", ops)
	}

	all, err := f.svc.History(0)
	if err != nil || len(all) != 3 {
		t.Errorf("History(0) = %d ops, %v; want 3", len(all), err)
	}
}
