package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/papyrusini/internal/ini/cache"
	"github.com/dshills/papyrusini/internal/ini/flatfile"
	"github.com/dshills/papyrusini/internal/ini/value"
)

const dataDir = "/Data"

// countingFs counts files opened for writing.
type countingFs struct {
	afero.Fs
	writes atomic.Int64
}

func (c *countingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		c.writes.Add(1)
	}
	return c.Fs.OpenFile(name, flag, perm)
}

func (c *countingFs) Create(name string) (afero.File, error) {
	c.writes.Add(1)
	return c.Fs.Create(name)
}

func newTestStore(t *testing.T) (*Store, *countingFs) {
	t.Helper()
	fs := &countingFs{Fs: afero.NewMemMapFs()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := flatfile.New(fs)
	registry := cache.New(backend, cache.WithLogger(logger))
	return New(registry, backend, WithDataDir(dataDir), WithLogger(logger)), fs
}

func fileContent(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

var sampleValues = []value.Value{
	value.Int(42),
	value.Int(-7),
	value.Float(0.75),
	value.Float(-1234.5),
	value.Bool(true),
	value.Bool(false),
	value.String("Dragon Slayer"),
	value.String(""),
}

func TestStore_RoundTrip(t *testing.T) {
	for _, useCache := range []bool{true, false} {
		s, _ := newTestStore(t)
		for i, v := range sampleValues {
			key := "k" + string(rune('a'+i))
			s.Write("cfg.ini", "Section", key, v, useCache)

			got := s.Read("cfg.ini", "Section", key, value.Zero(v.Kind()), useCache)
			if v.Kind() == value.KindFloat {
				assert.InDelta(t, v.AsFloat(), got.AsFloat(), 1e-9)
				continue
			}
			assert.True(t, v.Equal(got), "cache=%v: wrote %v, read %v", useCache, v, got)
		}
	}
}

func TestStore_StringWithReferenceRoundTrip(t *testing.T) {
	for _, useCache := range []bool{true, false} {
		s, _ := newTestStore(t)
		s.Write("cfg.ini", "s", "Name", value.String("Bob"), useCache)
		s.Write("cfg.ini", "s", "Greeting", value.String("hi %(Name)s"), useCache)

		got := s.Read("cfg.ini", "s", "Greeting", value.String(""), useCache)
		assert.Equal(t, "hi %(Name)s", got.AsString(), "cache=%v", useCache)

		require.NoError(t, s.Close("cfg.ini"))
		got = s.Read("cfg.ini", "s", "Greeting", value.String(""), false)
		assert.Equal(t, "hi %(Name)s", got.AsString(), "cache=%v after close", useCache)
	}
}

func TestStore_DefaultOnMiss(t *testing.T) {
	s, _ := newTestStore(t)
	s.Write("cfg.ini", "Section", "present", value.Int(1), false)

	for _, useCache := range []bool{true, false} {
		for _, def := range sampleValues {
			got := s.Read("cfg.ini", "Section", "absent", def, useCache)
			assert.True(t, def.Equal(got), "existing file, cache=%v", useCache)

			got = s.Read("nothing.ini", "Section", "absent", def, useCache)
			assert.True(t, def.Equal(got), "missing file, cache=%v", useCache)
		}
	}
}

func TestStore_UndecodableReturnsDefault(t *testing.T) {
	s, _ := newTestStore(t)
	s.Write("cfg.ini", "s", "k", value.String("abc"), false)

	assert.Equal(t, int64(5), s.Read("cfg.ini", "s", "k", value.Int(5), false).AsInt())
	assert.InDelta(t, 2.5, s.Read("cfg.ini", "s", "k", value.Float(2.5), true).AsFloat(), 0)
	assert.True(t, s.Read("cfg.ini", "s", "k", value.Bool(true), false).AsBool())
}

func TestStore_DirectWriteIsImmediate(t *testing.T) {
	s, fs := newTestStore(t)

	s.Write("mod/cfg.ini", "Gameplay", "Difficulty", value.Int(3), false)

	assert.False(t, s.Registry().Has("/Data/mod/cfg.ini"))
	assert.Contains(t, fileContent(t, fs, "/Data/mod/cfg.ini"), "Difficulty")
}

func TestStore_CachedWriteIsDeferred(t *testing.T) {
	s, fs := newTestStore(t)

	s.Write("cfg.ini", "Gameplay", "Difficulty", value.Int(3), true)
	exists, err := afero.Exists(fs, "/Data/cfg.ini")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Close("cfg.ini"))
	assert.Contains(t, fileContent(t, fs, "/Data/cfg.ini"), "Difficulty")
}

func TestStore_DirtySuppression(t *testing.T) {
	s, fs := newTestStore(t)
	s.Write("cfg.ini", "s", "k", value.Int(1), false)
	before := fs.writes.Load()

	assert.Equal(t, int64(1), s.Read("cfg.ini", "s", "k", value.Int(0), true).AsInt())
	assert.True(t, s.Has("cfg.ini", "s", "k", value.KindInt, true))
	require.NoError(t, s.Close("cfg.ini"))

	assert.Equal(t, before, fs.writes.Load())
}

func TestStore_DirectWriteUpdatesCache(t *testing.T) {
	s, fs := newTestStore(t)
	s.Open("cfg.ini")

	s.Write("cfg.ini", "s", "k", value.Int(9), false)

	assert.Equal(t, int64(9), s.Read("cfg.ini", "s", "k", value.Int(0), true).AsInt())
	assert.Contains(t, fileContent(t, fs, "/Data/cfg.ini"), "9")
}

func TestStore_DirectReadUsesCache(t *testing.T) {
	s, fs := newTestStore(t)

	s.Write("cfg.ini", "s", "k", value.String("cached"), true)
	assert.Equal(t, "cached", s.Read("cfg.ini", "s", "k", value.String(""), false).AsString())
	assert.True(t, s.Has("cfg.ini", "s", "k", value.KindString, false))

	// Once closed, the direct path reads the flushed file.
	require.NoError(t, s.Close("cfg.ini"))
	require.NoError(t, afero.WriteFile(fs.Fs, "/Data/cfg.ini", []byte("[s]\nk=disk\n"), 0o644))
	assert.Equal(t, "disk", s.Read("cfg.ini", "s", "k", value.String(""), false).AsString())
	assert.False(t, s.Registry().Has("/Data/cfg.ini"))
}

func TestStore_Has(t *testing.T) {
	for _, useCache := range []bool{true, false} {
		s, _ := newTestStore(t)

		s.Write("cfg.ini", "s", "flag", value.Bool(true), useCache)
		assert.True(t, s.Has("cfg.ini", "s", "flag", value.KindBool, useCache))
		assert.False(t, s.Has("cfg.ini", "s", "untouched", value.KindBool, useCache))
		assert.False(t, s.Has("missing.ini", "s", "flag", value.KindBool, useCache))

		s.Write("cfg.ini", "s", "name", value.String("abc"), useCache)
		assert.True(t, s.Has("cfg.ini", "s", "name", value.KindString, useCache))
		assert.False(t, s.Has("cfg.ini", "s", "name", value.KindInt, useCache))
		assert.False(t, s.Has("cfg.ini", "s", "name", value.KindFloat, useCache))

		// Values equal to zero still count as present.
		s.Write("cfg.ini", "s", "zero", value.Int(0), useCache)
		assert.True(t, s.Has("cfg.ini", "s", "zero", value.KindInt, useCache))
	}
}

func TestStore_ReadExSeedsDefaults(t *testing.T) {
	for _, useCache := range []bool{true, false} {
		s, fs := newTestStore(t)

		got := s.ReadEx("defaults.ini", "user.ini", "sec", "k", value.Int(42), useCache)
		assert.Equal(t, int64(42), got.AsInt())

		require.NoError(t, s.CloseAll(context.Background()))
		assert.Equal(t, int64(42), s.Read("defaults.ini", "sec", "k", value.Int(0), false).AsInt())
		assert.Contains(t, fileContent(t, fs, "/Data/defaults.ini"), "42")

		exists, err := afero.Exists(fs, "/Data/user.ini")
		require.NoError(t, err)
		assert.False(t, exists, "user file must not be created")
	}
}

func TestStore_ReadExPrecedence(t *testing.T) {
	s, _ := newTestStore(t)
	s.Write("defaults.ini", "sec", "k", value.Int(10), false)

	// Defaults file wins over the caller default.
	assert.Equal(t, int64(10), s.ReadEx("defaults.ini", "user.ini", "sec", "k", value.Int(1), false).AsInt())

	// User file wins over both.
	s.Write("user.ini", "sec", "k", value.Int(20), false)
	assert.Equal(t, int64(20), s.ReadEx("defaults.ini", "user.ini", "sec", "k", value.Int(1), false).AsInt())

	// The defaults file is not overwritten once it has the key.
	assert.Equal(t, int64(10), s.Read("defaults.ini", "sec", "k", value.Int(0), false).AsInt())
}

func TestStore_ReadExRepairsUndecodableDefault(t *testing.T) {
	s, _ := newTestStore(t)
	s.Write("defaults.ini", "sec", "k", value.String("oops"), false)

	got := s.ReadEx("defaults.ini", "user.ini", "sec", "k", value.Int(7), false)
	assert.Equal(t, int64(7), got.AsInt())
	assert.Equal(t, int64(7), s.Read("defaults.ini", "sec", "k", value.Int(0), false).AsInt())
}

func TestStore_MalformedSettingName(t *testing.T) {
	s, fs := newTestStore(t)

	for _, name := range []string{"nocolon", ":section", "key:", ""} {
		s.WriteSetting("cfg.ini", name, value.Int(5), false)
		s.WriteSetting("cfg.ini", name, value.Int(5), true)
		assert.Equal(t, int64(-1), s.ReadSetting("cfg.ini", name, value.Int(-1), false).AsInt())
		assert.False(t, s.HasSetting("cfg.ini", name, value.KindInt, true))
		assert.Equal(t, int64(-1), s.ReadSettingEx("d.ini", "cfg.ini", name, value.Int(-1), false).AsInt())
	}

	assert.Equal(t, int64(-1), s.Read("cfg.ini", "nocolon", "nocolon", value.Int(-1), false).AsInt())
	assert.Equal(t, 0, s.Registry().Len())
	assert.Equal(t, int64(0), fs.writes.Load())
}

func TestStore_EmptySectionOrKeyIsIgnored(t *testing.T) {
	s, fs := newTestStore(t)

	s.Write("cfg.ini", "", "k", value.Int(1), false)
	s.Write("cfg.ini", "s", "", value.Int(1), true)

	assert.False(t, s.Has("cfg.ini", "", "k", value.KindInt, false))
	assert.Equal(t, int64(3), s.ReadEx("d.ini", "u.ini", "s", "", value.Int(3), false).AsInt())
	assert.Equal(t, int64(0), fs.writes.Load())
}

func TestStore_SettingSurvivesCloseAndReload(t *testing.T) {
	s, _ := newTestStore(t)

	s.WriteSetting("cfg.ini", "Gameplay:Difficulty", value.Int(3), true)
	assert.Equal(t, int64(3), s.ReadSetting("cfg.ini", "Gameplay:Difficulty", value.Int(0), true).AsInt())

	require.NoError(t, s.Close("cfg.ini"))
	assert.False(t, s.Registry().Has("/Data/cfg.ini"))

	assert.Equal(t, int64(3), s.ReadSetting("cfg.ini", "Gameplay:Difficulty", value.Int(0), true).AsInt())
	assert.True(t, s.Registry().Has("/Data/cfg.ini"))
}

func TestStore_SettingNameOrder(t *testing.T) {
	s, _ := newTestStore(t)

	s.WriteSetting("cfg.ini", "Difficulty:Gameplay", value.Int(4), false)

	assert.Equal(t, int64(4), s.Read("cfg.ini", "Gameplay", "Difficulty", value.Int(0), false).AsInt())
	assert.True(t, s.HasSetting("cfg.ini", "Difficulty:Gameplay", value.KindInt, false))
	assert.Equal(t, int64(4), s.ReadSettingEx("d.ini", "cfg.ini", "Difficulty:Gameplay", value.Int(0), false).AsInt())
}

func TestStore_FlushKeepsEntry(t *testing.T) {
	s, fs := newTestStore(t)

	s.Write("cfg.ini", "s", "k", value.Int(1), true)
	require.NoError(t, s.Flush("cfg.ini"))

	assert.True(t, s.Registry().Has("/Data/cfg.ini"))
	assert.Contains(t, fileContent(t, fs, "/Data/cfg.ini"), "k")
}

func TestStore_Resolve(t *testing.T) {
	s, _ := newTestStore(t)

	tests := []struct {
		in   string
		want string
	}{
		{"cfg.ini", "/Data/cfg.ini"},
		{"mod/cfg.ini", "/Data/mod/cfg.ini"},
		{`mod\cfg.ini`, "/Data/mod/cfg.ini"},
		{"mod/../cfg.ini", "/Data/cfg.ini"},
		{"./cfg.ini", "/Data/cfg.ini"},
		{"/abs/cfg.ini", "/abs/cfg.ini"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Resolve(tt.in), tt.in)
	}
}

func TestStore_EquivalentPathsShareEntry(t *testing.T) {
	s, _ := newTestStore(t)

	s.Write("mod/../cfg.ini", "s", "k", value.Int(1), true)
	assert.Equal(t, int64(1), s.Read("cfg.ini", "s", "k", value.Int(0), true).AsInt())
	assert.Equal(t, 1, s.Registry().Len())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abcdef", Truncate("abcdef", -1))
	assert.Equal(t, "", Truncate("", 4))
	// "é" is two bytes and is not split.
	assert.Equal(t, "caf", Truncate("café", 4))
	assert.Equal(t, "café", Truncate("café", 5))
	// "e" plus a combining accent is one cluster of three bytes.
	assert.Equal(t, "", Truncate("e\u0301", 2))
	assert.Equal(t, "a", Truncate("ae\u0301", 3))
}

func TestStore_CorruptFileDirectWriteLeavesFile(t *testing.T) {
	s, fs := newTestStore(t)
	require.NoError(t, afero.WriteFile(fs.Fs, "/Data/bad.ini", []byte("[broken\n"), 0o644))

	s.Write("bad.ini", "s", "k", value.Int(1), false)
	assert.Equal(t, "[broken\n", fileContent(t, fs, "/Data/bad.ini"))
	assert.Equal(t, int64(2), s.Read("bad.ini", "s", "k", value.Int(2), false).AsInt())
}

func newOSStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := flatfile.NewOS()
	registry := cache.New(backend, cache.WithLogger(logger))
	return New(registry, backend, WithDataDir(t.TempDir()), WithLogger(logger))
}

func TestStore_ConcurrentDirectWrites(t *testing.T) {
	s := newOSStore(t)

	const (
		writers = 16
		rounds  = 20
	)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				key := fmt.Sprintf("k%d_%d", w, r)
				s.Write("cfg.ini", "s", key, value.Int(int64(w*rounds+r)), false)
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < writers; w++ {
		for r := 0; r < rounds; r++ {
			key := fmt.Sprintf("k%d_%d", w, r)
			require.True(t, s.Has("cfg.ini", "s", key, value.KindInt, false), "lost %s", key)
			assert.Equal(t, int64(w*rounds+r), s.Read("cfg.ini", "s", key, value.Int(-1), false).AsInt())
		}
	}
}

func TestStore_DirectWritesRaceCachedClose(t *testing.T) {
	s := newOSStore(t)

	const n = 30

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.Write("cfg.ini", "s", fmt.Sprintf("direct%d", i), value.Int(int64(i)), false)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.Write("cfg.ini", "s", fmt.Sprintf("cached%d", i), value.Int(int64(i)), true)
			assert.NoError(t, s.Close("cfg.ini"))
		}
	}()
	wg.Wait()

	require.NoError(t, s.CloseAll(context.Background()))
	require.False(t, s.Registry().Has(s.Resolve("cfg.ini")))

	for i := 0; i < n; i++ {
		for _, prefix := range []string{"direct", "cached"} {
			key := fmt.Sprintf("%s%d", prefix, i)
			assert.True(t, s.Has("cfg.ini", "s", key, value.KindInt, false), "lost %s", key)
		}
	}
}

func TestStore_ConcurrentDirectReadsAndWrites(t *testing.T) {
	s := newOSStore(t)
	s.Write("cfg.ini", "s", "stable", value.String("Whiterun"), false)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for r := 0; r < 10; r++ {
				s.Write("cfg.ini", "s", fmt.Sprintf("k%d_%d", w, r), value.Bool(true), false)
			}
		}(w)
		go func() {
			defer wg.Done()
			for r := 0; r < 10; r++ {
				assert.Equal(t, "Whiterun", s.Read("cfg.ini", "s", "stable", value.String(""), false).AsString())
			}
		}()
	}
	wg.Wait()
}
