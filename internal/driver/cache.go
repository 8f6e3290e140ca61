package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"callconv/internal/catalog"
	"callconv/internal/types"
	"callconv/internal/version"
)

// Bump when FunctionReport or the key derivation changes.
const diskCacheSchemaVersion uint16 = 1

// Digest is a SHA-256 cache key.
type Digest [32]byte

// DiskCache stores function reports by content key. It is safe for
// concurrent use by the lowering workers.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the on-disk record for one function.
type DiskPayload struct {
	Schema  uint16
	Version string
	Report  FunctionReport
}

// OpenDiskCache opens the cache in dir, or in $XDG_CACHE_HOME/callconv
// (~/.cache/callconv) when dir is empty.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "callconv")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir is the cache root.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "fn", hexKey[:2], hexKey+".mp")
}

// Put writes a report through a temporary file and an atomic rename.
func (c *DiskCache) Put(key Digest, report *FunctionReport) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	payload := DiskPayload{Schema: diskCacheSchemaVersion, Version: version.Version, Report: *report}
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a report. Entries from another schema or build are misses.
func (c *DiskCache) Get(key Digest) (*FunctionReport, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var payload DiskPayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	if payload.Schema != diskCacheSchemaVersion || payload.Version != version.Version {
		return nil, false, nil
	}
	return &payload.Report, true, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// cacheKey hashes everything a function's report depends on: the target
// and its options, the run mode, the signature and the full structure of
// every type it mentions.
func cacheKey(cat *catalog.Catalog, mode Mode, fn catalog.Function) Digest {
	h := sha256.New()
	fmt.Fprintf(h, "schema=%d\x00target=%s\x00rules=%#v\x00mode=%d\x00fn=%s\x00",
		diskCacheSchemaVersion, cat.Target.Name, cat.Target.Rules, mode, fn.Name)
	fp := typePrinter{in: cat.Types, h: h, seen: make(map[types.TypeID]bool)}
	fp.write(fn.Result)
	for _, p := range fn.Params {
		fmt.Fprintf(h, "param=%s\x00", p.Name)
		fp.write(p.Type)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

type typePrinter struct {
	in   *types.Interner
	h    hash.Hash
	seen map[types.TypeID]bool
}

func (p typePrinter) write(id types.TypeID) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(id))
	tt, ok := p.in.Lookup(id)
	if !ok {
		_, _ = p.h.Write([]byte("void\x00"))
		return
	}
	fmt.Fprintf(p.h, "k=%d w=%d n=%d\x00", tt.Kind, tt.Width, tt.Count)
	switch tt.Kind {
	case types.KindPointer:
		// Only the pointee's spelling reaches the report.
		fmt.Fprintf(p.h, "to=%s\x00", p.in.Describe(tt.Elem))
	case types.KindArray, types.KindVector, types.KindComplex:
		p.write(tt.Elem)
	case types.KindStruct, types.KindUnion, types.KindIncomplete:
		if p.seen[id] {
			_, _ = p.h.Write(append([]byte("ref="), buf[:]...))
			return
		}
		p.seen[id] = true
		info, _ := p.in.Record(id)
		align := 0
		if info.Attrs.AlignOverride != nil {
			align = *info.Attrs.AlignOverride
		}
		fmt.Fprintf(p.h, "rec=%s defined=%t packed=%t align=%d qualified=%t\x00",
			info.Name, info.Defined(), info.Attrs.Packed, align, info.Qualified)
		for _, f := range info.Fields {
			falign := 0
			if f.Attrs.AlignOverride != nil {
				falign = *f.Attrs.AlignOverride
			}
			fmt.Fprintf(p.h, "field=%s bits=%d align=%d present=%d\x00", f.Name, f.BitWidth, falign, f.Present)
			p.write(f.Type)
		}
	}
}
