// Package bundle moves tickets between stores as a deterministic TAR archive.
//
// Layout:
//
//	tickets/<cid>   canonical ticket encoding
//	index.json      optional, non-authoritative summary
package bundle

import (
	"archive/tar"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/support/store"
	"xdao.co/support/ticket"
)

const FormatVersion = 1

// ErrEntryTooLarge reports a ticket entry longer than any valid encoding.
var ErrEntryTooLarge = errors.New("bundle: ticket entry too large")

var epoch0 = time.Unix(0, 0).UTC()

// Export writes the tickets named by ids, read from st, to w.
//
// Entries are sorted by CID string and headers are normalized, so the same
// set of tickets always yields the same bytes.
func Export(w io.Writer, st store.Store, ids []cid.Cid, includeIndex bool) error {
	if st == nil {
		return errors.New("bundle: nil store")
	}
	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if err := store.CheckCID(id); err != nil {
			return err
		}
		uniq[id.String()] = id
	}
	names := make([]string, 0, len(uniq))
	for s := range uniq {
		names = append(names, s)
	}
	sort.Strings(names)

	tw := tar.NewWriter(w)
	entries := make([]indexEntry, 0, len(names))
	for _, s := range names {
		r, err := st.Get(uniq[s])
		if err != nil {
			_ = tw.Close()
			return fmt.Errorf("bundle: %s: %w", s, err)
		}
		b := r.Serialize()
		if err := writeFile(tw, "tickets/"+s, b); err != nil {
			_ = tw.Close()
			return err
		}
		entries = append(entries, indexEntry{CID: s, Size: len(b), Value: r.Value()})
	}

	if includeIndex {
		b, err := json.Marshal(index{Version: FormatVersion, Tickets: entries})
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeFile(tw, "index.json", append(b, '\n')); err != nil {
			_ = tw.Close()
			return err
		}
	}
	return tw.Close()
}

// Import reads a bundle and stores every ticket into st, returning the CIDs
// in archive order. Each entry is checked against its file name. Unknown
// entries are rejected.
func Import(r io.Reader, st store.Store) ([]cid.Cid, error) {
	if st == nil {
		return nil, errors.New("bundle: nil store")
	}
	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var out []cid.Cid
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return out, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			return out, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}
		if name == "index.json" {
			continue
		}
		s, ok := strings.CutPrefix(name, "tickets/")
		if !ok {
			return out, fmt.Errorf("bundle: unknown entry: %s", name)
		}
		id, err := cid.Decode(s)
		if err != nil {
			return out, store.ErrInvalidCID
		}
		if _, dup := seen[id.String()]; dup {
			return out, fmt.Errorf("bundle: duplicate ticket entry: %s", id)
		}
		seen[id.String()] = struct{}{}

		if h.Size > ticket.MaxEncodedSize {
			return out, fmt.Errorf("%w: %s is %d bytes", ErrEntryTooLarge, id, h.Size)
		}
		payload, err := io.ReadAll(io.LimitReader(tr, h.Size))
		if err != nil {
			return out, err
		}
		ref, err := store.Decode(id, payload)
		if err != nil {
			return out, fmt.Errorf("bundle: %s: %w", id, err)
		}
		if _, err := st.Put(ref); err != nil {
			return out, err
		}
		out = append(out, id)
	}
}

type index struct {
	Version int          `json:"version"`
	Tickets []indexEntry `json:"tickets"`
}

type indexEntry struct {
	CID   string `json:"cid"`
	Size  int    `json:"size"`
	Value uint32 `json:"value"`
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
