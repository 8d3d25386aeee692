package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/claimsift/claimsift/internal/clause"
)

const (
	// VectorsExt is the extension of the binary vector artifact.
	VectorsExt = ".vectors"

	// MetaExt is the extension of the clause metadata artifact.
	MetaExt = ".meta"

	// vectorsMagic identifies the binary vector file format.
	vectorsMagic = uint32(0x43535658) // "CSVX"

	// vectorsVersion is the current format version. Increment on
	// breaking changes to the layout.
	vectorsVersion = uint32(1)
)

// Save persists the index as two co-located artifacts sharing a path
// prefix: <prefix>.vectors (binary header + float32 vectors in
// insertion order) and <prefix>.meta (JSONL clause list in the same
// order). Both files are written to temp paths first and renamed, so a
// failed save never leaves a half-written pair behind.
func (idx *Index) Save(prefix string) error {
	vecPath := prefix + VectorsExt
	metaPath := prefix + MetaExt

	vecTmp := vecPath + ".tmp"
	if err := idx.writeVectors(vecTmp); err != nil {
		os.Remove(vecTmp)
		return err
	}

	metaTmp := metaPath + ".tmp"
	if err := clause.WriteAll(metaTmp, idx.clauses); err != nil {
		os.Remove(vecTmp)
		os.Remove(metaTmp)
		return fmt.Errorf("writing clause metadata: %w", err)
	}

	if err := os.Rename(vecTmp, vecPath); err != nil {
		os.Remove(vecTmp)
		os.Remove(metaTmp)
		return fmt.Errorf("renaming vectors file: %w", err)
	}
	if err := os.Rename(metaTmp, metaPath); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("renaming meta file: %w", err)
	}

	return nil
}

// Load restores an index from the artifact pair at the given prefix.
// A missing or mismatched artifact is reported as ErrCorruptIndex: the
// pair is only valid together.
func Load(prefix string) (*Index, error) {
	vecPath := prefix + VectorsExt
	metaPath := prefix + MetaExt

	if _, err := os.Stat(vecPath); err != nil {
		return nil, fmt.Errorf("%w: missing vectors file %s", ErrCorruptIndex, vecPath)
	}
	if _, err := os.Stat(metaPath); err != nil {
		return nil, fmt.Errorf("%w: missing meta file %s", ErrCorruptIndex, metaPath)
	}

	idx, err := readVectors(vecPath)
	if err != nil {
		return nil, err
	}

	clauses, err := clause.ReadAll(metaPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading clause metadata: %v", ErrCorruptIndex, err)
	}
	if len(clauses) != len(idx.vectors) {
		return nil, fmt.Errorf("%w: %d vectors but %d clauses", ErrCorruptIndex, len(idx.vectors), len(clauses))
	}
	idx.clauses = clauses

	return idx, nil
}

// vectorsHeader is the fixed-size header of the binary vectors file.
type vectorsHeader struct {
	Magic   uint32
	Version uint32
	Count   uint64
	Dim     uint32
}

func (idx *Index) writeVectors(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating vectors file: %w", err)
	}

	w := bufio.NewWriter(f)

	hdr := vectorsHeader{
		Magic:   vectorsMagic,
		Version: vectorsVersion,
		Count:   uint64(len(idx.vectors)),
		Dim:     uint32(idx.dim),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		f.Close()
		return fmt.Errorf("writing vectors header: %w", err)
	}

	for i, v := range idx.vectors {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			f.Close()
			return fmt.Errorf("writing vector %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flushing vectors file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing vectors file: %w", err)
	}
	return nil
}

func readVectors(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening vectors file: %v", ErrCorruptIndex, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var hdr vectorsHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading vectors header: %v", ErrCorruptIndex, err)
	}
	if hdr.Magic != vectorsMagic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrCorruptIndex, hdr.Magic)
	}
	if hdr.Version != vectorsVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruptIndex, hdr.Version)
	}
	if hdr.Dim == 0 {
		return nil, fmt.Errorf("%w: zero dimensionality", ErrCorruptIndex)
	}

	idx := &Index{dim: int(hdr.Dim)}
	idx.vectors = make([][]float32, 0, hdr.Count)
	for i := uint64(0); i < hdr.Count; i++ {
		v := make([]float32, hdr.Dim)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("%w: reading vector %d: %v", ErrCorruptIndex, i, err)
		}
		idx.vectors = append(idx.vectors, v)
	}

	return idx, nil
}

// Exists reports whether both index artifacts are present at the prefix.
func Exists(prefix string) bool {
	if _, err := os.Stat(prefix + VectorsExt); err != nil {
		return false
	}
	_, err := os.Stat(prefix + MetaExt)
	return err == nil
}
