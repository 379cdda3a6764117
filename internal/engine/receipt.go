package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"tsdoctor/internal/project"
)

// receiptSchemaVersion is bumped whenever Receipt changes shape; receipts with
// another schema are treated as absent.
const receiptSchemaVersion uint16 = 1

const receiptFile = "receipt.mp"

// Receipt records a completed installation. Its presence (with a matching
// package.json digest) is what makes a cache directory warm.
type Receipt struct {
	Schema      uint16
	Package     string
	Version     string
	InstalledAt time.Time
	// ManifestDigest is the hash of node_modules/<package>/package.json.
	ManifestDigest project.Digest
	Dir            string `msgpack:"-"`
}

func writeReceipt(dir string, r *Receipt) error {
	r.Schema = receiptSchemaVersion
	f, err := os.CreateTemp(dir, "receipt-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		_ = os.Remove(tmp)
	}()
	if err := msgpack.NewEncoder(f).Encode(r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, receiptFile))
}

// readReceipt returns (nil, nil) when dir holds no usable receipt.
func readReceipt(dir string) (*Receipt, error) {
	f, err := os.Open(filepath.Join(dir, receiptFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var r Receipt
	if err := msgpack.NewDecoder(f).Decode(&r); err != nil {
		return nil, fmt.Errorf("corrupt receipt in %s: %w", dir, err)
	}
	if r.Schema != receiptSchemaVersion {
		return nil, nil
	}
	r.Dir = dir
	return &r, nil
}
