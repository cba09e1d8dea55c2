package catalog

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	entriesBucket = []byte("entries")
	metaBucket    = []byte("meta")

	fingerprintKey = []byte("fingerprint")
	countKey       = []byte("count")
	createdAtKey   = []byte("created_at")
)

// SnapshotInfo describes a packed catalog snapshot.
type SnapshotInfo struct {
	Entries     int    `json:"entries"`
	Fingerprint string `json:"fingerprint"`
	CreatedAt   string `json:"createdAt"`
}

// WriteSnapshot packs a store into a bbolt file, replacing any previous contents.
// Keys are big-endian sequence numbers so iteration preserves load order.
func WriteSnapshot(path string, store *Store) (SnapshotInfo, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return SnapshotInfo{}, errors.New("snapshot path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return SnapshotInfo{}, fmt.Errorf("ensure snapshot dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	info := SnapshotInfo{
		Entries:     store.Len(),
		Fingerprint: store.Fingerprint(),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{entriesBucket, metaBucket} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
		}
		entries, err := tx.CreateBucket(entriesBucket)
		if err != nil {
			return err
		}
		for i, entry := range store.All() {
			value, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("encode entry %d: %w", i, err)
			}
			if err := entries.Put(sequenceKey(i), value); err != nil {
				return err
			}
		}
		meta, err := tx.CreateBucket(metaBucket)
		if err != nil {
			return err
		}
		if err := meta.Put(fingerprintKey, []byte(info.Fingerprint)); err != nil {
			return err
		}
		if err := meta.Put(countKey, []byte(strconv.Itoa(info.Entries))); err != nil {
			return err
		}
		return meta.Put(createdAtKey, []byte(info.CreatedAt))
	})
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("write snapshot: %w", err)
	}
	return info, nil
}

// ReadSnapshotInfo returns the metadata stored alongside a snapshot.
func ReadSnapshotInfo(path string) (SnapshotInfo, error) {
	db, err := openSnapshot(path)
	if err != nil {
		return SnapshotInfo{}, err
	}
	defer db.Close()

	var info SnapshotInfo
	err = db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return errors.New("snapshot has no meta bucket")
		}
		info.Fingerprint = string(meta.Get(fingerprintKey))
		info.CreatedAt = string(meta.Get(createdAtKey))
		count, err := strconv.Atoi(string(meta.Get(countKey)))
		if err != nil {
			return fmt.Errorf("decode entry count: %w", err)
		}
		info.Entries = count
		return nil
	})
	return info, err
}

func readSnapshot(path string) ([]map[string]any, error) {
	db, err := openSnapshot(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var records []map[string]any
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(entriesBucket)
		if bucket == nil {
			return errors.New("snapshot has no entries bucket")
		}
		return bucket.ForEach(func(key, value []byte) error {
			var record map[string]any
			if err := decodeJSONRecord(value, &record); err != nil {
				return fmt.Errorf("decode entry %x: %w", key, err)
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return records, nil
}

func openSnapshot(path string) (*bolt.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	return db, nil
}

func decodeJSONRecord(data []byte, out *map[string]any) error {
	var doc any
	if err := decodeJSON(data, &doc); err != nil {
		return err
	}
	record, ok := doc.(map[string]any)
	if !ok {
		return fmt.Errorf("expected object, got %T", doc)
	}
	*out = record
	return nil
}

func sequenceKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
