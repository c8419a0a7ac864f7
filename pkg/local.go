package pkg

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

type kv struct {
	// guards closed, badger panics on iterators of a closed db
	mu     sync.RWMutex
	closed bool
	store  *badger.DB
}

// New opens catalog at path
func New(path string, opts ...Option) (DB, error) {
	o := applyOptions(opts)

	opt := badger.DefaultOptions(path)
	opt.Logger = o.logger
	opt.ReadOnly = o.readOnly
	if o.inMemory {
		opt = opt.WithDir("").WithValueDir("").WithInMemory(true)
	}

	d, err := badger.Open(opt)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalog %q", path)
	}

	k := &kv{store: d}
	if !o.readOnly {
		if err := k.initMeta(); err != nil {
			d.Close()
			return nil, err
		}
	}
	return k, nil
}

// acquire holds the db open until release is called
func (k *kv) acquire() (release func(), err error) {
	k.mu.RLock()
	if k.closed {
		k.mu.RUnlock()
		return nil, ErrDBClosed
	}
	return k.mu.RUnlock, nil
}

func (k *kv) initMeta() error {
	_, err := k.meta()
	if errors.Is(err, ErrNotFound) {
		return k.putMeta(&Meta{Version: schemaVersion})
	}
	return err
}

func (k *kv) Compact() error {
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := k.store.Sync(); err != nil {
		return errors.Wrap(err, "sync catalog")
	}
	return errors.Wrap(k.store.Flatten(1), "flatten catalog")
}

func (k *kv) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	return k.store.Close()
}

func putRaw(db *badger.DB, key, val []byte) error {
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func getRaw(db *badger.DB, key []byte) (val []byte, err error) {
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	return
}

func (k *kv) Put(e *Entry) error {
	if e == nil || e.ID == "" {
		return ErrEmptyID
	}
	content, err := bson.Marshal(e)
	if err != nil {
		return errors.Wrapf(err, "marshal entry %q", e.ID)
	}

	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()
	return errors.Wrapf(putRaw(k.store, entryKey(e.ID), content), "put entry %q", e.ID)
}

func (k *kv) Get(id string) (*Entry, error) {
	release, err := k.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	val, err := getRaw(k.store, entryKey(id))
	if err != nil {
		return nil, errors.Wrapf(err, "get entry %q", id)
	}
	e := new(Entry)
	if err := bson.Unmarshal(val, e); err != nil {
		return nil, errors.Wrapf(err, "unmarshal entry %q", id)
	}
	return e, nil
}

func (k *kv) Exists(id string) (yes bool, err error) {
	release, err := k.acquire()
	if err != nil {
		return false, err
	}
	defer release()

	err = k.store.View(func(txn *badger.Txn) error {
		_, err := txn.Get(entryKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				yes = false
				return nil
			}
			return err
		}
		yes = true
		return nil
	})
	return
}

func (k *kv) Delete(id string) error {
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	return k.store.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(id))
	})
}

// Find opens a read transaction, Release must be called before Close
func (k *kv) Find() (Iterator, error) {
	release, err := k.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return k.find(), nil
}

func (k *kv) find() *iterator {
	txn := k.store.NewTransaction(false)
	opt := badger.DefaultIteratorOptions
	opt.Prefix = []byte{dbEntryPrefix}
	return &iterator{
		txn:    txn,
		iter:   txn.NewIterator(opt),
		prefix: opt.Prefix,
	}
}

func (k *kv) Range(offset, limit int) ([]*Entry, error) {
	release, err := k.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	iter := k.find()
	defer iter.Release()

	var (
		ret   []*Entry
		count = 0
	)
	for iter.Next() {
		count++
		if count <= offset {
			continue
		}
		if limit > 0 && len(ret) >= limit {
			break
		}
		e, err := iter.Value()
		if err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	return ret, nil
}

func (k *kv) Count() (int, error) {
	release, err := k.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	count := 0
	err = k.store.View(func(txn *badger.Txn) error {
		opt := badger.DefaultIteratorOptions
		opt.PrefetchValues = false
		opt.Prefix = []byte{dbEntryPrefix}
		it := txn.NewIterator(opt)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (k *kv) Meta() (*Meta, error) {
	release, err := k.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return k.meta()
}

func (k *kv) meta() (*Meta, error) {
	val, err := getRaw(k.store, genKey(dbMetaPrefix, []byte(metaKey)))
	if err != nil {
		return nil, err
	}
	m := new(Meta)
	if err := json.Unmarshal(val, m); err != nil {
		return nil, errors.Wrap(err, "unmarshal catalog meta")
	}
	return m, nil
}

func (k *kv) putMeta(m *Meta) error {
	content, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return putRaw(k.store, genKey(dbMetaPrefix, []byte(metaKey)), content)
}

func (k *kv) SetLastScan(tm time.Time) error {
	release, err := k.acquire()
	if err != nil {
		return err
	}
	defer release()

	m, err := k.meta()
	if err != nil {
		return err
	}
	m.LastScan = tm
	return k.putMeta(m)
}

type iterator struct {
	init   bool
	prefix []byte

	iter *badger.Iterator
	txn  *badger.Txn
}

func (i *iterator) Next() bool {
	if !i.init {
		i.iter.Rewind()
		i.init = true
	} else {
		i.iter.Next()
	}
	return i.iter.ValidForPrefix(i.prefix)
}

func (i *iterator) Key() string {
	return string(i.iter.Item().Key()[len(i.prefix):])
}

func (i *iterator) Value() (*Entry, error) {
	e := new(Entry)
	err := i.iter.Item().Value(func(val []byte) error {
		return bson.Unmarshal(val, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (i *iterator) Release() error {
	i.iter.Close()
	i.txn.Discard()
	return nil
}
