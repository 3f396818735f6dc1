package models

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/asdine/storm"
	gobcodec "github.com/asdine/storm/codec/gob"
	bolt "github.com/coreos/bbolt"
	"github.com/labstack/gommon/log"
)

//ModelDB is thread safe
type ModelDB struct {
	db   *storm.DB
	lock sync.Mutex
	Name string
}

var bucketMeta = "meta"

const dbVersion = 1

// FileExists reports whether the named file or directory exists.
func FileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

//OpenDb open or create a bolt db at dbPath
func OpenDb(dbPath string) (model *ModelDB, err error) {
	model = &ModelDB{}
	needCreateDb := !FileExists(dbPath)
	var ver int
	model.db, err = storm.Open(dbPath, storm.BoltOptions(os.ModePerm, &bolt.Options{Timeout: 1 * time.Second}), storm.Codec(gobcodec.Codec))
	if err != nil {
		err = fmt.Errorf("cannot create or open db:%s,makesure you have write permission err:%v", dbPath, err)
		return
	}
	model.Name = dbPath
	if needCreateDb {
		err = model.db.Set(bucketMeta, "version", dbVersion)
		if err != nil {
			return
		}
		model.MarkDbOpenedStatus()
	} else {
		err = model.db.Get(bucketMeta, "version", &ver)
		if err != nil {
			err = fmt.Errorf("wrong db file format: %s", err)
			return
		}
		if ver != dbVersion {
			err = fmt.Errorf("db version not match, got %d want %d", ver, dbVersion)
			return
		}
		if model.IsDbCrashedLastTime() {
			log.Warn("database not closed last time")
		}
		model.MarkDbOpenedStatus()
	}
	return
}

//MarkDbOpenedStatus mark the db as in use, cleared again by CloseDB
func (m *ModelDB) MarkDbOpenedStatus() {
	err := m.db.Set(bucketMeta, "close", false)
	if err != nil {
		log.Errorf("MarkDbOpenedStatus err %s", err)
	}
}

//IsDbCrashedLastTime return true when quit but db not closed
func (m *ModelDB) IsDbCrashedLastTime() bool {
	var closeFlag bool
	err := m.db.Get(bucketMeta, "close", &closeFlag)
	if err != nil {
		log.Errorf("db meta data error: %s", err)
		return false
	}
	return closeFlag != true
}

//CloseDB close db
func (m *ModelDB) CloseDB() {
	m.lock.Lock()
	err := m.db.Set(bucketMeta, "close", true)
	if err != nil {
		log.Errorf("set close err %s", err)
	}
	err = m.db.Close()
	if err != nil {
		log.Errorf("close db err %s", err)
	}
	m.lock.Unlock()
}
