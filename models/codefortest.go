package models

import (
	"os"
	"path"
	"testing"
)

//SetupTestDb create a clean test db
func SetupTestDb(t *testing.T) (model *ModelDB) {
	dbPath := path.Join(os.TempDir(), "testyumstake.db")
	err := os.Remove(dbPath)
	err = os.Remove(dbPath + ".lock")
	model, err = OpenDb(dbPath)
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
	return
}
