package configlibsql

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenDB(t *testing.T) {
	_, err := Struct{}.OpenDB("")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "records.db")
	schema := "create table if not exists t (x integer);"
	db, err := Struct{File: path}.OpenDB(schema)
	require.NoError(t, err)

	_, err = db.Exec("insert into t (x) values (1)")
	require.NoError(t, err)
	require.FileExists(t, path)
	require.NoError(t, db.Close())

	db, err = Struct{File: path}.OpenDB(schema)
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.QueryRow("select count(*) from t").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestOpenMemoryDB(t *testing.T) {
	db, err := Struct{File: ":memory:"}.OpenDB("create table t (x integer);")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("insert into t (x) values (1)")
	require.NoError(t, err)
}
