package nvdlib

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DBRow mirrors one cached CVE record.
type DBRow struct {
	Id               int
	Hash             string
	CVEID            string
	Keyword          string
	PublishedDate    string
	LastModifiedDate string
	Level            string
}

// InitDB opens the local cache under the store directory, creating
// both on first use.
func (c *Client) InitDB() error {
	dir, err := getStoreDir()
	if err != nil {
		log.Printf("failed to get store dir, error: %v", err)
		return err
	}

	if !exists(dir) {
		if err := mkFolder(dir); err != nil {
			log.Printf("failed to create folder, error: %v", err)
			return err
		}
	}

	c.Store = dir
	dbPath := filepath.Join(dir, "cvewatch.db")

	var db *sql.DB
	if !exists(dbPath) {
		file, err := os.Create(dbPath)
		if err != nil {
			return err
		}
		file.Close()

		db, _ = sql.Open("sqlite3", dbPath)
		cveTable := `CREATE TABLE cves (
			"ID" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			"Hash" TEXT UNIQUE,
			"CVEID" TEXT,
			"Keyword" TEXT,
			"PublishedDate" TEXT,
			"LastModifiedDate" TEXT,
			"Level" TEXT);`
		query, err := db.Prepare(cveTable)
		if err != nil {
			return err
		}
		query.Exec()
	} else {
		db, _ = sql.Open("sqlite3", dbPath)
	}

	c.DB = db
	return nil
}

// SaveResults caches a fetched list under the keyword that produced
// it. Rows already present are skipped.
func (c *Client) SaveResults(keyword string, rl *ResultList) error {
	for _, cve := range rl.Results {
		hash := md5.Sum([]byte(fmt.Sprintf("%s%s", cve.CVEID, keyword)))
		sqlRow := `INSERT INTO cves
					  ("Hash", "CVEID", "Keyword", "PublishedDate", "LastModifiedDate", "Level")
				   VALUES
					  (?, ?, ?, ?, ?, ?)`

		_, err := c.DB.Exec(sqlRow, hex.EncodeToString(hash[:]), cve.CVEID, keyword,
			cve.PublishedDate.Format(itemDateLayout),
			cve.LastModifiedDate.Format(itemDateLayout),
			string(cve.Level))

		if err != nil {
			if strings.Contains(err.Error(), "cves.Hash") {
				continue
			}
			return err
		}
	}

	return nil
}

// QueryByCVEID returns the cached rows of one CVE number.
func (c *Client) QueryByCVEID(cveID string) ([]*DBRow, error) {
	sqlRow := `SELECT * FROM cves WHERE cveid = ?`
	return c.queryRows(sqlRow, cveID)
}

// QueryByKeyword returns every row cached under a search keyword.
func (c *Client) QueryByKeyword(keyword string) ([]*DBRow, error) {
	sqlRow := `SELECT * FROM cves WHERE keyword = ?`
	return c.queryRows(sqlRow, keyword)
}

func (c *Client) queryRows(sqlRow string, arg string) ([]*DBRow, error) {
	dbRows := []*DBRow{}

	rows, err := c.DB.Query(sqlRow, arg)
	if err != nil {
		return dbRows, err
	}

	defer rows.Close()

	for rows.Next() {
		r := &DBRow{}
		err = rows.Scan(&r.Id, &r.Hash, &r.CVEID,
			&r.Keyword, &r.PublishedDate, &r.LastModifiedDate, &r.Level)

		if err != nil {
			continue
		}

		dbRows = append(dbRows, r)
	}

	if err = rows.Err(); err != nil {
		return dbRows, err
	}

	return dbRows, nil
}

func getStoreDir() (string, error) {
	if runtime.GOOS == "windows" {
		dir, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "cvewatchdata"), nil
	}

	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".cvewatch"), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsExist(err) {
			return true
		}

		return false
	}
	return true
}

func mkFolder(path string) error {
	if !exists(path) {
		err := os.MkdirAll(path, os.FileMode(0755))
		if err != nil {
			return err
		}
	}
	return nil
}
