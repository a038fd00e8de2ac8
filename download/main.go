package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// Downloads every recorded run from the database into one directory per
// user, with filenames that carry the moment of the run and the versions it
// was recorded with. The versions in the filename tell me, before even
// opening the file, which executable can replay it.

func main() {
	DownloadRuns()
}

func DownloadRuns() {
	db := ConnectToDbSql()
	rows, err := db.Query("SELECT " +
		"start_moment, " +
		"user, " +
		"release_version, " +
		"simulation_version, " +
		"input_version, " +
		"id, " +
		"run " +
		"FROM runs")
	Check(err)
	defer func(rows *sql.Rows) { Check(rows.Close()) }(rows)

	dbRows := []dbRow{}
	for rows.Next() {
		row := dbRow{}
		err = rows.Scan(&row.startMoment, &row.user, &row.releaseVersion,
			&row.simulationVersion, &row.inputVersion, &row.id, &row.data)
		Check(err)
		dbRows = append(dbRows, row)
	}

	for i := range dbRows {
		dir := dbRows[i].user
		_ = os.Mkdir(dir, 0755)
		m := dbRows[i].startMoment
		filename := fmt.Sprintf(
			"%s/%d%02d%02d-%02d%02d%02d.phylosim-%d-%d", dir, m.Year(),
			m.Month(), m.Day(), m.Hour(), m.Minute(), m.Second(),
			dbRows[i].simulationVersion, dbRows[i].inputVersion)
		WriteFile(filename, dbRows[i].data)
	}
}

func ConnectToDbSql() *sql.DB {
	cfg := mysql.Config{
		User:                 os.Getenv("PHYLOSIM_DBUSER"),
		Passwd:               os.Getenv("PHYLOSIM_DBPASSWORD"),
		Net:                  "tcp",
		Addr:                 os.Getenv("PHYLOSIM_DBADDR"),
		DBName:               os.Getenv("PHYLOSIM_DBNAME"),
		AllowNativePasswords: true,
		ParseTime:            true,
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	Check(err)
	err = db.Ping()
	Check(err)
	return db
}

func Check(e error) {
	if e != nil {
		panic(e)
	}
}

type dbRow struct {
	startMoment       time.Time
	user              string
	releaseVersion    int64
	simulationVersion int64
	inputVersion      int64
	id                uuid.UUID
	data              []byte
}

func WriteFile(name string, data []byte) {
	err := os.WriteFile(name, data, 0644)
	Check(err)
}
