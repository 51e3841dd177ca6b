// Package store persists BROSolve aggregates in Postgres through sqlx.
package store

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"brosolve-backend-go/internal/db"
	"brosolve-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Store struct {
	DB *sqlx.DB
}

func New(database *sqlx.DB) *Store {
	return &Store{DB: database}
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return models.ErrNotFound
	case db.IsUniqueViolation(err):
		return models.ErrDuplicate
	}
	return err
}

// validID guards uuid columns so malformed path ids read as missing rows instead of driver errors.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		clause = strings.Replace(clause, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

func (w *where) arg(value interface{}) string {
	w.args = append(w.args, value)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func likePattern(q string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(q) + "%"
}
