package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Violation names the integrity rule a database error broke.
type Violation string

const (
	ViolationUnique     Violation = "unique"
	ViolationCheck      Violation = "check"
	ViolationForeignKey Violation = "foreign_key"
	ViolationNotNull    Violation = "not_null"
)

var violationBySQLState = map[string]Violation{
	"23505": ViolationUnique,
	"23514": ViolationCheck,
	"23503": ViolationForeignKey,
	"23502": ViolationNotNull,
}

// ErrorDump is the log-side view of an error: the typed code, the wrap chain
// and, when a database rejected the statement, the offending constraint.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string    `json:"pg_code,omitempty"`
	PGConstraint string    `json:"pg_constraint,omitempty"`
	PGTable      string    `json:"pg_table,omitempty"`
	PGColumn     string    `json:"pg_column,omitempty"`
	PGDetail     string    `json:"pg_detail,omitempty"`
	PGMessage    string    `json:"pg_message,omitempty"`
	Violation    Violation `json:"violation,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	default:
		d.fromSQLiteMessage(err.Error())
		return d
	}

	d.Violation = violationBySQLState[d.PGCode]
	if d.PGTable == "" {
		d.PGTable = tableOf(d.PGConstraint)
	}
	return d
}

// fromSQLiteMessage reads "UNIQUE constraint failed: users.email" style
// messages from the sqlite driver used in tests and local runs.
func (d *ErrorDump) fromSQLiteMessage(msg string) {
	for prefix, v := range map[string]Violation{
		"UNIQUE constraint failed: ":    ViolationUnique,
		"CHECK constraint failed: ":     ViolationCheck,
		"FOREIGN KEY constraint failed": ViolationForeignKey,
		"NOT NULL constraint failed: ":  ViolationNotNull,
	} {
		idx := strings.Index(msg, prefix)
		if idx < 0 {
			continue
		}
		d.Violation = v
		target := strings.TrimSpace(msg[idx+len(prefix):])
		if table, column, ok := strings.Cut(target, "."); ok {
			d.PGTable = table
			d.PGColumn = strings.SplitN(column, ",", 2)[0]
		} else if target != "" {
			d.PGConstraint = target
			d.PGTable = tableOf(target)
		}
		return
	}
}

// knownTables lists the tables whose constraints follow the
// <table>_<rule> naming used in the migrations.
var knownTables = []string{
	"order_items",
	"orders",
	"cart_lines",
	"delivery_agents",
	"outbox_events",
	"products",
	"users",
}

func tableOf(constraint string) string {
	for _, table := range knownTables {
		if strings.HasPrefix(constraint, table+"_") {
			return table
		}
	}
	return ""
}

// Fields flattens the dump into log fields, leaving out empty values.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error": d.TopMessage}
	add := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	add("error_code", string(d.Code))
	add("pg_code", d.PGCode)
	add("pg_constraint", d.PGConstraint)
	add("pg_table", d.PGTable)
	add("pg_column", d.PGColumn)
	add("pg_detail", d.PGDetail)
	add("violation", string(d.Violation))
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	return fields
}
