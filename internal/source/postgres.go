package source

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/tablecheck/internal/schema"
)

func init() {
	Register(KindPostgres, PostgresReader{})
}

// PostgresReader reads a table or query result from PostgreSQL. Values are
// rendered as text in the layouts the default field formats accept.
type PostgresReader struct{}

// Read implements Reader.
func (PostgresReader) Read(ctx context.Context, res *schema.Resource, _ string) (*Result, error) {
	q := res.SQL
	src := sqlSourceName(q)

	conn, err := pgx.Connect(ctx, q.DSN)
	if err != nil {
		return sqlFailure(ctx, src, err)
	}
	defer conn.Close(context.Background())

	rows, err := conn.Query(ctx, selectQuery(q, `"`))
	if err != nil {
		return sqlFailure(ctx, src, err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	names := make([]string, len(fds))
	for i, fd := range fds {
		names[i] = fd.Name
	}

	var data [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return sqlFailure(ctx, src, err)
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = pgText(v, fds[i].DataTypeOID)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return sqlFailure(ctx, src, err)
	}
	return sqlResult(res, src, names, data)
}

// pgText renders a decoded PostgreSQL value as text, or nil for NULL.
func pgText(v any, oid uint32) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		if oid == pgtype.DateOID {
			return x.Format(time.DateOnly)
		}
		return x.Format("2006-01-02T15:04:05-0700")
	case [16]byte:
		return uuid.UUID(x).String()
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		return pgText(dv, oid)
	}
	return fmt.Sprint(v)
}
