package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"ragchat/internal/tools"
)

// Supported SQL tool drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ConnParams locates the database the SQL tool runs against.
// For SQLite, Host is the database file path.
type ConnParams struct {
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// PostgresDSN renders the params as a lib/pq keyword/value string.
func (p ConnParams) PostgresDSN() string {
	pairs := []struct{ k, v string }{
		{"host", p.Host},
		{"port", p.Port},
		{"dbname", p.Name},
		{"user", p.User},
		{"password", p.Password},
		{"sslmode", p.SSLMode},
	}
	var parts []string
	for _, kv := range pairs {
		if kv.v == "" {
			continue
		}
		parts = append(parts, kv.k+"="+quoteDSNValue(kv.v))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// SQLConnector opens one unpooled connection per Connect call.
// It implements tools.Connector.
type SQLConnector struct {
	params ConnParams
}

// NewSQLConnector validates params and returns a connector.
func NewSQLConnector(params ConnParams) (*SQLConnector, error) {
	switch params.Driver {
	case DriverSQLite:
		if params.Host == "" {
			return nil, fmt.Errorf("sqlite database path is empty")
		}
	case DriverPostgres:
		if _, err := pq.NewConnector(params.PostgresDSN()); err != nil {
			return nil, fmt.Errorf("invalid postgres parameters: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", params.Driver)
	}
	return &SQLConnector{params: params}, nil
}

// Connect opens a session and verifies it with a ping.
func (c *SQLConnector) Connect(ctx context.Context) (tools.Conn, error) {
	var db *sql.DB
	switch c.params.Driver {
	case DriverPostgres:
		connector, err := pq.NewConnector(c.params.PostgresDSN())
		if err != nil {
			return nil, err
		}
		db = sql.OpenDB(connector)
	default:
		var err error
		if db, err = sql.Open(DriverSQLite, c.params.Host); err != nil {
			return nil, err
		}
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqlConn{db: db}, nil
}

type sqlConn struct {
	db *sql.DB
}

// Close releases the session.
func (c *sqlConn) Close() error {
	return c.db.Close()
}

// Query runs script. Row-returning statements yield columns and rows;
// anything else yields the affected row count.
func (c *sqlConn) Query(ctx context.Context, script string) (*tools.ResultSet, error) {
	if !returnsRows(script) {
		res, err := c.db.ExecContext(ctx, script)
		if err != nil {
			return nil, err
		}
		affected, _ := res.RowsAffected()
		return &tools.ResultSet{RowsAffected: affected}, nil
	}

	rows, err := c.db.QueryContext(ctx, script)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &tools.ResultSet{Columns: columns}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = renderCell(v)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

var rowKeywords = []string{"select", "with", "show", "pragma", "explain", "values", "describe", "table"}

func returnsRows(script string) bool {
	s := strings.ToLower(strings.TrimSpace(script))
	for _, kw := range rowKeywords {
		if strings.HasPrefix(s, kw) {
			return true
		}
	}
	return strings.Contains(s, " returning ")
}

func renderCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
