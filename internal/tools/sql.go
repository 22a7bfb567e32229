package tools

import (
	"context"
	"fmt"

	"ragchat/internal/contextutil"
)

// SQLToolName is the name the model uses to run a SQL statement.
const SQLToolName = "sql"

// ResultSet holds a query result with every cell already rendered as text.
// Columns are in the order the database returned them.
type ResultSet struct {
	Columns      []string
	Rows         [][]string
	RowsAffected int64
}

// Conn is a single database session.
type Conn interface {
	Query(ctx context.Context, script string) (*ResultSet, error)
	Close() error
}

// Connector opens a fresh database session.
//
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_connector.go -package=mocks ragchat/internal/tools Connector,Conn
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// NewSQLTool returns the SQL runner. Each call opens its own connection and
// releases it before returning, on every path.
func NewSQLTool(connector Connector) Descriptor {
	return Descriptor{
		Name:        SQLToolName,
		Description: "execute an arbitrary sql command",
		Parameters: Schema{
			Type: "object",
			Properties: map[string]Property{
				"sqlscript": {Type: "string", Description: "SQL command to run"},
			},
			Required: []string{"sqlscript"},
		},
		Handler: func(ctx context.Context, params map[string]any) (string, error) {
			return runSQL(ctx, connector, params)
		},
	}
}

func runSQL(ctx context.Context, connector Connector, params map[string]any) (result string, err error) {
	script, err := stringParam(params, "sqlscript")
	if err != nil {
		return "", err
	}

	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "running sql", "sqlscript", script)

	conn, err := connector.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logger.WarnContext(ctx, "failed to release sql connection", "error", cerr)
		}
	}()

	rs, err := conn.Query(ctx, script)
	if err != nil {
		return "", err
	}

	if len(rs.Columns) == 0 {
		return fmt.Sprintf("\n\nOK, %d row(s) affected\n", rs.RowsAffected), nil
	}
	return "\n\n" + FormatTable(rs.Columns, rs.Rows), nil
}
