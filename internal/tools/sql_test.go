package tools_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"ragchat/internal/tools"
	"ragchat/internal/tools/mocks"
)

func sqlRegistry(t *testing.T, connector tools.Connector) *tools.Registry {
	t.Helper()
	reg, err := tools.NewRegistry(tools.NewSQLTool(connector))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}

func TestSQLTool_ReleasesConnectionOnce(t *testing.T) {
	tests := []struct {
		name     string
		result   *tools.ResultSet
		queryErr error
		closeErr error
		want     string
	}{
		{
			name:   "rows",
			result: &tools.ResultSet{Columns: []string{"id", "name"}, Rows: [][]string{{"1", "ann"}}},
			want:   "| id | name |",
		},
		{
			name:     "query failure",
			queryErr: errors.New("syntax error near SELEC"),
			want:     "syntax error near SELEC",
		},
		{
			name:     "close failure is not fatal",
			result:   &tools.ResultSet{Columns: []string{"x"}, Rows: [][]string{{"1"}}},
			closeErr: errors.New("already closed"),
			want:     "| x |",
		},
		{
			name:   "statement without rows",
			result: &tools.ResultSet{RowsAffected: 3},
			want:   "3 row(s) affected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			conn := mocks.NewMockConn(ctrl)
			connector := mocks.NewMockConnector(ctrl)

			connector.EXPECT().Connect(gomock.Any()).Return(conn, nil).Times(1)
			conn.EXPECT().Query(gomock.Any(), "select * from t").Return(tt.result, tt.queryErr).Times(1)
			conn.EXPECT().Close().Return(tt.closeErr).Times(1)

			got, err := sqlRegistry(t, connector).Dispatch(context.Background(), tools.SQLToolName, map[string]any{"sqlscript": "select * from t"})
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Dispatch() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestSQLTool_ConnectFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	connector := mocks.NewMockConnector(ctrl)
	connector.EXPECT().Connect(gomock.Any()).Return(nil, errors.New("connection refused"))

	got, err := sqlRegistry(t, connector).Dispatch(context.Background(), tools.SQLToolName, map[string]any{"sqlscript": "select 1"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !strings.Contains(got, "connection refused") {
		t.Errorf("Dispatch() = %q", got)
	}
}

func TestSQLTool_MissingScript(t *testing.T) {
	ctrl := gomock.NewController(t)
	connector := mocks.NewMockConnector(ctrl)

	got, err := sqlRegistry(t, connector).Dispatch(context.Background(), tools.SQLToolName, map[string]any{})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !strings.Contains(got, "sqlscript") {
		t.Errorf("Dispatch() = %q", got)
	}
}
