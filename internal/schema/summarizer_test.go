package schema

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeCatalog struct {
	databases    []string
	databasesErr error
	tables       map[string][]string
	tablesErr    map[string]error
	columns      map[string][]string
	columnsErr   map[string]error
}

func (f *fakeCatalog) ListDatabases(_ context.Context) ([]string, error) {
	return f.databases, f.databasesErr
}

func (f *fakeCatalog) ListTables(_ context.Context, database string) ([]string, error) {
	if err := f.tablesErr[database]; err != nil {
		return nil, err
	}
	return f.tables[database], nil
}

func (f *fakeCatalog) ListColumns(_ context.Context, database, table string) ([]string, error) {
	key := database + "." + table
	if err := f.columnsErr[key]; err != nil {
		return nil, err
	}
	return f.columns[key], nil
}

func TestSummarizeBoundsEveryLevel(t *testing.T) {
	tables := make([]string, 12)
	for i := range tables {
		tables[i] = fmt.Sprintf("t%02d", i)
	}
	columns := make([]string, 20)
	for i := range columns {
		columns[i] = fmt.Sprintf("c%02d", i)
	}

	fake := &fakeCatalog{
		databases: []string{"db1", "db2", "db3", "db4", "db5", "db6", "db7"},
		tables:    map[string][]string{},
		columns:   map[string][]string{},
	}
	for _, db := range fake.databases {
		fake.tables[db] = tables
		for _, table := range tables {
			fake.columns[db+"."+table] = columns
		}
	}

	summarizer := NewSummarizer(fake, DefaultLimits(), nil)
	summary := summarizer.Summarize(context.Background())

	if len(summary.Databases) != 5 {
		t.Fatalf("databases = %d, want 5", len(summary.Databases))
	}
	for _, db := range summary.Databases {
		if len(db.Tables) != 5 {
			t.Fatalf("tables in %q = %d, want 5", db.Name, len(db.Tables))
		}
		for _, table := range db.Tables {
			if len(table.Columns) != 5 {
				t.Fatalf("columns in %q.%q = %d, want 5", db.Name, table.Name, len(table.Columns))
			}
		}
	}
}

func TestSummarizePreservesCatalogOrder(t *testing.T) {
	fake := &fakeCatalog{
		databases: []string{"zeta", "alpha"},
		tables: map[string][]string{
			"zeta":  {"zz", "aa"},
			"alpha": {"mm"},
		},
		columns: map[string][]string{
			"zeta.zz":  {"z1", "a1"},
			"zeta.aa":  {"x"},
			"alpha.mm": {"id"},
		},
	}

	summary := NewSummarizer(fake, DefaultLimits(), nil).Summarize(context.Background())

	if summary.Databases[0].Name != "zeta" || summary.Databases[1].Name != "alpha" {
		t.Fatalf("database order = %v", summary.Databases)
	}
	if summary.Databases[0].Tables[0].Name != "zz" {
		t.Fatalf("table order = %v", summary.Databases[0].Tables)
	}
	if summary.Databases[0].Tables[0].Columns[0] != "z1" {
		t.Fatalf("column order = %v", summary.Databases[0].Tables[0].Columns)
	}
}

func TestSummarizeDegradesFailedLevelsToEmpty(t *testing.T) {
	fake := &fakeCatalog{
		databases: []string{"ok_db", "broken_db"},
		tables: map[string][]string{
			"ok_db": {"good", "bad"},
		},
		tablesErr: map[string]error{
			"broken_db": errors.New("connection reset"),
		},
		columns: map[string][]string{
			"ok_db.good": {"id", "name"},
		},
		columnsErr: map[string]error{
			"ok_db.bad": errors.New("table is marked as crashed"),
		},
	}

	summary := NewSummarizer(fake, DefaultLimits(), nil).Summarize(context.Background())

	if len(summary.Databases) != 2 {
		t.Fatalf("databases = %d, want 2", len(summary.Databases))
	}
	if len(summary.Databases[1].Tables) != 0 {
		t.Fatalf("broken_db tables = %v, want empty", summary.Databases[1].Tables)
	}
	badTable := summary.Databases[0].Tables[1]
	if badTable.Name != "bad" || len(badTable.Columns) != 0 {
		t.Fatalf("bad table = %+v, want present with no columns", badTable)
	}
}

func TestSummarizeDegradesDatabaseListFailure(t *testing.T) {
	fake := &fakeCatalog{databasesErr: errors.New("access denied")}
	summary := NewSummarizer(fake, DefaultLimits(), nil).Summarize(context.Background())
	if len(summary.Databases) != 0 {
		t.Fatalf("databases = %v, want empty", summary.Databases)
	}
}
