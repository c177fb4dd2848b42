package policy

import "testing"

func TestDangerousKeyword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		query       string
		wantKeyword string
		wantFound   bool
	}{
		{"select is safe", "SELECT 1", "", false},
		{"select from table named like verb", "SELECT * FROM deleted_rows", "", false},
		{"delete statement", "DELETE FROM proj.ds.tbl WHERE id = 1", "DELETE", true},
		{"lowercase delete", "delete from proj.ds.tbl", "DELETE", true},
		{"mixed case drop", "Drop Table proj.ds.tbl", "DROP", true},
		{"truncate", "TRUNCATE TABLE proj.ds.tbl", "TRUNCATE", true},
		{"alter", "ALTER TABLE proj.ds.tbl ADD COLUMN c INT64", "ALTER", true},
		{"create", "CREATE TABLE proj.ds.tbl (c INT64)", "CREATE", true},
		{"update", "UPDATE proj.ds.tbl SET c = 1 WHERE TRUE", "UPDATE", true},
		{"insert", "INSERT INTO proj.ds.tbl VALUES (1)", "INSERT", true},
		{"merge", "MERGE proj.ds.tbl t USING s ON t.id = s.id", "MERGE", true},
		{"second statement dangerous", "SELECT 1; DROP TABLE proj.ds.tbl", "DROP", true},
		{"delete behind cte", "WITH doomed AS (SELECT id FROM proj.ds.tbl) DELETE FROM proj.ds.tbl WHERE id IN (SELECT id FROM doomed)", "DELETE", true},
		{"lowercase delete behind cte", "with doomed as (select id from proj.ds.tbl) delete from proj.ds.tbl where true", "DELETE", true},
		{"merge behind multiple ctes", "WITH a AS (SELECT 1), b AS (SELECT 2) MERGE proj.ds.tbl t USING b ON t.id = b.id", "MERGE", true},
		{"cte select stays safe", "WITH x AS (SELECT 1) SELECT * FROM x", "", false},
		{"verb inside cte body stays safe", "WITH x AS (SELECT 'DELETE') SELECT * FROM x", "", false},
		{"cte over second statement", "SELECT 1; WITH x AS (SELECT 1) INSERT INTO proj.ds.tbl SELECT * FROM x", "INSERT", true},
		{"leading whitespace", "   \n\tDELETE FROM proj.ds.tbl", "DELETE", true},
		{"leading paren", "(INSERT INTO proj.ds.tbl VALUES (1))", "INSERT", true},
		{"empty query", "", "", false},
		{"only semicolons", ";;;", "", false},
		// Heuristic scan, not a parser: verbs embedded mid-statement are not
		// flagged, identifiers containing a verb are not flagged.
		{"verb mid-statement", "SELECT 'please DELETE me'", "", false},
		{"identifier prefix", "UPDATES_VIEW is not a verb", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			keyword, found := DangerousKeyword(tt.query)
			if found != tt.wantFound {
				t.Fatalf("DangerousKeyword(%q) found = %v; want %v", tt.query, found, tt.wantFound)
			}
			if keyword != tt.wantKeyword {
				t.Fatalf("DangerousKeyword(%q) keyword = %q; want %q", tt.query, keyword, tt.wantKeyword)
			}
		})
	}
}
