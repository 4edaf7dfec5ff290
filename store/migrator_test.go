package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSQL(t *testing.T) {
	script := `-- header comment
CREATE TABLE a (id INT); -- trailing
INSERT INTO a VALUES (';');
CREATE FUNCTION f() RETURNS void AS $$ BEGIN PERFORM 1; END; $$ LANGUAGE plpgsql;
`
	statements := splitSQL(script)
	assert.Len(t, statements, 3)
	assert.Equal(t, "CREATE TABLE a (id INT)", statements[0])
	assert.Equal(t, "INSERT INTO a VALUES (';')", statements[1])
	assert.Contains(t, statements[2], "PERFORM 1; END;")
}

func TestShouldApplyMigration(t *testing.T) {
	tests := []struct {
		file, current, target string
		want                  bool
	}{
		{"0.1.1", "", "0.1.2", true},
		{"0.1.1", "0.1.1", "0.1.2", false},
		{"0.1.2", "0.1.1", "0.1.2", true},
		{"0.1.3", "0.1.1", "0.1.2", false},
	}
	for _, tt := range tests {
		if got := shouldApplyMigration(tt.file, tt.current, tt.target); got != tt.want {
			t.Errorf("shouldApplyMigration(%s, %s, %s) = %v, want %v", tt.file, tt.current, tt.target, got, tt.want)
		}
	}
}

func TestValidateMigrationFileName(t *testing.T) {
	assert.NoError(t, validateMigrationFileName("01__indexes.sql"))
	assert.Error(t, validateMigrationFileName("indexes.sql"))
	assert.Error(t, validateMigrationFileName("x__indexes.sql"))
}
