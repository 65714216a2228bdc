package metastore

import (
	"strings"
	"testing"
)

func TestNormalizeDBType(t *testing.T) {
	tests := []struct {
		in      string
		want    DBType
		wantErr bool
	}{
		{"", MySQL, false},
		{"mysql", MySQL, false},
		{" Derby ", Derby, false},
		{"postgres", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDBType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeDBType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeDBType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSettings_URL(t *testing.T) {
	mysql := Settings{Type: MySQL, Host: "localhost", Port: 3306, Name: "metastore"}
	if got := mysql.URL(); !strings.HasPrefix(got, "jdbc:mysql://localhost:3306/metastore?") {
		t.Errorf("mysql URL = %v", got)
	}
	if InferDBTypeFromURL(mysql.URL()) != MySQL {
		t.Error("mysql URL not recognized")
	}

	derby := Settings{Type: Derby, DerbyDir: "/state/hive/metastore_db"}
	if got, want := derby.URL(), "jdbc:derby:;databaseName=/state/hive/metastore_db;create=true"; got != want {
		t.Errorf("derby URL = %v, want %v", got, want)
	}
	if derby.ConnectionUser() != "APP" || derby.ConnectionPassword() != "" {
		t.Errorf("derby credentials = %v/%v", derby.ConnectionUser(), derby.ConnectionPassword())
	}
}

func TestSettings_BootstrapSQL(t *testing.T) {
	s := Settings{Type: MySQL, Name: "metastore", User: "hive", Password: "pa'ss"}

	sql, err := s.BootstrapSQL()
	if err != nil {
		t.Fatalf("BootstrapSQL() error = %v", err)
	}

	for _, want := range []string{
		"CREATE DATABASE IF NOT EXISTS `metastore`",
		"CREATE USER IF NOT EXISTS 'hive'@'localhost' IDENTIFIED BY 'pa''ss'",
		"GRANT ALL PRIVILEGES ON `metastore`.* TO 'hive'@'localhost'",
		"FLUSH PRIVILEGES;",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("BootstrapSQL() missing %q in %q", want, sql)
		}
	}
}

func TestSettings_BootstrapSQL_RejectsBadIdentifiers(t *testing.T) {
	tests := []Settings{
		{Type: MySQL, Name: "meta;DROP", User: "hive"},
		{Type: MySQL, Name: "metastore", User: "hive'--"},
	}
	for _, s := range tests {
		if _, err := s.BootstrapSQL(); err == nil {
			t.Errorf("BootstrapSQL(%+v) expected error", s)
		}
	}
}

func TestSettings_BootstrapSQL_DerbyIsEmpty(t *testing.T) {
	sql, err := Settings{Type: Derby}.BootstrapSQL()
	if err != nil || sql != "" {
		t.Errorf("BootstrapSQL() = %q, %v", sql, err)
	}
}
