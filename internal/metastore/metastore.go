package metastore

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
)

// DBType identifies the Hive metastore backing database.
type DBType string

const (
	Derby DBType = "derby"
	MySQL DBType = "mysql"
)

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// NormalizeDBType parses and validates db type values.
func NormalizeDBType(value string) (DBType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(MySQL):
		return MySQL, nil
	case string(Derby):
		return Derby, nil
	default:
		return "", fmt.Errorf("unknown metastore db %q (supported: mysql, derby)", value)
	}
}

// InferDBTypeFromURL infers db type from JDBC URL prefix.
func InferDBTypeFromURL(dbURL string) DBType {
	u := strings.ToLower(strings.TrimSpace(dbURL))
	switch {
	case strings.HasPrefix(u, "jdbc:mysql:"):
		return MySQL
	case strings.HasPrefix(u, "jdbc:derby:"):
		return Derby
	default:
		return ""
	}
}

// Settings describes the metastore database connection.
type Settings struct {
	Type     DBType
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	DerbyDir string // used when Type is Derby
}

// FromConfig builds the metastore settings of cfg.
func FromConfig(cfg *config.Config) (Settings, error) {
	dbType, err := NormalizeDBType(cfg.Hive.Metastore)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Type:     dbType,
		Host:     cfg.Hive.DBHost,
		Port:     cfg.Hive.DBPort,
		Name:     cfg.Hive.DBName,
		User:     cfg.Hive.DBUser,
		Password: cfg.Hive.DBPassword,
		DerbyDir: cfg.Paths().DerbyDir(),
	}, nil
}

// URL returns the JDBC connection URL.
func (s Settings) URL() string {
	if s.Type == Derby {
		return fmt.Sprintf("jdbc:derby:;databaseName=%s;create=true", s.DerbyDir)
	}
	return fmt.Sprintf("jdbc:mysql://%s/%s?createDatabaseIfNotExist=true&useSSL=false&allowPublicKeyRetrieval=true",
		s.hostPort(), s.Name)
}

func (s Settings) hostPort() string {
	port := s.Port
	if port == 0 {
		port = 3306
	}
	return s.Host + ":" + strconv.Itoa(port)
}

// DriverClass returns the JDBC driver class name.
func (s Settings) DriverClass() string {
	if s.Type == MySQL {
		return "com.mysql.cj.jdbc.Driver"
	}
	return "org.apache.derby.jdbc.EmbeddedDriver"
}

// ConnectionUser returns the JDBC user name.
func (s Settings) ConnectionUser() string {
	if s.Type == Derby || strings.TrimSpace(s.User) == "" {
		return "APP"
	}
	return s.User
}

// ConnectionPassword returns the JDBC password; Derby runs without one.
func (s Settings) ConnectionPassword() string {
	if s.Type == Derby {
		return ""
	}
	return s.Password
}

// SchemaToolType returns the -dbType argument for Hive's schematool.
func (s Settings) SchemaToolType() string {
	return string(s.Type)
}

// BootstrapSQL returns the statements that create the metastore database
// and user. Every statement is idempotent.
func (s Settings) BootstrapSQL() (string, error) {
	if s.Type != MySQL {
		return "", nil
	}
	if !identPattern.MatchString(s.Name) {
		return "", fmt.Errorf("unsupported mysql database name %q", s.Name)
	}
	if !identPattern.MatchString(s.User) {
		return "", fmt.Errorf("unsupported mysql user name %q", s.User)
	}

	pw := escapeSQLLiteral(s.Password)
	statements := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", s.Name),
		fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'localhost' IDENTIFIED BY '%s'", s.User, pw),
		fmt.Sprintf("ALTER USER '%s'@'localhost' IDENTIFIED BY '%s'", s.User, pw),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON `%s`.* TO '%s'@'localhost'", s.Name, s.User),
		"FLUSH PRIVILEGES",
	}
	return strings.Join(statements, "; ") + ";", nil
}

func escapeSQLLiteral(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, "'", "''")
}
