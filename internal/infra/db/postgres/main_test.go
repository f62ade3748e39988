//go:build integration

package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

// PICKUP_TEST_DATABASE_URL points the suite at an existing database and skips
// docker entirely. The schema is applied to it all the same.
const (
	testDatabaseURLEnv = "PICKUP_TEST_DATABASE_URL"
	testContainer      = "pickup-verification-pg-test"
	testImage          = "postgres:14-alpine"
	readyTimeout       = 45 * time.Second
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	dsn := os.Getenv(testDatabaseURLEnv)
	stop := func() {}
	if dsn == "" {
		var err error
		dsn, stop, err = startContainer()
		if err != nil {
			log.Fatalf("start %s: %v (is docker running? or set %s)", testContainer, err, testDatabaseURLEnv)
		}
	}

	pool, err := waitForDatabase(ctx, dsn)
	if err != nil {
		stop()
		log.Fatalf("database never became ready: %v", err)
	}
	testPool = pool

	if err := applySQLFile(ctx, testPool, "init.sql"); err != nil {
		testPool.Close()
		stop()
		log.Fatalf("apply schema: %v", err)
	}
	var hasTable bool
	if err := testPool.QueryRow(ctx, `SELECT to_regclass('public.verification_codes') IS NOT NULL`).Scan(&hasTable); err != nil || !hasTable {
		testPool.Close()
		stop()
		log.Fatalf("verification_codes table missing after schema (err=%v)", err)
	}

	code := m.Run()

	testPool.Close()
	stop()
	os.Exit(code)
}

// startContainer runs a throwaway postgres on a random loopback port and
// returns its DSN together with a function that removes the container.
func startContainer() (string, func(), error) {
	// a container left over from an aborted run would hold the name
	_ = exec.Command("docker", "rm", "-f", testContainer).Run()

	const user, password, dbName = "pickup", "pickup", "pickup_verification_test"
	run := exec.Command("docker", "run", "-d", "--rm",
		"--name", testContainer,
		"-p", "127.0.0.1::5432",
		"-e", "POSTGRES_USER="+user,
		"-e", "POSTGRES_PASSWORD="+password,
		"-e", "POSTGRES_DB="+dbName,
		testImage,
	)
	var stderr bytes.Buffer
	run.Stderr = &stderr
	if err := run.Run(); err != nil {
		return "", nil, fmt.Errorf("docker run: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	stop := func() {
		if err := exec.Command("docker", "stop", testContainer).Run(); err != nil {
			log.Printf("stop %s: %v", testContainer, err)
		}
	}

	out, err := exec.Command("docker", "port", testContainer, "5432/tcp").Output()
	if err != nil {
		stop()
		return "", nil, fmt.Errorf("docker port: %w", err)
	}
	// one line per published address, e.g. "127.0.0.1:49153"
	addr := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	if addr == "" {
		stop()
		return "", nil, errors.New("no published port")
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, password, addr, dbName), stop, nil
}

// waitForDatabase retries NewPgxPool, which pings, until the server accepts
// queries or readyTimeout passes.
func waitForDatabase(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	deadline := time.Now().Add(readyTimeout)
	for {
		pool, err := NewPgxPool(ctx, dsn, 4)
		if err == nil {
			return pool, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(time.Second)
	}
}

// applySQLFile executes a file from deploy/postgres against pool.
func applySQLFile(ctx context.Context, pool *pgxpool.Pool, name string) error {
	root, err := findProjectRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "deploy", "postgres", name)
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("exec %s: %w", name, err)
	}
	return nil
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above the test directory")
		}
		dir = parent
	}
}

// resetTable empties verification_codes and restarts its insertion sequence.
func resetTable(t *testing.T) {
	t.Helper()
	if _, err := testPool.Exec(context.Background(), `TRUNCATE verification_codes RESTART IDENTITY`); err != nil {
		t.Fatalf("reset verification_codes: %v", err)
	}
}

// loadFixtures resets the table and seeds it from fixtures.sql.
func loadFixtures(t *testing.T) {
	t.Helper()
	resetTable(t)
	if err := applySQLFile(context.Background(), testPool, "fixtures.sql"); err != nil {
		t.Fatalf("fixtures: %v", err)
	}
}
